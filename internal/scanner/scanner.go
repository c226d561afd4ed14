package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

var ErrNoCardFiles = errors.New("no markdown files found")

type Stats struct {
	FileCount int
	CardCount int
}

// Registrar records newly seen cards.
type Registrar interface {
	AddCardsBatch(ctx context.Context, cards []models.Card) error
}

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		logger: logger,
	}
}

// FindMarkdown returns every markdown file under the given paths. A path
// may also name a single file.
func (s *DirectoryScanner) FindMarkdown(ctx context.Context, paths ...string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, root := range paths {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				return fmt.Errorf("error accessing path %s: %w", path, err)
			}

			if info.IsDir() {
				if path != root && (info.Name() == ".git" || info.Name() == "node_modules") {
					return filepath.SkipDir
				}
				s.logger.Trace("Scanning directory: %s", path)
				return nil
			}

			if !parser.IsMarkdown(path) || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoCardFiles, paths)
	}
	sort.Strings(files)
	return files, nil
}

// Ingest parses every card file under paths, registers the cards and
// returns them keyed by fingerprint. Cards repeated verbatim keep their
// first location.
func (s *DirectoryScanner) Ingest(ctx context.Context, registrar Registrar, paths ...string) (map[string]models.Card, Stats, error) {
	var stats Stats

	files, err := s.FindMarkdown(ctx, paths...)
	if err != nil {
		return nil, stats, err
	}

	cards := make(map[string]models.Card)
	for _, path := range files {
		parsed, err := parser.ParseFile(path)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		stats.FileCount++
		if len(parsed) == 0 {
			continue
		}
		s.logger.Debug("Found %d cards in %s", len(parsed), path)

		if err := registrar.AddCardsBatch(ctx, parsed); err != nil {
			return nil, stats, err
		}
		for _, card := range parsed {
			if existing, ok := cards[card.Fingerprint]; ok {
				s.logger.Debug("Duplicate card in %s:%d, keeping %s:%d",
					path, card.Range.Start+1, existing.Path, existing.Range.Start+1)
				continue
			}
			cards[card.Fingerprint] = card
		}
	}

	stats.CardCount = len(cards)
	s.logger.Info("Loaded %d cards from %d files", stats.CardCount, stats.FileCount)
	return cards, stats, nil
}
