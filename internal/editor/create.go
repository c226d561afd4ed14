package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

var ErrNotMarkdown = errors.New("cards can only be stored in .md files")

// Registry records new cards.
type Registry interface {
	CardExists(ctx context.Context, fingerprint string) (bool, error)
	AddCardsBatch(ctx context.Context, cards []models.Card) error
}

// Creator appends new cards to a card file.
type Creator struct {
	store  Registry
	logger *logger.Logger
}

func NewCreator(store Registry, log *logger.Logger) *Creator {
	if log == nil {
		log = logger.Nop()
	}
	return &Creator{store: store, logger: log}
}

// ValidatePath checks that path can hold cards and reports whether it
// already exists.
func ValidatePath(path string) (bool, error) {
	if !parser.IsMarkdown(path) {
		return false, fmt.Errorf("%w: %s", ErrNotMarkdown, path)
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	case info.IsDir():
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}

// Append adds the card in text to the end of path, creating the file and
// its directory when needed, and registers it. On error neither the file
// nor the store is changed.
func (c *Creator) Append(ctx context.Context, path, text string) (models.Card, error) {
	exists, err := ValidatePath(path)
	if err != nil {
		return models.Card{}, err
	}

	var content string
	if exists {
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Card{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		content = string(data)
	}

	lines := parser.SplitLines(content)
	start := len(lines)
	prefix := content
	if prefix != "" {
		if !strings.HasSuffix(prefix, "\n") {
			prefix += "\n"
		}
		prefix += "\n"
		start++
	}

	block := cardLines(text)
	card, err := parser.ParseCard(path, strings.Join(block, "\n"), models.LineRange{Start: start, End: start + len(block)})
	if err != nil {
		return models.Card{}, err
	}
	duplicate, err := c.store.CardExists(ctx, card.Fingerprint)
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to check for duplicate card: %w", err)
	}
	if duplicate {
		return models.Card{}, ErrDuplicateCard
	}

	updated := prefix + strings.Join(block, "\n") + "\n"
	if exists {
		err = writeFile(path, updated)
	} else {
		err = createFile(path, updated)
	}
	if err != nil {
		return models.Card{}, err
	}

	if err := c.store.AddCardsBatch(ctx, []models.Card{card}); err != nil {
		c.undo(path, content, exists)
		return models.Card{}, fmt.Errorf("failed to register card: %w", err)
	}
	c.logger.Debug("Created card %s:%d", path, card.Range.Start+1)
	return card, nil
}

func (c *Creator) undo(path, content string, existed bool) {
	var err error
	if existed {
		err = writeFile(path, content)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		c.logger.Error("Failed to restore %s after a failed create: %v", path, err)
	}
}

func createFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
