// Package editor writes an edited card back into its markdown file and keeps
// the review history attached to it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

var (
	ErrDuplicateCard = errors.New("an identical card already exists")
	ErrAmbiguousCard = errors.New("card appears more than once in its file")
	ErrCardNotFound  = errors.New("card no longer exists in its file")
)

type Store interface {
	CardExists(ctx context.Context, fingerprint string) (bool, error)
	RenameFingerprint(ctx context.Context, oldFingerprint, newFingerprint string) error
}

// Update describes an applied edit. Card replaces every queued copy of
// OldFingerprint in its file. OldRange is where the card was found on disk
// when it was rewritten; cards after it move by LineDelta.
type Update struct {
	Card           models.Card
	OldFingerprint string
	OldRange       models.LineRange
	LineDelta      int
}

type Reconciler struct {
	store  Store
	logger *logger.Logger
}

func NewReconciler(store Store, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{store: store, logger: log}
}

// Apply replaces original in its file with newText. On error neither the
// file nor the store is changed.
func (r *Reconciler) Apply(ctx context.Context, original models.Card, newText string) (Update, error) {
	edited, err := parser.ParseCard(original.Path, newText, original.Range)
	if err != nil {
		return Update{}, err
	}

	renamed := edited.Fingerprint != original.Fingerprint
	if renamed {
		exists, err := r.store.CardExists(ctx, edited.Fingerprint)
		if err != nil {
			return Update{}, fmt.Errorf("failed to check for duplicate card: %w", err)
		}
		if exists {
			return Update{}, ErrDuplicateCard
		}
	}

	data, err := os.ReadFile(original.Path)
	if err != nil {
		return Update{}, fmt.Errorf("failed to read %s: %w", original.Path, err)
	}
	content := string(data)
	lines := parser.SplitLines(content)

	rng, err := locate(original, lines)
	if err != nil {
		return Update{}, err
	}
	if rng != original.Range {
		r.logger.Debug("Card moved from lines %d-%d to %d-%d in %s",
			original.Range.Start+1, original.Range.End, rng.Start+1, rng.End, original.Path)
	}

	replacement := spliceLines(lines[rng.Start:rng.End], newText)
	out := make([]string, 0, len(lines)-rng.Len()+len(replacement))
	out = append(out, lines[:rng.Start]...)
	out = append(out, replacement...)
	out = append(out, lines[rng.End:]...)

	updated := strings.Join(out, "\n")
	if strings.HasSuffix(content, "\n") || content == "" {
		updated += "\n"
	}
	if err := writeFile(original.Path, updated); err != nil {
		return Update{}, err
	}

	if renamed {
		if err := r.store.RenameFingerprint(ctx, original.Fingerprint, edited.Fingerprint); err != nil {
			if restoreErr := writeFile(original.Path, content); restoreErr != nil {
				r.logger.Error("Failed to restore %s after a failed edit: %v", original.Path, restoreErr)
			}
			return Update{}, fmt.Errorf("failed to move review history to the edited card: %w", err)
		}
	}

	edited.Range = models.LineRange{Start: rng.Start, End: rng.Start + len(replacement)}
	edited.Enrichment = models.NotNeeded
	r.logger.Debug("Saved card %s:%d", edited.Path, edited.Range.Start+1)

	return Update{
		Card:           edited,
		OldFingerprint: original.Fingerprint,
		OldRange:       rng,
		LineDelta:      len(replacement) - rng.Len(),
	}, nil
}

// locate returns the card's current range, trusting the recorded one only
// if it still holds the same card.
func locate(card models.Card, lines []string) (models.LineRange, error) {
	rng := card.Range
	if rng.Start >= 0 && rng.Start < rng.End && rng.End <= len(lines) {
		block := strings.Join(lines[rng.Start:rng.End], "\n")
		if found, err := parser.ContentToCard(card.Path, block, rng); err == nil && found.Fingerprint == card.Fingerprint {
			return rng, nil
		}
	}

	cards, err := parser.ParseLines(card.Path, lines)
	if err != nil {
		return models.LineRange{}, fmt.Errorf("failed to re-read %s: %w", card.Path, err)
	}
	var matches []models.LineRange
	for _, c := range cards {
		if c.Fingerprint == card.Fingerprint {
			matches = append(matches, c.Range)
		}
	}
	switch len(matches) {
	case 0:
		return models.LineRange{}, ErrCardNotFound
	case 1:
		return matches[0], nil
	}
	return models.LineRange{}, fmt.Errorf("%w: found %d copies in %s", ErrAmbiguousCard, len(matches), card.Path)
}

// spliceLines returns the lines replacing old, keeping the blank lines that
// separated old from what follows.
func spliceLines(old []string, newText string) []string {
	blank := 0
	for i := len(old) - 1; i >= 0 && strings.TrimSpace(old[i]) == ""; i-- {
		blank++
	}
	lines := cardLines(newText)
	for i := 0; i < blank; i++ {
		lines = append(lines, "")
	}
	return lines
}

// cardLines splits card text into the lines written to a file, with no
// indent before the card start and no trailing blank lines.
func cardLines(text string) []string {
	lines := parser.SplitLines(strings.TrimRight(text, "\n"))
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 {
		lines[0] = strings.TrimLeft(lines[0], " \t")
	}
	return lines
}

// writeFile replaces path in one rename. The temp file takes the mode of
// the file it replaces before the rename, so a failure leaves path as it was.
func writeFile(path, content string) error {
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
