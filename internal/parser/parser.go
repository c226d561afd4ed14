// Package parser turns markdown card files into cards.
//
// A card starts at a line beginning with "Q:" or "C:" and runs until a
// "---" line, the next card, or the end of the file. Inside a card, "Q:",
// "A:" and "C:" open the question, answer and cloze sections.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/repeater/pkg/models"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

var ErrInvalidCard = errors.New("unable to parse card")

const separator = "---"

func IsMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// SplitLines splits file content into lines, dropping the empty element
// after a trailing newline.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func ParseFile(path string) ([]models.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseLines(path, SplitLines(string(data)))
}

func isCardStart(line string) bool {
	return strings.HasPrefix(line, "Q:") || strings.HasPrefix(line, "C:")
}

// ParseLines finds every card in lines. Ranges are zero-based and
// half-open; the closing separator is not part of a card.
func ParseLines(path string, lines []string) ([]models.Card, error) {
	var (
		cards    []models.Card
		tracking bool
		start    int
		buf      []string
	)

	flush := func(end int) error {
		block := strings.Join(buf, "\n")
		buf = buf[:0]
		if strings.TrimSpace(block) == "" {
			return nil
		}
		card, err := ContentToCard(path, block, models.LineRange{Start: start, End: end})
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, start+1, err)
		}
		cards = append(cards, card)
		return nil
	}

	for i, line := range lines {
		if isCardStart(line) {
			if err := flush(i); err != nil {
				return nil, err
			}
			tracking = true
			start = i
		}
		if strings.HasPrefix(line, separator) && tracking {
			if err := flush(i); err != nil {
				return nil, err
			}
			tracking = false
			continue
		}
		if tracking {
			buf = append(buf, line)
		}
	}
	if err := flush(len(lines)); err != nil {
		return nil, err
	}
	return cards, nil
}

// ContentToCard builds a card from the text of one card block.
func ContentToCard(path, block string, rng models.LineRange) (models.Card, error) {
	sections := parseSections(block)

	fingerprint, err := utils.Fingerprint(block)
	if err != nil {
		return models.Card{}, fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}

	card := models.Card{
		Path:        path,
		Range:       rng,
		Fingerprint: fingerprint,
	}

	switch {
	case sections.question != "" && sections.answer != "":
		card.Content = models.Basic{Question: sections.question, Answer: sections.answer}
	case sections.cloze != "":
		hidden, err := models.FirstClozeRange(sections.cloze)
		if err != nil {
			return models.Card{}, fmt.Errorf("%w: %w", ErrInvalidCard, err)
		}
		card.Content = models.Cloze{Text: sections.cloze, Hidden: hidden}
	default:
		return models.Card{}, fmt.Errorf("%w: no question and answer or cloze text in %q", ErrInvalidCard, block)
	}
	return card, nil
}

// ParseCard parses free text, such as an edited card, as a single card.
func ParseCard(path, text string, rng models.LineRange) (models.Card, error) {
	lines := SplitLines(text)
	if len(lines) == 0 || !isCardStart(strings.TrimLeft(lines[0], " \t")) {
		return models.Card{}, fmt.Errorf("%w: a card must start with Q: or C:", ErrInvalidCard)
	}
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimLeft(l, " \t")
	}
	for _, l := range trimmed[1:] {
		if isCardStart(l) || strings.HasPrefix(l, separator) {
			return models.Card{}, fmt.Errorf("%w: text holds more than one card", ErrInvalidCard)
		}
	}
	return ContentToCard(path, strings.Join(lines, "\n"), rng)
}
