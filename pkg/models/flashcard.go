package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type EnrichmentStatus int

const (
	NotNeeded EnrichmentStatus = iota
	NeedsCloze
	NeedsRephrase
	Enriched
	EnrichmentFailed
)

func (s EnrichmentStatus) String() string {
	switch s {
	case NotNeeded:
		return "not-needed"
	case NeedsCloze:
		return "needs-cloze"
	case NeedsRephrase:
		return "needs-rephrase"
	case Enriched:
		return "enriched"
	case EnrichmentFailed:
		return "enrichment-failed"
	}
	return fmt.Sprintf("EnrichmentStatus(%d)", int(s))
}

// Pending reports whether the card is still waiting on the enrichment pipeline.
func (s EnrichmentStatus) Pending() bool {
	return s == NeedsCloze || s == NeedsRephrase
}

// LineRange is a zero-based, half-open range of lines in a card file.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r LineRange) Len() int {
	return r.End - r.Start
}

func (r LineRange) Shift(delta int) LineRange {
	return LineRange{Start: r.Start + delta, End: r.End + delta}
}

type Content interface {
	isContent()
}

type Basic struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Cloze struct {
	Text   string      `json:"text"`
	Hidden *ClozeRange `json:"hidden,omitempty"`
}

func (Basic) isContent() {}
func (Cloze) isContent() {}

// ClozeRange holds byte offsets of the opening '[' and one past the closing ']'.
type ClozeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func NewClozeRange(start, end int) (ClozeRange, error) {
	if start >= end {
		return ClozeRange{}, fmt.Errorf("invalid cloze range: start %d must be before end %d", start, end)
	}
	if end-start <= 2 {
		return ClozeRange{}, fmt.Errorf("invalid cloze range: hidden text must not be empty")
	}
	return ClozeRange{Start: start, End: end}, nil
}

// FindClozeRanges returns every bracketed span in text, outermost '[' to the next ']'.
func FindClozeRanges(text string) []ClozeRange {
	var ranges []ClozeRange
	start := -1
	for i, ch := range text {
		switch {
		case ch == '[' && start < 0:
			start = i
		case ch == ']' && start >= 0:
			ranges = append(ranges, ClozeRange{Start: start, End: i + utf8.RuneLen(ch)})
			start = -1
		}
	}
	return ranges
}

// FirstClozeRange returns the first valid hidden range of text, if any.
func FirstClozeRange(text string) (*ClozeRange, error) {
	ranges := FindClozeRanges(text)
	if len(ranges) == 0 {
		return nil, nil
	}
	r, err := NewClozeRange(ranges[0].Start, ranges[0].End)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Masked hides the cloze deletion behind underscores, e.g. "[___]".
func (c Cloze) Masked() string {
	if c.Hidden == nil {
		return c.Text
	}
	start, end := c.Hidden.Start, c.Hidden.End
	if start < 0 || end > len(c.Text) || start+1 > end-1 {
		return c.Text
	}
	hidden := c.Text[start+1 : end-1]
	width := utf8.RuneCountInString(hidden)
	if width < 3 {
		width = 3
	}
	return c.Text[:start] + "[" + strings.Repeat("_", width) + "]" + c.Text[end:]
}

type Card struct {
	Path        string           `json:"path"`
	Range       LineRange        `json:"range"`
	Content     Content          `json:"content"`
	Fingerprint string           `json:"fingerprint"`
	Enrichment  EnrichmentStatus `json:"enrichment"`
}

func (c Card) IsCloze() bool {
	_, ok := c.Content.(Cloze)
	return ok
}

// Incomplete reports whether the card is a cloze without a detected deletion.
func (c Card) Incomplete() bool {
	cloze, ok := c.Content.(Cloze)
	return ok && cloze.Hidden == nil
}

func SameCard(a, b Card) bool {
	return a.Fingerprint != "" && a.Fingerprint == b.Fingerprint
}

// EditText renders the card back into the Q:/A:/C: source form.
func (c Card) EditText() string {
	switch content := c.Content.(type) {
	case Basic:
		lines := prefixedLines("Q: ", content.Question)
		lines = append(lines, prefixedLines("A: ", content.Answer)...)
		return strings.Join(lines, "\n")
	case Cloze:
		return strings.Join(prefixedLines("C: ", content.Text), "\n")
	}
	return ""
}

// DisplayText renders the card for review, hiding the answer until revealed.
func (c Card) DisplayText(revealed bool) string {
	switch content := c.Content.(type) {
	case Basic:
		text := "Q:\n" + content.Question + "\n\nA:\n"
		if revealed {
			text += content.Answer
		}
		return text
	case Cloze:
		if revealed {
			return "C:\n" + content.Text
		}
		return "C:\n" + content.Masked()
	}
	return ""
}

func prefixedLines(prefix, text string) []string {
	parts := strings.Split(text, "\n")
	parts[0] = prefix + parts[0]
	return parts
}
