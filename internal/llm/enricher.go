package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kpauljoseph/repeater/pkg/models"
)

var ErrNoClozeDeletion = errors.New("model output has no cloze deletion")

const clozeSystemPrompt = `You convert flashcards into Cloze deletions.
A Cloze deletion is denoted by square brackets: [hidden text].
Only add one Cloze deletion.`

const clozeUserPrompt = `Turn the following text into a Cloze card by inserting [] around the hidden portion.
Return the exact same text as below, but just with the addition of brackets around the Cloze deletion.
Highlight the part of the flashcard that is most critical for a studying user to be able to recall.
It can be a word or a small phrase. For example, given the following text:

C: Speech is produced in Broca's area.

A good response would be:

C: Speech is produced in [Broca's] area.

This is the text you should generate the Cloze deletion for:

`

const rephraseSystemPrompt = `You rewrite flashcard questions to be clearer while keeping the same fact and difficulty.
Never reveal the answer inside the question and keep the tone neutral.
If there is no clear way to rewrite the question, return the original question verbatim.`

// Enricher turns a Client into an enrichment provider.
type Enricher struct {
	client Client
}

func NewEnricher(client Client) *Enricher {
	return &Enricher{client: client}
}

func (e *Enricher) Enrich(ctx context.Context, card models.Card) (models.Card, error) {
	switch card.Enrichment {
	case models.NeedsCloze:
		return e.cloze(ctx, card)
	case models.NeedsRephrase:
		return e.rephrase(ctx, card)
	}
	return card, nil
}

func (e *Enricher) cloze(ctx context.Context, card models.Card) (models.Card, error) {
	content, ok := card.Content.(models.Cloze)
	if !ok {
		return card, fmt.Errorf("card at %s:%d is not a cloze card", card.Path, card.Range.Start+1)
	}

	output, err := e.client.Complete(ctx, clozeSystemPrompt, clozeUserPrompt+"C: "+content.Text)
	if err != nil {
		return card, fmt.Errorf("failed to synthesize cloze deletion: %w", err)
	}
	text := stripPrefix(output, "C:")

	hidden, err := models.FirstClozeRange(text)
	if err != nil {
		return card, fmt.Errorf("invalid cloze deletion in %q: %w", text, err)
	}
	if hidden == nil {
		return card, fmt.Errorf("%w: %q", ErrNoClozeDeletion, text)
	}

	card.Content = models.Cloze{Text: text, Hidden: hidden}
	card.Enrichment = models.Enriched
	return card, nil
}

func (e *Enricher) rephrase(ctx context.Context, card models.Card) (models.Card, error) {
	content, ok := card.Content.(models.Basic)
	if !ok {
		return card, fmt.Errorf("card at %s:%d is not a question card", card.Path, card.Range.Start+1)
	}

	prompt := fmt.Sprintf("Rewrite the question below so it is clearer, but keep the meaning the same.\n"+
		"Return only the rewritten question.\n\n"+
		"Question: %s\n"+
		"Answer (for context; do not reveal): %s", content.Question, content.Answer)

	output, err := e.client.Complete(ctx, rephraseSystemPrompt, prompt)
	if err != nil {
		return card, fmt.Errorf("failed to rephrase question: %w", err)
	}

	content.Question = stripPrefix(stripPrefix(output, "Question:"), "Q:")
	if content.Question == "" {
		return card, ErrEmptyResponse
	}
	card.Content = content
	card.Enrichment = models.Enriched
	return card, nil
}

func stripPrefix(text, prefix string) string {
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimPrefix(text, prefix))
}
