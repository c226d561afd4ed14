// Package enrich fills in AI-generated content for cards while a drill
// session is running.
package enrich

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

var (
	ErrEnrichmentFailed = errors.New("enrichment failed")
	// ErrProviderUnavailable marks provider errors that no other card
	// could recover from, such as a missing key or an unreachable service.
	ErrProviderUnavailable = errors.New("enrichment provider unavailable")
)

// MaxConcurrent is the number of provider calls in flight at once.
const MaxConcurrent = 4

type Provider interface {
	Enrich(ctx context.Context, card models.Card) (models.Card, error)
}

type Result struct {
	Fingerprint string
	Card        models.Card
	Err         error
}

// Emitter delivers a result; it returns an error once nobody is listening.
type Emitter func(ctx context.Context, res Result) error

// NeedsEnrichment classifies a card: incomplete clozes always need a
// deletion, basic cards need rephrasing only when asked for.
func NeedsEnrichment(card models.Card, rephrase bool) models.EnrichmentStatus {
	switch card.Content.(type) {
	case models.Cloze:
		if card.Incomplete() {
			return models.NeedsCloze
		}
	case models.Basic:
		if rephrase {
			return models.NeedsRephrase
		}
	}
	return models.NotNeeded
}

// Mark sets the enrichment status of every card and returns how many are
// pending.
func Mark(cards []models.Card, rephrase bool) int {
	pending := 0
	for i := range cards {
		cards[i].Enrichment = NeedsEnrichment(cards[i], rephrase)
		if cards[i].Enrichment.Pending() {
			pending++
		}
	}
	return pending
}

type Pipeline struct {
	provider Provider
	logger   *logger.Logger
	limit    int
}

type Option func(*Pipeline)

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

func NewPipeline(provider Provider, options ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		logger:   logger.Nop(),
		limit:    MaxConcurrent,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run submits pending cards to the provider in the given order and emits
// one result per card as requests complete. A provider error wrapping
// ErrProviderUnavailable cancels the remaining work. If ctx ends first
// Run returns ctx.Err() and undelivered results are dropped.
func (p *Pipeline) Run(ctx context.Context, cards []models.Card, emit Emitter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	submitted := 0
	for _, card := range cards {
		if !card.Enrichment.Pending() {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		submitted++
		g.Go(func() error {
			return p.enrich(gctx, card, emit)
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEnrichmentFailed, err)
	}
	p.logger.Debug("Enriched %d cards", submitted)
	return nil
}

func (p *Pipeline) enrich(ctx context.Context, card models.Card, emit Emitter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enriched, err := p.provider.Enrich(ctx, card)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("Enrichment of %s:%d failed: %v", card.Path, card.Range.Start+1, err)
		return emit(ctx, Result{Fingerprint: card.Fingerprint, Err: err})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	enriched.Fingerprint = card.Fingerprint
	return emit(ctx, Result{Fingerprint: card.Fingerprint, Card: enriched})
}

// InboxEmitter forwards results to a drill session inbox.
func InboxEmitter(inbox chan<- drill.Message) Emitter {
	return func(ctx context.Context, res Result) error {
		return drill.Send(ctx, inbox, drill.EnrichmentResult{
			Fingerprint: res.Fingerprint,
			Card:        res.Card,
			Err:         res.Err,
		})
	}
}

// Feed runs the pipeline into a session inbox and reports completion with
// a PipelineDone message. It blocks until the pipeline finishes.
func (p *Pipeline) Feed(ctx context.Context, cards []models.Card, inbox chan<- drill.Message) {
	err := p.Run(ctx, cards, InboxEmitter(inbox))
	if ctx.Err() != nil {
		return
	}
	_ = drill.Send(ctx, inbox, drill.PipelineDone{Err: err})
}
