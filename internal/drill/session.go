// Package drill holds the review queue of a single drill session.
//
// A Session is not safe for concurrent use. Background work reaches it
// through Messages on the inbox, which the owning goroutine drains.
package drill

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

type State int

const (
	Reviewing State = iota
	Revealed
	Complete
)

func (s State) String() string {
	switch s {
	case Reviewing:
		return "reviewing"
	case Revealed:
		return "revealed"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Grader persists a grade and returns the card's next raw interval in days.
type Grader interface {
	UpdatePerformance(ctx context.Context, fingerprint string, grade scheduler.Grade, now time.Time) (float64, error)
}

type Session struct {
	id     string
	grader Grader
	logger *logger.Logger
	now    func() time.Time
	inbox  <-chan Message

	primary []models.Card
	redo    []models.Card
	queued  map[string]bool
	cursor  int

	revealed bool
	last     *LastGrade
	err      error
}

type Option func(*Session)

// WithShuffle shuffles the initial queue once with a seeded source.
func WithShuffle(seed uint64) Option {
	return func(s *Session) {
		r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		r.Shuffle(len(s.primary), func(i, j int) {
			s.primary[i], s.primary[j] = s.primary[j], s.primary[i]
		})
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func WithInbox(inbox <-chan Message) Option {
	return func(s *Session) {
		s.inbox = inbox
	}
}

func New(cards []models.Card, grader Grader, options ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		grader:  grader,
		logger:  logger.Nop(),
		now:     time.Now,
		primary: append([]models.Card(nil), cards...),
		queued:  make(map[string]bool),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger.Debug("Drill session %s started with %d cards", s.id, len(s.primary))
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	switch {
	case s.err != nil || s.cursor >= len(s.primary):
		return Complete
	case s.revealed:
		return Revealed
	}
	return Reviewing
}

// Err is the error that ended the session early, if any.
func (s *Session) Err() error {
	return s.err
}

// Queue returns the cards of the current pass in review order.
func (s *Session) Queue() []models.Card {
	return append([]models.Card(nil), s.primary...)
}

func (s *Session) Current() (models.Card, bool) {
	if s.State() == Complete {
		return models.Card{}, false
	}
	return s.primary[s.cursor], true
}

// Position is the 1-based index of the current card in this pass.
func (s *Session) Position() (index, total, redo int) {
	return s.cursor + 1, len(s.primary), len(s.redo)
}

// AwaitingEnrichment reports whether the current card blocks on the
// enrichment pipeline.
func (s *Session) AwaitingEnrichment() bool {
	card, ok := s.Current()
	return ok && card.Enrichment.Pending()
}

func (s *Session) ready() error {
	if s.State() == Complete {
		return ErrComplete
	}
	if s.AwaitingEnrichment() {
		return ErrAwaitingEnrichment
	}
	return nil
}

func (s *Session) Reveal() error {
	if err := s.ready(); err != nil {
		return err
	}
	s.revealed = true
	return nil
}

// Grade records the grade of the revealed current card and advances. A
// failed card, or one due again within the learn-ahead threshold, is
// queued for the redo pass.
func (s *Session) Grade(ctx context.Context, grade scheduler.Grade) (LastGrade, error) {
	if err := s.ready(); err != nil {
		return LastGrade{}, err
	}
	if !s.revealed {
		return LastGrade{}, ErrNotRevealed
	}

	card := s.primary[s.cursor]
	now := s.now()
	raw, err := s.grader.UpdatePerformance(ctx, card.Fingerprint, grade, now)
	if err != nil {
		s.err = fmt.Errorf("failed to record grade: %w", err)
		return LastGrade{}, s.err
	}

	if grade == scheduler.Fail || raw < scheduler.LearnAheadThreshold.Minutes()/minutesPerDay {
		s.queueRedo(card)
	}

	last := LastGrade{Grade: grade, IntervalRaw: raw, At: now}
	s.last = &last
	s.logger.Debug("Graded %s: %s", card.Path, last)
	s.advance()
	return last, nil
}

func (s *Session) queueRedo(card models.Card) {
	if s.queued[card.Fingerprint] {
		return
	}
	s.queued[card.Fingerprint] = true
	s.redo = append(s.redo, card)
}

func (s *Session) advance() {
	s.cursor++
	s.revealed = false
	if s.cursor < len(s.primary) || len(s.redo) == 0 {
		return
	}
	s.primary, s.redo = s.redo, nil
	s.queued = make(map[string]bool)
	s.cursor = 0
	s.logger.Debug("Starting redo pass with %d cards", len(s.primary))
}

// LastGrade returns the most recent grade while it is inside the feedback
// window.
func (s *Session) LastGrade() (LastGrade, bool) {
	if s.last == nil || s.now().Sub(s.last.At) >= FeedbackWindow {
		return LastGrade{}, false
	}
	return *s.last, true
}

// Drain applies every message waiting in the inbox without blocking and
// returns how many were applied.
func (s *Session) Drain() int {
	if s.inbox == nil {
		return 0
	}
	n := 0
	for {
		select {
		case msg, ok := <-s.inbox:
			if !ok {
				s.inbox = nil
				return n
			}
			s.Apply(msg)
			n++
		default:
			return n
		}
	}
}

func (s *Session) Apply(msg Message) {
	switch m := msg.(type) {
	case EnrichmentResult:
		s.applyEnrichment(m)
	case PipelineDone:
		if m.Err != nil && s.err == nil {
			s.err = m.Err
			s.logger.Error("Enrichment stopped: %v", m.Err)
		}
	case FileChanged:
		s.applyFileChange(m)
	}
}

func (s *Session) each(fn func(*models.Card)) {
	for i := range s.primary {
		fn(&s.primary[i])
	}
	for i := range s.redo {
		fn(&s.redo[i])
	}
}

func (s *Session) applyEnrichment(res EnrichmentResult) {
	s.each(func(card *models.Card) {
		if card.Fingerprint != res.Fingerprint || !card.Enrichment.Pending() {
			return
		}
		if res.Err != nil {
			card.Enrichment = models.EnrichmentFailed
			return
		}
		card.Content = res.Card.Content
		card.Enrichment = models.Enriched
	})
	if res.Err != nil {
		s.logger.Warn("Could not enrich card %s: %v", res.Fingerprint, res.Err)
	}
}

// applyFileChange relocates queued cards from the changed file. Only an
// unambiguous fingerprint match moves a card.
func (s *Session) applyFileChange(change FileChanged) {
	matches := make(map[string][]models.Card)
	for _, c := range change.Cards {
		matches[c.Fingerprint] = append(matches[c.Fingerprint], c)
	}
	s.each(func(card *models.Card) {
		if card.Path != change.Path {
			return
		}
		if found := matches[card.Fingerprint]; len(found) == 1 {
			card.Range = found[0].Range
		}
	})
}

// ApplyEdit replaces every queued copy of oldFingerprint in card.Path with
// card, and shifts the cards of that file that sit after oldRange by delta
// lines.
func (s *Session) ApplyEdit(card models.Card, oldFingerprint string, oldRange models.LineRange, delta int) {
	edited := func(c models.Card) bool {
		return c.Path == card.Path && c.Fingerprint == oldFingerprint
	}
	if cur, ok := s.Current(); ok && edited(cur) {
		s.revealed = false
	}
	if s.queued[oldFingerprint] && card.Fingerprint != oldFingerprint {
		delete(s.queued, oldFingerprint)
		s.queued[card.Fingerprint] = true
	}
	s.each(func(c *models.Card) {
		if c.Path != card.Path {
			return
		}
		if edited(*c) {
			*c = card
			return
		}
		if delta != 0 && c.Range.Start >= oldRange.End {
			c.Range = c.Range.Shift(delta)
		}
	})
}
