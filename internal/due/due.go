// Package due picks the working set of cards for a drill session from the
// ordered stream of due rows the store produces.
package due

import (
	"time"

	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/models"
)

// Candidate is a single row of the due stream.
type Candidate struct {
	Fingerprint string
	Stage       scheduler.Stage
	DueDate     time.Time
}

// Limits are soft ceilings; a nil limit is unbounded.
type Limits struct {
	Cards    *int
	NewCards *int
}

func Limit(n int) *int {
	return &n
}

// Horizon is the cutoff for due rows: anything due before now plus the
// learn-ahead threshold belongs to this session.
func Horizon(now time.Time) time.Time {
	return now.Add(scheduler.LearnAheadThreshold)
}

// IsDue reports whether a row at the given stage and due date is part of a
// session started at now.
func IsDue(stage scheduler.Stage, dueDate time.Time, now time.Time) bool {
	if stage == scheduler.StageNew {
		return true
	}
	return !dueDate.After(Horizon(now))
}

// Selector admits candidates in stream order until a limit is reached.
type Selector struct {
	known    map[string]models.Card
	limits   Limits
	cards    []models.Card
	newCount int
	done     bool
}

func NewSelector(known map[string]models.Card, limits Limits) *Selector {
	return &Selector{known: known, limits: limits}
}

// Offer considers the next candidate. It returns false once selection has
// finished and the caller should stop streaming.
func (s *Selector) Offer(c Candidate) bool {
	if s.done {
		return false
	}
	card, ok := s.known[c.Fingerprint]
	if !ok {
		return true
	}

	isNew := c.Stage == scheduler.StageNew
	if isNew && s.limits.NewCards != nil && s.newCount >= *s.limits.NewCards {
		// New rows sort last, so nothing admissible follows.
		s.done = true
		return false
	}

	s.cards = append(s.cards, card)
	if isNew {
		s.newCount++
	}
	if s.limits.Cards != nil && len(s.cards) >= *s.limits.Cards {
		s.done = true
		return false
	}
	return true
}

// Full reports whether the card limit is already zero or exhausted.
func (s *Selector) Full() bool {
	return s.done || (s.limits.Cards != nil && len(s.cards) >= *s.limits.Cards)
}

func (s *Selector) Cards() []models.Card {
	return s.cards
}

// Select runs an already ordered candidate list through a Selector.
func Select(known map[string]models.Card, candidates []Candidate, limits Limits) []models.Card {
	s := NewSelector(known, limits)
	if s.Full() {
		return nil
	}
	for _, c := range candidates {
		if !s.Offer(c) {
			break
		}
	}
	return s.Cards()
}
