package scheduler

import "time"

// SchedulingStats is the bookkeeping shared by every reviewed stage.
type SchedulingStats struct {
	LastReviewedAt time.Time
	ReviewCount    int
	IntervalRaw    float64 // days, fractional
	IntervalDays   int
	DueDate        time.Time
}

// Memory is the FSRS memory state of a card.
type Memory struct {
	Stability  float64
	Difficulty float64
}

type FsrsStats struct {
	Memory
	SchedulingStats
}

// Performance is one of NewCard, LearningA, LearningB or Review. The stage
// is carried by the concrete type so it can never disagree with the payload.
type Performance interface {
	Stage() Stage
	isPerformance()
}

type NewCard struct{}

// LearningA is the one minute learning step. Lapsed holds the memory of a
// card that was demoted out of Review and is relearning.
type LearningA struct {
	SchedulingStats
	Lapsed *Memory
}

// LearningB is the ten minute learning step.
type LearningB struct {
	SchedulingStats
	Lapsed *Memory
}

type Review struct {
	FsrsStats
}

func (NewCard) Stage() Stage   { return StageNew }
func (LearningA) Stage() Stage { return StageLearningA }
func (LearningB) Stage() Stage { return StageLearningB }
func (Review) Stage() Stage    { return StageReview }

func (NewCard) isPerformance()   {}
func (LearningA) isPerformance() {}
func (LearningB) isPerformance() {}
func (Review) isPerformance()    {}

// Stats returns the scheduling bookkeeping of p; ok is false for NewCard.
func Stats(p Performance) (SchedulingStats, bool) {
	switch v := p.(type) {
	case LearningA:
		return v.SchedulingStats, true
	case LearningB:
		return v.SchedulingStats, true
	case Review:
		return v.SchedulingStats, true
	}
	return SchedulingStats{}, false
}

// MemoryOf returns the FSRS memory carried by p, if any.
func MemoryOf(p Performance) (Memory, bool) {
	switch v := p.(type) {
	case Review:
		return v.Memory, true
	case LearningA:
		if v.Lapsed != nil {
			return *v.Lapsed, true
		}
	case LearningB:
		if v.Lapsed != nil {
			return *v.Lapsed, true
		}
	}
	return Memory{}, false
}

// Interval returns the effective time until the card is due again.
func Interval(p Performance) time.Duration {
	stats, ok := Stats(p)
	if !ok {
		return 0
	}
	return stats.DueDate.Sub(stats.LastReviewedAt)
}
