package scheduler

import (
	"fmt"
	"time"
)

// Engine is the pure scheduling function. The zero value is not usable;
// construct one with NewEngine.
type Engine struct {
	weights   Weights
	retention float64
}

type Option func(*Engine)

func WithRetention(retention float64) Option {
	return func(e *Engine) {
		e.retention = retention
	}
}

func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

func NewEngine(options ...Option) (*Engine, error) {
	e := &Engine{
		weights:   DefaultWeights,
		retention: DefaultRetention,
	}
	for _, opt := range options {
		opt(e)
	}
	if err := ValidateRetention(e.retention); err != nil {
		return nil, err
	}
	return e, nil
}

func ValidateRetention(retention float64) error {
	if retention < MinRetention || retention > MaxRetention {
		return fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrInvalidRetention, retention, MinRetention, MaxRetention)
	}
	return nil
}

var defaultEngine = &Engine{weights: DefaultWeights, retention: DefaultRetention}

// Transition grades p at now with the default weights and 0.9 retention.
func Transition(p Performance, g Grade, now time.Time) Performance {
	return defaultEngine.Transition(p, g, now)
}

// Transition consumes the current performance and returns the next one.
// It never fails; a nil performance is treated as NewCard and an invalid
// grade as Fail.
func (e *Engine) Transition(p Performance, g Grade, now time.Time) Performance {
	if !g.IsValid() {
		g = Fail
	}
	if p == nil {
		p = NewCard{}
	}

	switch cur := p.(type) {
	case LearningA:
		if g == Pass {
			return LearningB{SchedulingStats: e.learningStats(cur.ReviewCount, LearningBStep, g, now), Lapsed: cur.Lapsed}
		}
		return LearningA{SchedulingStats: e.learningStats(cur.ReviewCount, LearningAStep, g, now), Lapsed: cur.Lapsed}
	case LearningB:
		if g == Pass {
			mem := Memory{
				Stability:  e.weights.initStability(Pass),
				Difficulty: e.weights.initDifficulty(Pass),
			}
			if cur.Lapsed != nil {
				mem = *cur.Lapsed
			}
			return e.review(mem, cur.ReviewCount, now)
		}
		return LearningA{SchedulingStats: e.learningStats(cur.ReviewCount, LearningAStep, g, now), Lapsed: cur.Lapsed}
	case Review:
		elapsed := now.Sub(cur.LastReviewedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		r := recall(elapsed.Hours()/24, cur.Stability)
		mem := Memory{
			Stability:  e.weights.nextStability(cur.Difficulty, cur.Stability, r, g),
			Difficulty: e.weights.nextDifficulty(cur.Difficulty, g),
		}
		if g == Fail {
			return LearningB{SchedulingStats: e.learningStats(cur.ReviewCount, LearningBStep, g, now), Lapsed: &mem}
		}
		return e.review(mem, cur.ReviewCount, now)
	default:
		if g == Pass {
			return LearningB{SchedulingStats: e.learningStats(0, LearningBStep, g, now)}
		}
		return LearningA{SchedulingStats: e.learningStats(0, LearningAStep, g, now)}
	}
}

func (e *Engine) learningStats(priorReviews int, step time.Duration, g Grade, now time.Time) SchedulingStats {
	if limit, ok := earlyCap(priorReviews, g); ok && limit < step {
		step = limit
	}
	return SchedulingStats{
		LastReviewedAt: now,
		ReviewCount:    priorReviews + 1,
		IntervalRaw:    step.Hours() / 24,
		IntervalDays:   int(step / day),
		DueDate:        now.Add(step),
	}
}

func (e *Engine) review(mem Memory, priorReviews int, now time.Time) Review {
	raw := intervalFor(mem.Stability, e.retention)
	days := clampInterval(raw)
	return Review{FsrsStats: FsrsStats{
		Memory: mem,
		SchedulingStats: SchedulingStats{
			LastReviewedAt: now,
			ReviewCount:    priorReviews + 1,
			IntervalRaw:    raw,
			IntervalDays:   days,
			DueDate:        now.Add(time.Duration(days) * day),
		},
	}}
}
