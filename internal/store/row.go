package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kpauljoseph/repeater/internal/scheduler"
)

type performanceRow struct {
	stage          string
	lastReviewedAt sql.NullString
	stability      sql.NullFloat64
	difficulty     sql.NullFloat64
	intervalRaw    sql.NullFloat64
	intervalDays   int
	dueDate        sql.NullString
	reviewCount    int
}

func (r performanceRow) performance() (scheduler.Performance, error) {
	var stage scheduler.Stage
	if err := stage.UnmarshalText([]byte(r.stage)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRow, err)
	}
	if stage == scheduler.StageNew || r.reviewCount == 0 {
		return scheduler.NewCard{}, nil
	}

	lastReviewed, err := parseNullTime(r.lastReviewedAt)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseNullTime(r.dueDate)
	if err != nil {
		return nil, err
	}
	if lastReviewed.IsZero() || dueDate.IsZero() || !r.intervalRaw.Valid {
		return nil, fmt.Errorf("%w: reviewed card is missing scheduling stats", ErrCorruptRow)
	}

	stats := scheduler.SchedulingStats{
		LastReviewedAt: lastReviewed,
		ReviewCount:    r.reviewCount,
		IntervalRaw:    r.intervalRaw.Float64,
		IntervalDays:   r.intervalDays,
		DueDate:        dueDate,
	}

	var mem *scheduler.Memory
	if r.stability.Valid && r.difficulty.Valid {
		mem = &scheduler.Memory{Stability: r.stability.Float64, Difficulty: r.difficulty.Float64}
	}

	switch stage {
	case scheduler.StageLearningA:
		return scheduler.LearningA{SchedulingStats: stats, Lapsed: mem}, nil
	case scheduler.StageLearningB:
		return scheduler.LearningB{SchedulingStats: stats, Lapsed: mem}, nil
	default:
		if mem == nil {
			return nil, fmt.Errorf("%w: review card is missing memory state", ErrCorruptRow)
		}
		return scheduler.Review{FsrsStats: scheduler.FsrsStats{Memory: *mem, SchedulingStats: stats}}, nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q: %w", ErrCorruptRow, s.String, err)
	}
	return t, nil
}
