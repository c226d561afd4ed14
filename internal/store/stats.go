package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/models"
)

type Lifecycle int

const (
	LifecycleNew Lifecycle = iota
	LifecycleLearning
	LifecycleYoung
	LifecycleMature
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleNew:
		return "New"
	case LifecycleLearning:
		return "Learning"
	case LifecycleYoung:
		return "Young"
	case LifecycleMature:
		return "Mature"
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}

// matureInterval is the raw interval in days past which a card is mature.
const matureInterval = 21.0

const histogramBins = 5

// Histogram buckets values in [0, 1] into equal-width bins.
type Histogram struct {
	Bins  [histogramBins]int
	Count int
	Sum   float64
}

func (h *Histogram) Add(value float64) {
	v := value
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	idx := int(v * histogramBins)
	if idx >= histogramBins {
		idx = histogramBins - 1
	}
	h.Bins[idx]++
	h.Count++
	h.Sum += value
}

func (h *Histogram) Mean() float64 {
	if h.Count == 0 {
		return 0
	}
	return h.Sum / float64(h.Count)
}

// CollectionStats summarizes the cards found on disk against their stored
// review state.
type CollectionStats struct {
	TotalInStore   int
	NumCards       int
	Lifecycles     map[Lifecycle]int
	DueNow         int
	UpcomingWeek   map[string]int
	UpcomingMonth  int
	Files          map[string]int
	Difficulty     Histogram
	Retrievability Histogram
}

type statsRow struct {
	fingerprint    string
	stage          scheduler.Stage
	dueDate        time.Time
	intervalRaw    float64
	difficulty     float64
	stability      float64
	lastReviewedAt time.Time
}

func newCollectionStats(numCards int) CollectionStats {
	return CollectionStats{
		NumCards:     numCards,
		Lifecycles:   map[Lifecycle]int{},
		UpcomingWeek: map[string]int{},
		Files:        map[string]int{},
	}
}

func (c *CollectionStats) add(card models.Card, row statsRow, now time.Time) {
	c.Files[card.Path]++

	switch {
	case row.stage == scheduler.StageNew:
		c.Lifecycles[LifecycleNew]++
	case row.stage.Learning():
		c.Lifecycles[LifecycleLearning]++
	case row.intervalRaw > matureInterval:
		c.Lifecycles[LifecycleMature]++
	default:
		c.Lifecycles[LifecycleYoung]++
	}

	today := now.Format(time.DateOnly)
	switch {
	case row.dueDate.IsZero() || !row.dueDate.After(now):
		c.DueNow++
		c.UpcomingWeek[today]++
		c.UpcomingMonth++
	default:
		if !row.dueDate.After(now.AddDate(0, 0, 7)) {
			c.UpcomingWeek[row.dueDate.In(now.Location()).Format(time.DateOnly)]++
		}
		if !row.dueDate.After(now.AddDate(0, 0, 30)) {
			c.UpcomingMonth++
		}
	}

	c.Difficulty.Add(row.difficulty / 10)
	if row.lastReviewedAt.IsZero() || row.stability <= 0 {
		return
	}
	elapsed := now.Sub(row.lastReviewedAt).Hours() / 24
	c.Retrievability.Add(scheduler.Recall(elapsed, row.stability))
}

// CollectionStats reports lifecycle counts, upcoming load and memory
// histograms for the known cards.
func (s *Store) CollectionStats(ctx context.Context, known map[string]models.Card) (CollectionStats, error) {
	now := s.now()
	stats := newCollectionStats(len(known))

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_hash, review_stage, due_date, interval_raw, difficulty, stability, last_reviewed_at
		FROM cards`)
	if err != nil {
		return stats, unavailable("collection stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row                               statsRow
			stage                             string
			dueDate, lastReviewed             sql.NullString
			intervalRaw, difficulty, stability sql.NullFloat64
		)
		if err := rows.Scan(&row.fingerprint, &stage, &dueDate, &intervalRaw, &difficulty, &stability, &lastReviewed); err != nil {
			return stats, unavailable("collection stats", err)
		}
		stats.TotalInStore++

		card, ok := known[row.fingerprint]
		if !ok {
			continue
		}
		if err := row.stage.UnmarshalText([]byte(stage)); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrCorruptRow, err)
		}
		if row.dueDate, err = parseNullTime(dueDate); err != nil {
			return stats, err
		}
		if row.lastReviewedAt, err = parseNullTime(lastReviewed); err != nil {
			return stats, err
		}
		row.intervalRaw = intervalRaw.Float64
		row.difficulty = difficulty.Float64
		row.stability = stability.Float64
		stats.add(card, row, now)
	}
	if err := rows.Err(); err != nil {
		return stats, unavailable("collection stats", err)
	}
	return stats, nil
}
