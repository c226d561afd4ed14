// Package store persists the latest review performance of every card in
// SQLite, keyed by fingerprint.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kpauljoseph/repeater/internal/due"
	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/models"
)

type Store struct {
	db     *sql.DB
	path   string
	engine *scheduler.Engine
	logger *logger.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithEngine(engine *scheduler.Engine) Option {
	return func(s *Store) {
		s.engine = engine
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock overrides the time used for added_at and the due horizon.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, path string, options ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.engine == nil {
		engine, err := scheduler.NewEngine()
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %w", ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			s.logger.Debug("Failed to apply %q: %v", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %w", ErrStoreUnavailable, err)
	}

	s.db = db
	s.logger.Debug("Opened card store at %s", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// AddCardsBatch registers cards as New, leaving existing rows untouched.
func (s *Store) AddCardsBatch(ctx context.Context, cards []models.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("add cards", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO cards (card_hash, added_at) VALUES (?, ?)`)
	if err != nil {
		return unavailable("add cards", err)
	}
	defer stmt.Close()

	addedAt := formatTime(s.now())
	for _, card := range cards {
		if _, err := stmt.ExecContext(ctx, card.Fingerprint, addedAt); err != nil {
			return unavailable("add cards", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("add cards", err)
	}
	s.logger.Debug("Registered %d cards", len(cards))
	return nil
}

func (s *Store) CardExists(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cards WHERE card_hash = ?`, fingerprint).Scan(&count)
	if err != nil {
		return false, unavailable("card exists", err)
	}
	return count > 0, nil
}

// GetPerformance returns NewCard for fingerprints the store has never seen.
func (s *Store) GetPerformance(ctx context.Context, fingerprint string) (scheduler.Performance, error) {
	return getPerformance(ctx, s.db, fingerprint)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPerformance(ctx context.Context, q queryer, fingerprint string) (scheduler.Performance, error) {
	var row performanceRow
	err := q.QueryRowContext(ctx, `
		SELECT review_stage, last_reviewed_at, stability, difficulty,
		       interval_raw, interval_days, due_date, review_count
		FROM cards WHERE card_hash = ?`, fingerprint).Scan(
		&row.stage, &row.lastReviewedAt, &row.stability, &row.difficulty,
		&row.intervalRaw, &row.intervalDays, &row.dueDate, &row.reviewCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return scheduler.NewCard{}, nil
	}
	if err != nil {
		return nil, unavailable("get performance", err)
	}
	p, err := row.performance()
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", fingerprint, err)
	}
	return p, nil
}

// UpdatePerformance grades a card, persists the next performance and
// returns its raw interval in days.
func (s *Store) UpdatePerformance(ctx context.Context, fingerprint string, grade scheduler.Grade, now time.Time) (float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("update performance", err)
	}
	defer tx.Rollback()

	current, err := getPerformance(ctx, tx, fingerprint)
	if err != nil {
		return 0, err
	}

	next := s.engine.Transition(current, grade, now)
	stats, ok := scheduler.Stats(next)
	if !ok {
		return 0, fmt.Errorf("transition of %s returned a new card", fingerprint)
	}
	stage, err := next.Stage().MarshalText()
	if err != nil {
		return 0, err
	}

	var stability, difficulty sql.NullFloat64
	if mem, ok := scheduler.MemoryOf(next); ok {
		stability = sql.NullFloat64{Float64: mem.Stability, Valid: true}
		difficulty = sql.NullFloat64{Float64: mem.Difficulty, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (
			card_hash, added_at, review_stage, last_reviewed_at, stability, difficulty,
			interval_raw, interval_days, due_date, review_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (card_hash) DO UPDATE SET
			review_stage = excluded.review_stage,
			last_reviewed_at = excluded.last_reviewed_at,
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			interval_raw = excluded.interval_raw,
			interval_days = excluded.interval_days,
			due_date = excluded.due_date,
			review_count = excluded.review_count`,
		fingerprint, formatTime(now), string(stage), formatTime(stats.LastReviewedAt), stability, difficulty,
		stats.IntervalRaw, stats.IntervalDays, formatTime(stats.DueDate), stats.ReviewCount,
	)
	if err != nil {
		return 0, unavailable("update performance", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("update performance", err)
	}

	s.logger.Debug("Graded %s %s: %s, due %s", shortHash(fingerprint), grade, next.Stage(), stats.DueDate.Format(time.RFC3339))
	return stats.IntervalRaw, nil
}

// DueToday streams due rows, most overdue first and new cards last, through
// the due selector. A nil limit is unbounded.
func (s *Store) DueToday(ctx context.Context, known map[string]models.Card, cardLimit, newCardLimit *int) ([]models.Card, error) {
	selector := due.NewSelector(known, due.Limits{Cards: cardLimit, NewCards: newCardLimit})
	if selector.Full() {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_hash, review_stage, due_date
		FROM cards
		WHERE due_date <= ? OR review_stage = 'New'
		ORDER BY
			CASE WHEN review_stage = 'New' THEN 1 ELSE 0 END,
			due_date ASC`,
		formatTime(due.Horizon(s.now())),
	)
	if err != nil {
		return nil, unavailable("due today", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       due.Candidate
			stage   string
			dueDate sql.NullString
		)
		if err := rows.Scan(&c.Fingerprint, &stage, &dueDate); err != nil {
			return nil, unavailable("due today", err)
		}
		if err := c.Stage.UnmarshalText([]byte(stage)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptRow, err)
		}
		if c.DueDate, err = parseNullTime(dueDate); err != nil {
			return nil, err
		}
		if !selector.Offer(c) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("due today", err)
	}

	cards := selector.Cards()
	s.logger.Debug("Selected %d due cards out of %d known", len(cards), len(known))
	return cards, nil
}

// RenameFingerprint moves a card's review history to its new fingerprint.
// If the old fingerprint was never stored the new one starts fresh.
func (s *Store) RenameFingerprint(ctx context.Context, oldFingerprint, newFingerprint string) error {
	if oldFingerprint == newFingerprint {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE cards SET card_hash = ? WHERE card_hash = ?`, newFingerprint, oldFingerprint)
	if err != nil {
		return unavailable("rename fingerprint", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO cards (card_hash, added_at) VALUES (?, ?)`, newFingerprint, formatTime(s.now()))
	if err != nil {
		return unavailable("rename fingerprint", err)
	}
	return nil
}

func shortHash(fingerprint string) string {
	if len(fingerprint) > 8 {
		return fingerprint[:8]
	}
	return fingerprint
}
