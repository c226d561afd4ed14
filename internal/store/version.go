package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kpauljoseph/repeater/pkg/updater"
)

func (s *Store) VersionCheck(ctx context.Context) (updater.CheckHistory, error) {
	var prompted, checked sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT last_prompted_at, last_version_check_at FROM version_update WHERE id = 1`,
	).Scan(&prompted, &checked)
	if errors.Is(err, sql.ErrNoRows) {
		return updater.CheckHistory{}, nil
	}
	if err != nil {
		return updater.CheckHistory{}, unavailable("version check", err)
	}

	var info updater.CheckHistory
	if info.LastPromptedAt, err = parseNullTime(prompted); err != nil {
		return updater.CheckHistory{}, err
	}
	if info.LastVersionCheckAt, err = parseNullTime(checked); err != nil {
		return updater.CheckHistory{}, err
	}
	return info, nil
}

func (s *Store) RecordVersionCheck(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO version_update (id, last_version_check_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_version_check_at = excluded.last_version_check_at`,
		formatTime(at))
	if err != nil {
		return unavailable("record version check", err)
	}
	return nil
}

func (s *Store) RecordPrompt(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO version_update (id, last_prompted_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_prompted_at = excluded.last_prompted_at`,
		formatTime(at))
	if err != nil {
		return unavailable("record prompt", err)
	}
	return nil
}
