package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppState holds daemon bookkeeping timestamps persisted across restarts.
type AppState struct {
	LastCatalogSync *time.Time
	LastFeedScan    *time.Time
}

// AppState fetches the bookkeeping row.
func (s *Store) AppState(ctx context.Context) (*AppState, error) {
	var (
		syncRaw sql.NullString
		scanRaw sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT last_catalog_sync, last_feed_scan FROM app_config WHERE id = 1",
	).Scan(&syncRaw, &scanRaw)
	if err == sql.ErrNoRows {
		if _, seedErr := s.db.ExecContext(ctx, "INSERT INTO app_config (id) VALUES (1)"); seedErr != nil {
			return nil, fmt.Errorf("seed app config: %w", seedErr)
		}
		return &AppState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app state: %w", err)
	}

	state := &AppState{}
	if syncRaw.Valid {
		if t, parseErr := parseTimeString(syncRaw.String); parseErr == nil {
			state.LastCatalogSync = &t
		}
	}
	if scanRaw.Valid {
		if t, parseErr := parseTimeString(scanRaw.String); parseErr == nil {
			state.LastFeedScan = &t
		}
	}
	return state, nil
}

// TouchCatalogSync records the time of the latest successful catalog sync.
func (s *Store) TouchCatalogSync(ctx context.Context, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE app_config SET last_catalog_sync = ? WHERE id = 1",
		formatTime(at),
	); err != nil {
		return fmt.Errorf("touch catalog sync: %w", err)
	}
	return nil
}

// TouchFeedScan records the time of the latest successful feed scan.
func (s *Store) TouchFeedScan(ctx context.Context, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE app_config SET last_feed_scan = ? WHERE id = 1",
		formatTime(at),
	); err != nil {
		return fmt.Errorf("touch feed scan: %w", err)
	}
	return nil
}
