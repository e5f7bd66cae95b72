package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shoplist/internal/common"
)

// MetaRepo persists the per-user sync watermark: the timestamp used to ask
// the remote service for "anything changed since".
type MetaRepo struct {
	s *Store
}

// LastSync returns the stored watermark for userID, or the zero time when
// the user has never completed a pull.
func (r *MetaRepo) LastSync(ctx context.Context, userID string) (time.Time, error) {
	if !r.s.available() {
		return time.Time{}, nil
	}
	var ms int64
	err := r.s.db.QueryRowContext(ctx,
		`SELECT last_sync FROM sync_metadata WHERE user_id=?`, userID).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		r.s.readFailed(ctx, "meta.lastSync", err)
		return time.Time{}, nil
	}
	if ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// SetLastSync advances the watermark for userID.
func (r *MetaRepo) SetLastSync(ctx context.Context, userID string, t time.Time) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (user_id, last_sync) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_sync = excluded.last_sync
	`, userID, t.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}
	return nil
}

// KVRepo is a generic key-value table used for small client state such as
// the persisted session.
type KVRepo struct {
	s *Store
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if !r.s.available() {
		return nil, nil
	}
	var value []byte
	err := r.s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.s.readFailed(ctx, "kv.get", err)
		return nil, nil
	}
	return value, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	if _, err := r.s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
