// Package store implements the durable local cache: CRUD over lists, items
// and sync metadata, backed by SQLite. It is pure storage with no sync or
// routing logic.
//
// The store is a client-side cache, not a system of record: a schema
// version bump may discard previously persisted data.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
	"shoplist/internal/dbx"
	"shoplist/internal/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the SQLite handle and exposes per-collection repositories.
//
// A Store opened with an empty DSN is disabled: reads degrade to empty
// results and writes fail with common.ErrStoreUnavailable. This keeps the
// client usable in contexts without a storage engine (tests, ephemeral
// environments).
type Store struct {
	dsn string
	db  *sql.DB
	log logging.Logger

	group singleflight.Group

	lists *ListRepo
	items *ItemRepo
	meta  *MetaRepo
	kv    *KVRepo
}

// Open prepares a Store for the given DSN without touching the database.
// Call Init before first use.
func Open(dsn string, log logging.Logger) *Store {
	s := &Store{dsn: dsn, log: log}
	s.lists = &ListRepo{s: s}
	s.items = &ItemRepo{s: s}
	s.meta = &MetaRepo{s: s}
	s.kv = &KVRepo{s: s}
	return s
}

// Init opens the database and applies embedded migrations. It is idempotent
// and safe to call concurrently: racing callers are collapsed into a single
// real initialization and all of them observe its result.
func (s *Store) Init(ctx context.Context) error {
	if s.dsn == "" {
		return nil
	}
	_, err, _ := s.group.Do("init", func() (any, error) {
		if s.db != nil {
			return nil, nil
		}
		db, err := sql.Open("sqlite", dbDSN(s.dsn))
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping db: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		s.db = db
		return nil, nil
	})
	return err
}

// dbDSN appends the standard connection pragmas unless the caller already
// supplied query options.
func dbDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return goose.UpContext(ctx, db, "migrations")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// available reports whether the storage engine is ready for use.
func (s *Store) available() bool {
	return s.db != nil
}

// readFailed logs a read-path storage error. Read errors are swallowed and
// treated as "no data"; they are never surfaced to the user.
func (s *Store) readFailed(ctx context.Context, op string, err error) {
	if s.log != nil {
		s.log.Warn(ctx, "local store read failed", "op", op, "error", err)
	}
}

// MarkListDeleted tombstones a list together with all of its items in one
// transaction. A crash between the two writes could otherwise leave
// visible items under a list that is already pending delete.
func (s *Store) MarkListDeleted(ctx context.Context, listID string, now time.Time) error {
	if !s.available() {
		return common.ErrStoreUnavailable
	}
	op := string(models.OpDelete)
	ms := now.UnixMilli()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lists SET pending=1, pending_op=?, last_modified=? WHERE id=?`, op, ms, listID); err != nil {
			return fmt.Errorf("failed to tombstone list: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET pending=1, pending_op=?, last_modified=? WHERE list_id=?`, op, ms, listID); err != nil {
			return fmt.Errorf("failed to tombstone items of list: %w", err)
		}
		return nil
	})
}

// Lists returns the list collection repository.
func (s *Store) Lists() *ListRepo { return s.lists }

// Items returns the item collection repository.
func (s *Store) Items() *ItemRepo { return s.items }

// Meta returns the per-user sync watermark repository.
func (s *Store) Meta() *MetaRepo { return s.meta }

// KV returns the generic key-value repository used for session state.
func (s *Store) KV() *KVRepo { return s.kv }
