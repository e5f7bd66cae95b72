package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
)

const listColumns = `id, owner_id, name, description, archived, category_order,
	shared, share_code, created_by, created_at, updated_at,
	last_modified, pending, pending_op`

// ListRepo provides CRUD over locally cached lists.
type ListRepo struct {
	s *Store
}

// Get returns the record with the given id, or nil if it is absent or
// carries a pending-delete tombstone.
func (r *ListRepo) Get(ctx context.Context, id string) (*models.Record[models.List], error) {
	if !r.s.available() {
		return nil, nil
	}
	query := `SELECT ` + listColumns + ` FROM lists WHERE id=? AND pending_op<>?`
	row := r.s.db.QueryRowContext(ctx, query, id, string(models.OpDelete))

	rec, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.s.readFailed(ctx, "lists.get", err)
		return nil, nil
	}
	return rec, nil
}

// GetByOwner returns all non-tombstoned lists belonging to ownerID.
// Ordering is unspecified; callers re-sort as needed.
func (r *ListRepo) GetByOwner(ctx context.Context, ownerID string) ([]models.Record[models.List], error) {
	if !r.s.available() {
		return nil, nil
	}
	query := `SELECT ` + listColumns + ` FROM lists WHERE owner_id=? AND pending_op<>?`
	rows, err := r.s.db.QueryContext(ctx, query, ownerID, string(models.OpDelete))
	if err != nil {
		r.s.readFailed(ctx, "lists.getByOwner", err)
		return nil, nil
	}
	defer rows.Close()

	return collectLists(ctx, r.s, "lists.getByOwner", rows)
}

// GetPending returns every record awaiting sync, tombstones included.
func (r *ListRepo) GetPending(ctx context.Context) ([]models.Record[models.List], error) {
	if !r.s.available() {
		return nil, nil
	}
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+listColumns+` FROM lists WHERE pending=1`)
	if err != nil {
		r.s.readFailed(ctx, "lists.getPending", err)
		return nil, nil
	}
	defer rows.Close()

	return collectLists(ctx, r.s, "lists.getPending", rows)
}

// Put upserts a record keyed by id, overwriting it wholesale. No partial
// merge happens at this layer.
func (r *ListRepo) Put(ctx context.Context, rec models.Record[models.List]) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	order, err := encodeCategoryOrder(rec.Entity.CategoryOrder)
	if err != nil {
		return fmt.Errorf("encode category order: %w", err)
	}

	query := `INSERT INTO lists (` + listColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			description = excluded.description,
			archived = excluded.archived,
			category_order = excluded.category_order,
			shared = excluded.shared,
			share_code = excluded.share_code,
			created_by = excluded.created_by,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_modified = excluded.last_modified,
			pending = excluded.pending,
			pending_op = excluded.pending_op`

	l := rec.Entity
	_, err = r.s.db.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Name, l.Description, boolToInt(l.Archived), order,
		boolToInt(l.Shared), l.ShareCode, l.CreatedBy,
		l.CreatedAt.UnixMilli(), l.UpdatedAt.UnixMilli(),
		rec.LastModified, boolToInt(rec.Pending), string(rec.PendingOp))
	if err != nil {
		return fmt.Errorf("failed to upsert list: %w", err)
	}
	return nil
}

// Delete physically removes a record. Used only after a confirmed sync,
// never for user-facing deletes.
func (r *ListRepo) Delete(ctx context.Context, id string) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	if _, err := r.s.db.ExecContext(ctx, `DELETE FROM lists WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

func collectLists(ctx context.Context, s *Store, op string, rows *sql.Rows) ([]models.Record[models.List], error) {
	var result []models.Record[models.List]
	for rows.Next() {
		rec, err := scanList(rows)
		if err != nil {
			s.readFailed(ctx, op, err)
			return nil, nil
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		s.readFailed(ctx, op, err)
		return nil, nil
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*models.Record[models.List], error) {
	var (
		rec                       models.Record[models.List]
		archived, shared, pending int
		order, pendingOp          string
		createdAt, updatedAt      int64
	)
	err := row.Scan(&rec.Entity.ID, &rec.Entity.OwnerID, &rec.Entity.Name,
		&rec.Entity.Description, &archived, &order, &shared,
		&rec.Entity.ShareCode, &rec.Entity.CreatedBy, &createdAt, &updatedAt,
		&rec.LastModified, &pending, &pendingOp)
	if err != nil {
		return nil, err
	}

	rec.Entity.Archived = archived != 0
	rec.Entity.Shared = shared != 0
	rec.Entity.CreatedAt = time.UnixMilli(createdAt)
	rec.Entity.UpdatedAt = time.UnixMilli(updatedAt)
	rec.Pending = pending != 0
	rec.PendingOp = models.Op(pendingOp)

	rec.Entity.CategoryOrder, err = decodeCategoryOrder(order)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeCategoryOrder(order []string) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	b, err := json.Marshal(order)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCategoryOrder(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var order []string
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, err
	}
	return order, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
