package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
)

const itemColumns = `id, list_id, name, amount, unit, category, notes,
	image_url, checked, position, created_at, updated_at,
	last_modified, pending, pending_op`

// ItemRepo provides CRUD over locally cached items.
type ItemRepo struct {
	s *Store
}

// Get returns the record with the given id, or nil if it is absent or
// carries a pending-delete tombstone.
func (r *ItemRepo) Get(ctx context.Context, id string) (*models.Record[models.Item], error) {
	if !r.s.available() {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=? AND pending_op<>?`
	row := r.s.db.QueryRowContext(ctx, query, id, string(models.OpDelete))

	rec, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.s.readFailed(ctx, "items.get", err)
		return nil, nil
	}
	return rec, nil
}

// GetByList returns all non-tombstoned items of the given list. Ordering is
// unspecified; callers re-sort, typically by position then creation time.
func (r *ItemRepo) GetByList(ctx context.Context, listID string) ([]models.Record[models.Item], error) {
	if !r.s.available() {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE list_id=? AND pending_op<>?`
	rows, err := r.s.db.QueryContext(ctx, query, listID, string(models.OpDelete))
	if err != nil {
		r.s.readFailed(ctx, "items.getByList", err)
		return nil, nil
	}
	defer rows.Close()

	return collectItems(ctx, r.s, "items.getByList", rows)
}

// GetPending returns every record awaiting sync, tombstones included.
func (r *ItemRepo) GetPending(ctx context.Context) ([]models.Record[models.Item], error) {
	if !r.s.available() {
		return nil, nil
	}
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items WHERE pending=1`)
	if err != nil {
		r.s.readFailed(ctx, "items.getPending", err)
		return nil, nil
	}
	defer rows.Close()

	return collectItems(ctx, r.s, "items.getPending", rows)
}

// Put upserts a record keyed by id, overwriting it wholesale.
func (r *ItemRepo) Put(ctx context.Context, rec models.Record[models.Item]) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	query := `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			list_id = excluded.list_id,
			name = excluded.name,
			amount = excluded.amount,
			unit = excluded.unit,
			category = excluded.category,
			notes = excluded.notes,
			image_url = excluded.image_url,
			checked = excluded.checked,
			position = excluded.position,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_modified = excluded.last_modified,
			pending = excluded.pending,
			pending_op = excluded.pending_op`

	i := rec.Entity
	_, err := r.s.db.ExecContext(ctx, query,
		i.ID, i.ListID, i.Name, i.Amount, string(i.Unit), i.Category, i.Notes,
		i.ImageURL, boolToInt(i.Checked), i.Position,
		i.CreatedAt.UnixMilli(), i.UpdatedAt.UnixMilli(),
		rec.LastModified, boolToInt(rec.Pending), string(rec.PendingOp))
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// Delete physically removes a record. Used only after a confirmed sync.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	if _, err := r.s.db.ExecContext(ctx, `DELETE FROM items WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// DeleteByList physically removes all items of a list. Used to mirror a
// confirmed remote cascade delete.
func (r *ItemRepo) DeleteByList(ctx context.Context, listID string) error {
	if !r.s.available() {
		return common.ErrStoreUnavailable
	}
	if _, err := r.s.db.ExecContext(ctx, `DELETE FROM items WHERE list_id=?`, listID); err != nil {
		return fmt.Errorf("failed to delete items of list: %w", err)
	}
	return nil
}

func collectItems(ctx context.Context, s *Store, op string, rows *sql.Rows) ([]models.Record[models.Item], error) {
	var result []models.Record[models.Item]
	for rows.Next() {
		rec, err := scanItem(rows)
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

func scanItem(row rowScanner) (*models.Record[models.Item], error) {
	var (
		rec                  models.Record[models.Item]
		checked, pending     int
		unit, pendingOp      string
		createdAt, updatedAt int64
	)
	err := row.Scan(&rec.Entity.ID, &rec.Entity.ListID, &rec.Entity.Name,
		&rec.Entity.Amount, &unit, &rec.Entity.Category, &rec.Entity.Notes,
		&rec.Entity.ImageURL, &checked, &rec.Entity.Position,
		&createdAt, &updatedAt, &rec.LastModified, &pending, &pendingOp)
	if err != nil {
		return nil, err
	}

	rec.Entity.Unit = models.Unit(unit)
	rec.Entity.Checked = checked != 0
	rec.Entity.CreatedAt = time.UnixMilli(createdAt)
	rec.Entity.UpdatedAt = time.UnixMilli(updatedAt)
	rec.Pending = pending != 0
	rec.PendingOp = models.Op(pendingOp)
	return &rec, nil
}
