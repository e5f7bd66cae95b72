package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shoplist/internal/common"
	"shoplist/internal/dbx"
	"shoplist/internal/server/models"
)

// ListRepository is the persistence contract for shopping lists. Every call
// is scoped to an owner; a list that exists but belongs to someone else
// behaves exactly like a missing one.
type ListRepository interface {
	Create(ctx context.Context, l *models.List) (*models.List, error)
	Get(ctx context.Context, ownerID, id string) (*models.List, error)
	ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.List, error)
	Update(ctx context.Context, l *models.List) (*models.List, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type PostgresListRepository struct {
	db dbx.DBTX
}

func NewPostgresListRepository(db dbx.DBTX) *PostgresListRepository {
	return &PostgresListRepository{db: db}
}

const listColumns = `id, owner_id, name, description, archived, category_order,
	shared, share_code, created_by, created_at, updated_at`

func (r *PostgresListRepository) Create(ctx context.Context, l *models.List) (*models.List, error) {
	order, err := marshalOrder(l.CategoryOrder)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO lists (id, owner_id, name, description, archived, category_order,
			shared, share_code, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		l.ID, l.OwnerID, l.Name, l.Description, l.Archived, order,
		l.Shared, l.ShareCode, l.CreatedBy, time.Now().UTC()).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresListRepository) Get(ctx context.Context, ownerID, id string) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE id = $1 AND owner_id = $2`
	return scanList(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// ChangedSince returns the owner's lists with updated_at >= since. A zero
// since returns everything.
func (r *PostgresListRepository) ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists
		WHERE owner_id = $1 AND updated_at >= $2 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

// Update overwrites the stored row and re-stamps updated_at server-side, so
// the sync watermark ordering is decided by one clock.
func (r *PostgresListRepository) Update(ctx context.Context, l *models.List) (*models.List, error) {
	order, err := marshalOrder(l.CategoryOrder)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE lists SET name = $3, description = $4, archived = $5,
			category_order = $6, shared = $7, share_code = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		l.ID, l.OwnerID, l.Name, l.Description, l.Archived, order,
		l.Shared, l.ShareCode, time.Now().UTC()).
		Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

// Delete removes the list; the FK cascade removes its items.
func (r *PostgresListRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM lists WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*models.List, error) {
	var (
		l     models.List
		order sql.NullString
	)
	err := row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Description, &l.Archived, &order,
		&l.Shared, &l.ShareCode, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if order.Valid && order.String != "" {
		if err := json.Unmarshal([]byte(order.String), &l.CategoryOrder); err != nil {
			return nil, fmt.Errorf("decode category order: %w", err)
		}
	}
	return &l, nil
}

func marshalOrder(order []string) (any, error) {
	if order == nil {
		return nil, nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode category order: %w", err)
	}
	return string(raw), nil
}
