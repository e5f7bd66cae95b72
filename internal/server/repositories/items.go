package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shoplist/internal/common"
	"shoplist/internal/dbx"
	"shoplist/internal/server/models"
)

// ItemRepository is the persistence contract for list items. Ownership is
// enforced through the parent list: every query joins on lists.owner_id.
type ItemRepository interface {
	Create(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error)
	Get(ctx context.Context, ownerID, id string) (*models.Item, error)
	ByList(ctx context.Context, ownerID, listID string) ([]models.Item, error)
	ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.Item, error)
	Update(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type PostgresItemRepository struct {
	db dbx.DBTX
}

func NewPostgresItemRepository(db dbx.DBTX) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

const itemColumns = `i.id, i.list_id, i.name, i.amount, i.unit, i.category,
	i.notes, i.image_url, i.is_checked, i.position, i.created_at, i.updated_at`

// Create inserts an item after checking the target list belongs to ownerID.
// A foreign list maps to common.ErrNotFound.
func (r *PostgresItemRepository) Create(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error) {
	query := `
		INSERT INTO items (id, list_id, name, amount, unit, category,
			notes, image_url, is_checked, position, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
		WHERE EXISTS (SELECT 1 FROM lists WHERE id = $2 AND owner_id = $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		i.ID, i.ListID, i.Name, i.Amount, i.Unit, i.Category,
		i.Notes, i.ImageURL, i.Checked, i.Position, time.Now().UTC(), ownerID).
		Scan(&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresItemRepository) Get(ctx context.Context, ownerID, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i
		JOIN lists l ON l.id = i.list_id
		WHERE i.id = $1 AND l.owner_id = $2`
	return scanItem(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresItemRepository) ByList(ctx context.Context, ownerID, listID string) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i
		JOIN lists l ON l.id = i.list_id
		WHERE i.list_id = $1 AND l.owner_id = $2
		ORDER BY i.position, i.created_at`
	rows, err := r.db.QueryContext(ctx, query, listID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ChangedSince returns items of the owner's lists with updated_at >= since.
func (r *PostgresItemRepository) ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i
		JOIN lists l ON l.id = i.list_id
		WHERE l.owner_id = $1 AND i.updated_at >= $2
		ORDER BY i.created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Update overwrites the stored row and re-stamps updated_at server-side.
func (r *PostgresItemRepository) Update(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error) {
	query := `
		UPDATE items SET name = $3, amount = $4, unit = $5, category = $6,
			notes = $7, image_url = $8, is_checked = $9, position = $10, updated_at = $11
		FROM lists l
		WHERE items.id = $1 AND items.list_id = l.id AND l.owner_id = $2
		RETURNING items.updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		i.ID, ownerID, i.Name, i.Amount, i.Unit, i.Category,
		i.Notes, i.ImageURL, i.Checked, i.Position, time.Now().UTC()).
		Scan(&i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresItemRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM items USING lists l
		WHERE items.id = $1 AND items.list_id = l.id AND l.owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]models.Item, error) {
	var result []models.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *i)
	}
	return result, rows.Err()
}

func scanItem(row rowScanner) (*models.Item, error) {
	var i models.Item
	err := row.Scan(&i.ID, &i.ListID, &i.Name, &i.Amount, &i.Unit, &i.Category,
		&i.Notes, &i.ImageURL, &i.Checked, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &i, nil
}
