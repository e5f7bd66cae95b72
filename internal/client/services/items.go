package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shoplist/internal/client/models"
	"shoplist/internal/client/remote"
	"shoplist/internal/client/store"
	"shoplist/internal/common"
	"shoplist/internal/logging"
)

// ItemPatch carries the fields of an item update. Nil fields are kept as-is.
type ItemPatch struct {
	Name     *string
	Amount   *float64
	Unit     *models.Unit
	Category *string
	Notes    *string
	ImageURL *string
	Checked  *bool
	Position *int
}

// ItemService is the offline-aware façade over shopping list items.
type ItemService interface {
	Create(ctx context.Context, i models.Item) (*models.Item, error)

	// CreateMany is the bulk import entry point. It writes every item as a
	// local pending create regardless of connectivity, then triggers one
	// sync attempt.
	CreateMany(ctx context.Context, items []models.Item) ([]models.Item, error)

	Get(ctx context.Context, id string) (*models.Item, error)
	GetByList(ctx context.Context, listID string) ([]models.Item, error)
	Update(ctx context.Context, id string, patch ItemPatch) (*models.Item, error)
	ToggleChecked(ctx context.Context, id string) (*models.Item, error)
	Delete(ctx context.Context, id string) error
}

type itemService struct {
	client remote.Client
	store  *store.Store
	syncer Syncer
	log    logging.Logger

	now func() time.Time
}

// NewItemService constructs the item façade.
func NewItemService(client remote.Client, st *store.Store, syncer Syncer, log logging.Logger) ItemService {
	return &itemService{client: client, store: st, syncer: syncer, log: log, now: time.Now}
}

// Create adds an item to a list: remote-first while online, locally pending
// otherwise. Missing optional fields are defaulted.
func (s *itemService) Create(ctx context.Context, i models.Item) (*models.Item, error) {
	if i.ListID == "" {
		return nil, fmt.Errorf("%w: item requires a list id", common.ErrValidation)
	}

	now := s.now()
	s.shapeNew(&i, now)

	if s.syncer.Online() {
		if created, err := s.client.CreateItem(ctx, i); err == nil {
			s.mirrorItem(ctx, *created)
			return created, nil
		} else {
			s.log.Debug(ctx, "remote item create failed, saving locally", "error", err)
		}
	}

	if err := s.store.Items().Put(ctx, models.NewPendingRecord(i, models.OpCreate, now)); err != nil {
		return nil, err
	}
	s.syncer.RequestSync()
	return &i, nil
}

// CreateMany writes every payload as a pending create and triggers a single
// sync attempt. Each item syncs individually afterwards.
func (s *itemService) CreateMany(ctx context.Context, items []models.Item) ([]models.Item, error) {
	now := s.now()
	out := make([]models.Item, 0, len(items))

	for _, i := range items {
		if i.ListID == "" {
			return nil, fmt.Errorf("%w: item %q requires a list id", common.ErrValidation, i.Name)
		}
		s.shapeNew(&i, now)
		if err := s.store.Items().Put(ctx, models.NewPendingRecord(i, models.OpCreate, now)); err != nil {
			return nil, err
		}
		out = append(out, i)
	}

	s.syncer.RequestSync()
	return out, nil
}

// Get fetches one item. A missing item yields common.ErrNotFound.
func (s *itemService) Get(ctx context.Context, id string) (*models.Item, error) {
	if s.syncer.Online() {
		if i, err := s.client.GetItem(ctx, id); err == nil {
			s.mirrorItem(ctx, *i)
			return i, nil
		} else if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	rec, err := s.store.Items().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, common.ErrNotFound
	}
	return &rec.Entity, nil
}

// GetByList returns the items of a list, freshest source first.
func (s *itemService) GetByList(ctx context.Context, listID string) ([]models.Item, error) {
	if s.syncer.Online() {
		if items, err := s.client.ItemsByList(ctx, listID); err == nil {
			for _, i := range items {
				s.mirrorItem(ctx, i)
			}
			return items, nil
		}
	}

	recs, err := s.store.Items().GetByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Entity)
	}
	return out, nil
}

// Update merges the patch onto the stored item and routes the result.
func (s *itemService) Update(ctx context.Context, id string, patch ItemPatch) (*models.Item, error) {
	base, wasCreate, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	applyItemPatch(base, patch)
	base.UpdatedAt = s.now()

	if s.syncer.Online() {
		if updated, err := s.client.UpdateItem(ctx, *base); err == nil {
			s.mirrorItem(ctx, *updated)
			return updated, nil
		} else {
			s.log.Debug(ctx, "remote item update failed, saving locally", "item", id, "error", err)
		}
	}

	op := models.OpUpdate
	if wasCreate {
		op = models.OpCreate
	}
	if err := s.store.Items().Put(ctx, models.NewPendingRecord(*base, op, s.now())); err != nil {
		return nil, err
	}
	s.syncer.RequestSync()
	return base, nil
}

// ToggleChecked flips the checked flag. A plain update otherwise.
func (s *itemService) ToggleChecked(ctx context.Context, id string) (*models.Item, error) {
	base, _, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	checked := !base.Checked
	return s.Update(ctx, id, ItemPatch{Checked: &checked})
}

// Delete removes an item. An item absent on both sides is a silent no-op.
func (s *itemService) Delete(ctx context.Context, id string) error {
	now := s.now()

	if s.syncer.Online() {
		err := s.client.DeleteItem(ctx, id)
		if err == nil || errors.Is(err, common.ErrNotFound) {
			if err := s.store.Items().Delete(ctx, id); err != nil && !isStoreDisabled(err) {
				return err
			}
			return nil
		}
		s.log.Debug(ctx, "remote item delete failed, tombstoning locally", "item", id, "error", err)
	}

	rec, err := s.store.Items().Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if err := s.store.Items().Put(ctx, models.NewPendingRecord(rec.Entity, models.OpDelete, now)); err != nil {
		return err
	}
	s.syncer.RequestSync()
	return nil
}

func (s *itemService) loadForUpdate(ctx context.Context, id string) (*models.Item, bool, error) {
	rec, err := s.store.Items().Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return &rec.Entity, rec.Pending && rec.PendingOp == models.OpCreate, nil
	}

	if s.syncer.Online() {
		if i, err := s.client.GetItem(ctx, id); err == nil {
			return i, false, nil
		}
	}
	return nil, false, fmt.Errorf("item %s: %w", id, common.ErrNotFound)
}

// shapeNew assigns the id, stamps timestamps and fills defaults.
func (s *itemService) shapeNew(i *models.Item, now time.Time) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	i.CreatedAt = now
	i.UpdatedAt = now
	i.Normalize()
}

// mirrorItem caches a remote result locally as synced. Best effort.
func (s *itemService) mirrorItem(ctx context.Context, i models.Item) {
	if err := s.store.Items().Put(ctx, models.NewSyncedRecord(i, s.now())); err != nil && !isStoreDisabled(err) {
		s.log.Warn(ctx, "failed to mirror item locally", "item", i.ID, "error", err)
	}
}

func applyItemPatch(i *models.Item, p ItemPatch) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Amount != nil {
		i.Amount = *p.Amount
	}
	if p.Unit != nil {
		i.Unit = *p.Unit
	}
	if p.Category != nil {
		i.Category = *p.Category
	}
	if p.Notes != nil {
		i.Notes = *p.Notes
	}
	if p.ImageURL != nil {
		i.ImageURL = *p.ImageURL
	}
	if p.Checked != nil {
		i.Checked = *p.Checked
	}
	if p.Position != nil {
		i.Position = *p.Position
	}
}
