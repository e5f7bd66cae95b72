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

// ListPatch carries the fields of a list update. Nil fields are kept as-is.
type ListPatch struct {
	Name          *string
	Description   *string
	Archived      *bool
	CategoryOrder *[]string
	Shared        *bool
}

// ListService is the offline-aware façade over shopping lists. Every
// operation routes remote-first while online and falls back to the local
// store otherwise; callers never see connectivity errors on reads.
type ListService interface {
	Create(ctx context.Context, l models.List) (*models.List, error)
	Get(ctx context.Context, id string) (*models.List, error)
	GetAll(ctx context.Context) ([]models.List, error)
	Update(ctx context.Context, id string, patch ListPatch) (*models.List, error)
	UpdateCategoryOrder(ctx context.Context, id string, order []string) (*models.List, error)
	Delete(ctx context.Context, id string) error
}

type listService struct {
	client remote.Client
	store  *store.Store
	syncer Syncer
	auth   AuthService
	log    logging.Logger

	now func() time.Time
}

// NewListService constructs the list façade.
func NewListService(client remote.Client, st *store.Store, syncer Syncer, auth AuthService, log logging.Logger) ListService {
	return &listService{client: client, store: st, syncer: syncer, auth: auth, log: log, now: time.Now}
}

// Create makes a new list: remote-first while online, locally pending
// otherwise. The caller may supply an id; missing fields are defaulted.
func (s *listService) Create(ctx context.Context, l models.List) (*models.List, error) {
	userID, err := s.auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.OwnerID = userID
	l.CreatedBy = userID
	l.CreatedAt = now
	l.UpdatedAt = now

	if s.syncer.Online() {
		if created, err := s.client.CreateList(ctx, l); err == nil {
			s.mirrorList(ctx, *created)
			return created, nil
		} else {
			s.log.Debug(ctx, "remote list create failed, saving locally", "error", err)
		}
	}

	if err := s.store.Lists().Put(ctx, models.NewPendingRecord(l, models.OpCreate, now)); err != nil {
		return nil, err
	}
	s.syncer.RequestSync()
	return &l, nil
}

// Get fetches one list. A missing list yields common.ErrNotFound.
func (s *listService) Get(ctx context.Context, id string) (*models.List, error) {
	if s.syncer.Online() {
		if l, err := s.client.GetList(ctx, id); err == nil {
			s.mirrorList(ctx, *l)
			return l, nil
		} else if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	rec, err := s.store.Lists().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, common.ErrNotFound
	}
	return &rec.Entity, nil
}

// GetAll returns the user's lists, freshest source first.
func (s *listService) GetAll(ctx context.Context) ([]models.List, error) {
	userID, err := s.auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	if s.syncer.Online() {
		if lists, err := s.client.ListsChangedSince(ctx, time.Time{}); err == nil {
			for _, l := range lists {
				s.mirrorList(ctx, l)
			}
			return lists, nil
		}
	}

	recs, err := s.store.Lists().GetByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.List, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Entity)
	}
	return out, nil
}

// Update merges the patch onto the stored list and routes the result.
func (s *listService) Update(ctx context.Context, id string, patch ListPatch) (*models.List, error) {
	base, wasCreate, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	applyListPatch(base, patch)
	base.UpdatedAt = s.now()

	if s.syncer.Online() {
		if updated, err := s.client.UpdateList(ctx, *base); err == nil {
			s.mirrorList(ctx, *updated)
			return updated, nil
		} else {
			s.log.Debug(ctx, "remote list update failed, saving locally", "list", id, "error", err)
		}
	}

	op := models.OpUpdate
	if wasCreate {
		// Still unknown to the remote: a later push must insert, not patch.
		op = models.OpCreate
	}
	if err := s.store.Lists().Put(ctx, models.NewPendingRecord(*base, op, s.now())); err != nil {
		return nil, err
	}
	s.syncer.RequestSync()
	return base, nil
}

// UpdateCategoryOrder replaces the list's category ordering. Used by
// drag-reorder; otherwise an ordinary list update.
func (s *listService) UpdateCategoryOrder(ctx context.Context, id string, order []string) (*models.List, error) {
	return s.Update(ctx, id, ListPatch{CategoryOrder: &order})
}

// Delete removes a list and, locally, tombstones its items so they vanish
// together. A list absent on both sides is a silent no-op.
func (s *listService) Delete(ctx context.Context, id string) error {
	now := s.now()

	if s.syncer.Online() {
		err := s.client.DeleteList(ctx, id)
		if err == nil || errors.Is(err, common.ErrNotFound) {
			// Remote cascade removed the items; drop the local mirror.
			if err := s.store.Items().DeleteByList(ctx, id); err != nil && !isStoreDisabled(err) {
				return err
			}
			if err := s.store.Lists().Delete(ctx, id); err != nil && !isStoreDisabled(err) {
				return err
			}
			return nil
		}
		s.log.Debug(ctx, "remote list delete failed, tombstoning locally", "list", id, "error", err)
	}

	rec, err := s.store.Lists().Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if err := s.store.MarkListDeleted(ctx, id, now); err != nil {
		return err
	}
	s.syncer.RequestSync()
	return nil
}

// loadForUpdate resolves the update base: the local record first, the
// remote copy as a fallback while online. It reports whether the record is
// still an unsynced create.
func (s *listService) loadForUpdate(ctx context.Context, id string) (*models.List, bool, error) {
	rec, err := s.store.Lists().Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return &rec.Entity, rec.Pending && rec.PendingOp == models.OpCreate, nil
	}

	if s.syncer.Online() {
		if l, err := s.client.GetList(ctx, id); err == nil {
			return l, false, nil
		}
	}
	return nil, false, fmt.Errorf("list %s: %w", id, common.ErrNotFound)
}

// mirrorList caches a remote result locally as synced. Best effort.
func (s *listService) mirrorList(ctx context.Context, l models.List) {
	if err := s.store.Lists().Put(ctx, models.NewSyncedRecord(l, s.now())); err != nil && !isStoreDisabled(err) {
		s.log.Warn(ctx, "failed to mirror list locally", "list", l.ID, "error", err)
	}
}

func applyListPatch(l *models.List, p ListPatch) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Archived != nil {
		l.Archived = *p.Archived
	}
	if p.CategoryOrder != nil {
		l.CategoryOrder = *p.CategoryOrder
	}
	if p.Shared != nil {
		l.Shared = *p.Shared
	}
}

func isStoreDisabled(err error) bool {
	return errors.Is(err, common.ErrStoreUnavailable)
}
