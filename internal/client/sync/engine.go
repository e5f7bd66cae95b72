// Package sync orchestrates bidirectional synchronization between the local
// store and the remote service: pull-then-push cycles, last-writer-wins
// reconciliation, watermark tracking, and observable status.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"shoplist/internal/client/models"
	"shoplist/internal/client/remote"
	"shoplist/internal/client/store"
	"shoplist/internal/common"
	"shoplist/internal/logging"
)

// DefaultInterval is how often the run loop attempts a cycle while online.
const DefaultInterval = 30 * time.Second

// DefaultMaxRecordFailures is the number of consecutive failed cycles after
// which a pending record stops being retried and is surfaced as a permanent
// failure needing user attention.
const DefaultMaxRecordFailures = 5

// retryBaseDelay seeds the per-call exponential backoff inside one cycle.
const retryBaseDelay = 200 * time.Millisecond

// UserSource supplies the authenticated user id the engine scopes its work
// to. An empty id or common.ErrNotLoggedIn means "skip the cycle silently".
type UserSource interface {
	UserID(ctx context.Context) (string, error)
}

// Config carries the tunables of an Engine. Zero values select defaults.
type Config struct {
	Interval          time.Duration
	MaxRecordFailures int
}

// Engine runs sync cycles on a timer, on connectivity transitions and on
// demand. Only one cycle executes at a time; concurrent triggers collapse
// into an immediate common.ErrSyncInProgress.
type Engine struct {
	store  *store.Store
	client remote.Client
	users  UserSource
	log    logging.Logger

	interval          time.Duration
	maxRecordFailures int

	syncing atomic.Bool
	kick    chan struct{}

	mu           stdsync.Mutex
	status       Status
	listeners    map[int]func(Status)
	nextListener int
	failures     map[string]int

	now func() time.Time
}

// New constructs an Engine. Call Run to start the timer loop.
func New(st *store.Store, client remote.Client, users UserSource, log logging.Logger, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRecordFailures <= 0 {
		cfg.MaxRecordFailures = DefaultMaxRecordFailures
	}
	return &Engine{
		store:             st,
		client:            client,
		users:             users,
		log:               log,
		interval:          cfg.Interval,
		maxRecordFailures: cfg.MaxRecordFailures,
		kick:              make(chan struct{}, 1),
		listeners:         make(map[int]func(Status)),
		failures:          make(map[string]int),
		now:               time.Now,
	}
}

// RequestSync schedules a sync attempt without blocking. Multiple rapid
// requests collapse into a single buffered kick drained by the run loop.
func (e *Engine) RequestSync() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// SetOnline records a connectivity change. A transition to online schedules
// an immediate sync attempt.
func (e *Engine) SetOnline(online bool) {
	var wentOnline bool
	e.setStatus(func(s *Status) {
		wentOnline = online && !s.Online
		s.Online = online
	})
	if wentOnline {
		e.RequestSync()
	}
}

// Run drives periodic and on-demand cycles until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.Online() {
				continue
			}
		case <-e.kick:
		}

		if _, err := e.Sync(ctx); err != nil {
			if errors.Is(err, common.ErrSyncInProgress) || errors.Is(err, common.ErrNotLoggedIn) {
				continue
			}
			e.log.Warn(ctx, "sync cycle failed", "error", err)
		}
	}
}

// Sync runs one pull-then-push cycle. It returns common.ErrSyncInProgress
// immediately when a cycle is already executing and common.ErrNotLoggedIn
// when there is no authenticated user.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	userID, err := e.users.UserID(ctx)
	if err != nil || userID == "" {
		return nil, common.ErrNotLoggedIn
	}

	if !e.syncing.CompareAndSwap(false, true) {
		return nil, common.ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	e.setStatus(func(s *Status) {
		s.Syncing = true
		s.Errors = nil
	})

	res := &Result{}

	// Pull must complete before push: push decisions depend on fresh
	// remote state for conflict comparison.
	pullErr := e.pull(ctx, userID, res)
	if pullErr != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("pull: %v", pullErr))
	} else {
		e.push(ctx, res)
	}

	pending := e.pendingCount(ctx)
	e.setStatus(func(s *Status) {
		s.Syncing = false
		s.PendingChanges = pending
		s.Errors = append([]string(nil), res.Errors...)
		if pullErr == nil {
			s.LastSync = e.now()
		}
	})

	e.log.Debug(ctx, "sync cycle finished",
		"synced", res.Synced, "failed", res.Failed, "conflicted", res.Conflicted)

	if pullErr != nil {
		return res, fmt.Errorf("pull: %w", pullErr)
	}
	return res, nil
}

// pull fetches everything changed remotely since the watermark and merges it
// into the local store, applying the reconciliation rules where a pending
// local record exists.
func (e *Engine) pull(ctx context.Context, userID string, res *Result) error {
	since, err := e.store.Meta().LastSync(ctx, userID)
	if err != nil {
		return err
	}

	remoteLists, err := e.client.ListsChangedSince(ctx, since)
	if err != nil {
		return err
	}
	remoteItems, err := e.client.ItemsChangedSince(ctx, since)
	if err != nil {
		return err
	}

	pendingLists := make(map[string]models.Record[models.List])
	if pend, err := e.store.Lists().GetPending(ctx); err == nil {
		for _, rec := range pend {
			pendingLists[rec.Entity.ID] = rec
		}
	}
	pendingItems := make(map[string]models.Record[models.Item])
	if pend, err := e.store.Items().GetPending(ctx); err == nil {
		for _, rec := range pend {
			pendingItems[rec.Entity.ID] = rec
		}
	}

	for _, l := range remoteLists {
		if local, ok := pendingLists[l.ID]; ok {
			res.Conflicted++
			if models.ResolveListConflict(local, l) == models.WinnerLocal {
				// Local edit survives; push re-submits it.
				continue
			}
		}
		// No local conflict: remote is authoritative.
		if err := e.store.Lists().Put(ctx, models.NewSyncedRecord(l, e.now())); err != nil {
			return err
		}
	}

	for _, i := range remoteItems {
		if local, ok := pendingItems[i.ID]; ok {
			res.Conflicted++
			if models.ResolveItemConflict(local, i) == models.WinnerLocal {
				continue
			}
			e.clearFailures(itemKey(i.ID))
		}
		if err := e.store.Items().Put(ctx, models.NewSyncedRecord(i, e.now())); err != nil {
			return err
		}
	}

	return e.store.Meta().SetLastSync(ctx, userID, e.now())
}

// push drains the pending queue: lists first, since items reference lists.
func (e *Engine) push(ctx context.Context, res *Result) {
	lists, _ := e.store.Lists().GetPending(ctx)
	for _, rec := range lists {
		e.pushList(ctx, rec, res)
	}

	items, _ := e.store.Items().GetPending(ctx)
	for _, rec := range items {
		e.pushItem(ctx, rec, res)
	}
}

func (e *Engine) pushList(ctx context.Context, rec models.Record[models.List], res *Result) {
	key := listKey(rec.Entity.ID)
	if e.exhausted(key) {
		res.Errors = append(res.Errors,
			fmt.Sprintf("list %q: giving up after %d failed attempts", rec.Entity.Name, e.maxRecordFailures))
		return
	}

	if rec.PendingOp == models.OpDelete {
		// The user already confirmed intent: remove the tombstone locally
		// even if the remote delete fails (e.g. already gone).
		if err := e.client.DeleteList(ctx, rec.Entity.ID); err != nil {
			e.log.Warn(ctx, "remote list delete failed, removing local record anyway",
				"list", rec.Entity.ID, "error", err)
		}
		if err := e.store.Lists().Delete(ctx, rec.Entity.ID); err != nil {
			e.recordFailure(key, rec.Entity.Name, err, res)
			return
		}
		e.clearFailures(key)
		res.Synced++
		return
	}

	out, err := withBackoff(ctx, func(ctx context.Context) (*models.List, error) {
		switch rec.PendingOp {
		case models.OpCreate:
			created, err := e.client.CreateList(ctx, rec.Entity)
			if errors.Is(err, common.ErrAlreadyExists) {
				return e.client.UpdateList(ctx, rec.Entity)
			}
			return created, err
		default:
			return e.client.UpdateList(ctx, rec.Entity)
		}
	})
	if err != nil {
		e.recordFailure(key, rec.Entity.Name, err, res)
		return
	}

	if err := e.store.Lists().Put(ctx, models.NewSyncedRecord(*out, e.now())); err != nil {
		e.recordFailure(key, rec.Entity.Name, err, res)
		return
	}
	e.clearFailures(key)
	res.Synced++
}

func (e *Engine) pushItem(ctx context.Context, rec models.Record[models.Item], res *Result) {
	key := itemKey(rec.Entity.ID)
	if e.exhausted(key) {
		res.Errors = append(res.Errors,
			fmt.Sprintf("item %q: giving up after %d failed attempts", rec.Entity.Name, e.maxRecordFailures))
		return
	}

	if rec.PendingOp == models.OpDelete {
		if err := e.client.DeleteItem(ctx, rec.Entity.ID); err != nil {
			e.log.Warn(ctx, "remote item delete failed, removing local record anyway",
				"item", rec.Entity.ID, "error", err)
		}
		if err := e.store.Items().Delete(ctx, rec.Entity.ID); err != nil {
			e.recordFailure(key, rec.Entity.Name, err, res)
			return
		}
		e.clearFailures(key)
		res.Synced++
		return
	}

	out, err := withBackoff(ctx, func(ctx context.Context) (*models.Item, error) {
		switch rec.PendingOp {
		case models.OpCreate:
			created, err := e.client.CreateItem(ctx, rec.Entity)
			if errors.Is(err, common.ErrAlreadyExists) {
				return e.client.UpdateItem(ctx, rec.Entity)
			}
			return created, err
		default:
			return e.client.UpdateItem(ctx, rec.Entity)
		}
	})
	if err != nil {
		e.recordFailure(key, rec.Entity.Name, err, res)
		return
	}

	if err := e.store.Items().Put(ctx, models.NewSyncedRecord(*out, e.now())); err != nil {
		e.recordFailure(key, rec.Entity.Name, err, res)
		return
	}
	e.clearFailures(key)
	res.Synced++
}

// withBackoff retries fn with exponential backoff while the failure looks
// transient (remote unavailable). Other errors fail immediately.
func withBackoff[T any](ctx context.Context, fn func(context.Context) (*T, error)) (*T, error) {
	var out *T
	b := retry.WithMaxRetries(2, retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		if errors.Is(err, common.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) recordFailure(key, name string, err error, res *Result) {
	e.mu.Lock()
	e.failures[key]++
	e.mu.Unlock()
	res.Failed++
	res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
}

func (e *Engine) clearFailures(key string) {
	e.mu.Lock()
	delete(e.failures, key)
	e.mu.Unlock()
}

func (e *Engine) exhausted(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures[key] >= e.maxRecordFailures
}

func (e *Engine) pendingCount(ctx context.Context) int {
	lists, _ := e.store.Lists().GetPending(ctx)
	items, _ := e.store.Items().GetPending(ctx)
	return len(lists) + len(items)
}

func listKey(id string) string { return "list:" + id }
func itemKey(id string) string { return "item:" + id }
