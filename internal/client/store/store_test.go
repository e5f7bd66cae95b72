package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "client.db")
	s := Open(dsn, nil)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testList(id, owner string) models.List {
	now := time.UnixMilli(1000)
	return models.List{
		ID:        id,
		OwnerID:   owner,
		Name:      "Groceries",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testItem(id, listID string) models.Item {
	now := time.UnixMilli(1000)
	i := models.Item{
		ID:        id,
		ListID:    listID,
		Name:      "Milk",
		CreatedAt: now,
		UpdatedAt: now,
	}
	i.Normalize()
	return i
}

func TestInit_ConcurrentCallsInitializeOnce(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "client.db")
	s := Open(dsn, nil)
	t.Cleanup(func() { _ = s.Close() })

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = s.Init(context.Background())
		}(n)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, s.Lists().Put(context.Background(),
		models.NewSyncedRecord(testList("l1", "u1"), time.Now())))
}

func TestDisabledStore_ReadsEmptyWritesFail(t *testing.T) {
	s := Open("", nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	lists, err := s.Lists().GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lists)

	rec, err := s.Items().Get(ctx, "i1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	err = s.Lists().Put(ctx, models.NewSyncedRecord(testList("l1", "u1"), time.Now()))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestListRepo_PutGetRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	l := testList("l1", "u1")
	l.Description = "weekly run"
	l.CategoryOrder = []string{"Dairy", "Produce", "Other"}
	l.Shared = true
	l.ShareCode = "abc123"

	require.NoError(t, s.Lists().Put(ctx, models.NewSyncedRecord(l, time.UnixMilli(2000))))

	got, err := s.Lists().Get(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.Name, got.Entity.Name)
	assert.Equal(t, l.CategoryOrder, got.Entity.CategoryOrder)
	assert.True(t, got.Entity.Shared)
	assert.Equal(t, "abc123", got.Entity.ShareCode)
	assert.Equal(t, int64(2000), got.LastModified)
	assert.False(t, got.Pending)
}

func TestListRepo_PutOverwritesWholesale(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	l := testList("l1", "u1")
	l.Description = "original"
	require.NoError(t, s.Lists().Put(ctx, models.NewSyncedRecord(l, time.Now())))

	l.Description = ""
	l.Name = "Renamed"
	require.NoError(t, s.Lists().Put(ctx, models.NewSyncedRecord(l, time.Now())))

	got, err := s.Lists().Get(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Entity.Name)
	assert.Empty(t, got.Entity.Description, "no partial merge at this layer")
}

func TestPendingDelete_InvisibleButPresent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := models.NewPendingRecord(testList("l1", "u1"), models.OpDelete, time.Now())
	require.NoError(t, s.Lists().Put(ctx, rec))

	got, err := s.Lists().Get(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, got, "tombstone must be hidden from get")

	all, err := s.Lists().GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all, "tombstone must be hidden from index reads")

	pending, err := s.Lists().GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "tombstone must still reach the push queue")
	assert.Equal(t, models.OpDelete, pending[0].PendingOp)
}

func TestItemRepo_GetByListFiltersTombstones(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Items().Put(ctx, models.NewSyncedRecord(testItem("i1", "l1"), time.Now())))
	require.NoError(t, s.Items().Put(ctx, models.NewPendingRecord(testItem("i2", "l1"), models.OpDelete, time.Now())))
	require.NoError(t, s.Items().Put(ctx, models.NewSyncedRecord(testItem("i3", "l2"), time.Now())))

	items, err := s.Items().GetByList(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i1", items[0].Entity.ID)
}

func TestStore_MarkListDeleted(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Lists().Put(ctx, models.NewSyncedRecord(testList("l1", "u1"), time.Now())))
	require.NoError(t, s.Lists().Put(ctx, models.NewSyncedRecord(testList("l2", "u1"), time.Now())))
	require.NoError(t, s.Items().Put(ctx, models.NewSyncedRecord(testItem("i1", "l1"), time.Now())))
	require.NoError(t, s.Items().Put(ctx, models.NewSyncedRecord(testItem("i2", "l1"), time.Now())))
	require.NoError(t, s.Items().Put(ctx, models.NewSyncedRecord(testItem("i3", "l2"), time.Now())))

	require.NoError(t, s.MarkListDeleted(ctx, "l1", time.UnixMilli(5000)))

	got, err := s.Lists().Get(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, got)

	visible, err := s.Items().GetByList(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, visible)

	pendingLists, err := s.Lists().GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pendingLists, 1)
	assert.Equal(t, models.OpDelete, pendingLists[0].PendingOp)

	pendingItems, err := s.Items().GetPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pendingItems, 2)

	other, err := s.Items().GetByList(ctx, "l2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "items of other lists must be untouched")
}

func TestStore_MarkListDeletedDisabled(t *testing.T) {
	s := Open("", nil)
	require.NoError(t, s.Init(context.Background()))

	err := s.MarkListDeleted(context.Background(), "l1", time.Now())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestItemRepo_DeleteIsPhysical(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Items().Put(ctx, models.NewPendingRecord(testItem("i1", "l1"), models.OpDelete, time.Now())))
	require.NoError(t, s.Items().Delete(ctx, "i1"))

	pending, err := s.Items().GetPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMetaRepo_WatermarkRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ts, err := s.Meta().LastSync(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ts.IsZero(), "no watermark defaults to zero time")

	mark := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.Meta().SetLastSync(ctx, "u1", mark))

	got, err := s.Meta().LastSync(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, mark.UnixMilli(), got.UnixMilli())

	later := mark.Add(time.Hour)
	require.NoError(t, s.Meta().SetLastSync(ctx, "u1", later))
	got, err = s.Meta().LastSync(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, later.UnixMilli(), got.UnixMilli())
}

func TestKVRepo_RoundTripAndDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	v, err := s.KV().Get(ctx, "session")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.KV().Set(ctx, "session", []byte("tok")))
	require.NoError(t, s.KV().Set(ctx, "session", []byte("tok2")))

	v, err = s.KV().Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok2"), v)

	require.NoError(t, s.KV().Delete(ctx, "session"))
	v, err = s.KV().Get(ctx, "session")
	require.NoError(t, err)
	assert.Nil(t, v)
}
