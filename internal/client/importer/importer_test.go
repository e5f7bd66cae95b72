package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist/internal/client/models"
	"shoplist/internal/client/services"
	"shoplist/internal/common"
)

type fakeLists struct {
	created []models.List
}

func (f *fakeLists) Create(ctx context.Context, l models.List) (*models.List, error) {
	l.ID = "list-" + l.Name
	f.created = append(f.created, l)
	return &l, nil
}

func (f *fakeLists) Get(ctx context.Context, id string) (*models.List, error) {
	return nil, common.ErrNotFound
}

func (f *fakeLists) GetAll(ctx context.Context) ([]models.List, error) { return nil, nil }

func (f *fakeLists) Update(ctx context.Context, id string, patch services.ListPatch) (*models.List, error) {
	return nil, common.ErrNotFound
}

func (f *fakeLists) UpdateCategoryOrder(ctx context.Context, id string, order []string) (*models.List, error) {
	return nil, common.ErrNotFound
}

func (f *fakeLists) Delete(ctx context.Context, id string) error { return nil }

type fakeItems struct {
	batches [][]models.Item
}

func (f *fakeItems) Create(ctx context.Context, i models.Item) (*models.Item, error) {
	return &i, nil
}

func (f *fakeItems) CreateMany(ctx context.Context, items []models.Item) ([]models.Item, error) {
	f.batches = append(f.batches, items)
	return items, nil
}

func (f *fakeItems) Get(ctx context.Context, id string) (*models.Item, error) {
	return nil, common.ErrNotFound
}

func (f *fakeItems) GetByList(ctx context.Context, listID string) ([]models.Item, error) {
	return nil, nil
}

func (f *fakeItems) Update(ctx context.Context, id string, patch services.ItemPatch) (*models.Item, error) {
	return nil, common.ErrNotFound
}

func (f *fakeItems) ToggleChecked(ctx context.Context, id string) (*models.Item, error) {
	return nil, common.ErrNotFound
}

func (f *fakeItems) Delete(ctx context.Context, id string) error { return nil }

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Shape
		wantErr bool
	}{
		{"single list", `{"name":"Groceries","items":[]}`, ShapeSingleList, false},
		{"list array", `[{"name":"A"},{"name":"B"}]`, ShapeListArray, false},
		{"wrapped", `{"lists":[{"name":"A"}]}`, ShapeWrappedLists, false},
		{"empty", ``, ShapeUnknown, true},
		{"scalar", `42`, ShapeUnknown, true},
		{"unrelated object", `{"foo":1}`, ShapeUnknown, true},
		{"broken json", `{"name":`, ShapeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectShape([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCanonicalizesAllShapes(t *testing.T) {
	single := `{"name":"Groceries","items":[{"name":"Milk","amount":2,"unit":"l"}]}`
	array := `[{"name":"Groceries"},{"name":"Hardware"}]`
	wrapped := `{"lists":[{"name":"Groceries","category_order":["Dairy","Other"]}]}`

	ls, err := Parse([]byte(single))
	require.NoError(t, err)
	require.Len(t, ls, 1)
	require.Len(t, ls[0].Items, 1)
	assert.Equal(t, "Milk", ls[0].Items[0].Name)
	assert.Equal(t, 2.0, ls[0].Items[0].Amount)

	ls, err = Parse([]byte(array))
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "Hardware", ls[1].Name)

	ls, err = Parse([]byte(wrapped))
	require.NoError(t, err)
	require.Len(t, ls, 1)
	assert.Equal(t, []string{"Dairy", "Other"}, ls[0].CategoryOrder)
}

func TestImportCreatesListsAndItems(t *testing.T) {
	fl := &fakeLists{}
	fi := &fakeItems{}
	im := New(fl, fi)

	raw := `{"lists":[
		{"name":"Groceries","items":[{"name":"Milk"},{"name":"Eggs","is_checked":true}]},
		{"name":"Empty"}
	]}`
	res, err := im.Import(context.Background(), []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Lists)
	assert.Equal(t, 2, res.Items)
	require.Len(t, fl.created, 2)
	require.Len(t, fi.batches, 1)

	batch := fi.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "list-Groceries", batch[0].ListID)
	assert.True(t, batch[1].Checked)
}

func TestImportRejectsNamelessList(t *testing.T) {
	im := New(&fakeLists{}, &fakeItems{})

	_, err := im.Import(context.Background(), []byte(`[{"description":"no name"}]`))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "single-list", ShapeSingleList.String())
	assert.Equal(t, "list-array", ShapeListArray.String())
	assert.Equal(t, "wrapped-lists", ShapeWrappedLists.String())
	assert.Equal(t, "unknown", ShapeUnknown.String())
}
