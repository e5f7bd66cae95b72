package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist/internal/common"
	"shoplist/internal/logging"
	"shoplist/internal/server/auth"
	"shoplist/internal/server/models"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = fmt.Sprintf("u%d", len(f.byEmail)+1)
	u.CreatedAt = time.Now()
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type fakeListRepo struct {
	lists map[string]models.List
}

func (f *fakeListRepo) Create(ctx context.Context, l *models.List) (*models.List, error) {
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	f.lists[l.ID] = *l
	return l, nil
}

func (f *fakeListRepo) Get(ctx context.Context, ownerID, id string) (*models.List, error) {
	l, ok := f.lists[id]
	if !ok || l.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return &l, nil
}

func (f *fakeListRepo) ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.List, error) {
	var out []models.List
	for _, l := range f.lists {
		if l.OwnerID == ownerID && !l.UpdatedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListRepo) Update(ctx context.Context, l *models.List) (*models.List, error) {
	existing, ok := f.lists[l.ID]
	if !ok || existing.OwnerID != l.OwnerID {
		return nil, common.ErrNotFound
	}
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = time.Now()
	f.lists[l.ID] = *l
	return l, nil
}

func (f *fakeListRepo) Delete(ctx context.Context, ownerID, id string) error {
	l, ok := f.lists[id]
	if !ok || l.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(f.lists, id)
	return nil
}

type fakeItemRepo struct {
	items map[string]models.Item
	owner map[string]string // listID -> ownerID
}

func (f *fakeItemRepo) Create(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error) {
	if f.owner[i.ListID] != ownerID {
		return nil, common.ErrNotFound
	}
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	f.items[i.ID] = *i
	return i, nil
}

func (f *fakeItemRepo) Get(ctx context.Context, ownerID, id string) (*models.Item, error) {
	i, ok := f.items[id]
	if !ok || f.owner[i.ListID] != ownerID {
		return nil, common.ErrNotFound
	}
	return &i, nil
}

func (f *fakeItemRepo) ByList(ctx context.Context, ownerID, listID string) ([]models.Item, error) {
	if f.owner[listID] != ownerID {
		return nil, nil
	}
	var out []models.Item
	for _, i := range f.items {
		if i.ListID == listID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.Item, error) {
	var out []models.Item
	for _, i := range f.items {
		if f.owner[i.ListID] == ownerID && !i.UpdatedAt.Before(since) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) Update(ctx context.Context, ownerID string, i *models.Item) (*models.Item, error) {
	existing, ok := f.items[i.ID]
	if !ok || f.owner[existing.ListID] != ownerID {
		return nil, common.ErrNotFound
	}
	i.ListID = existing.ListID
	i.CreatedAt = existing.CreatedAt
	i.UpdatedAt = time.Now()
	f.items[i.ID] = *i
	return i, nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, ownerID, id string) error {
	i, ok := f.items[id]
	if !ok || f.owner[i.ListID] != ownerID {
		return common.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

const testSecret = "test-secret"

type testEnv struct {
	srv   *httptest.Server
	users *fakeUserRepo
	lists *fakeListRepo
	items *fakeItemRepo
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	users := &fakeUserRepo{byEmail: make(map[string]*models.User)}
	lists := &fakeListRepo{lists: make(map[string]models.List)}
	items := &fakeItemRepo{items: make(map[string]models.Item), owner: make(map[string]string)}

	s := New(logging.Setup("error"), users, lists, items, []byte(testSecret), time.Hour)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, users: users, lists: lists, items: items}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestPingIsPublic(t *testing.T) {
	e := setupServer(t)
	resp := e.request(t, http.MethodGet, "/api/ping", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterThenLogin(t *testing.T) {
	e := setupServer(t)

	resp := e.request(t, http.MethodPost, "/api/register", "",
		map[string]string{"email": "U@Example.com", "password": "longenough"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Email lookup is case-insensitive on the way in.
	resp = e.request(t, http.MethodPost, "/api/login", "",
		map[string]string{"email": "u@example.com", "password": "longenough"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[loginResponse](t, resp)
	assert.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.UserID)
	assert.True(t, body.ExpiresAt.After(time.Now()))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	e := setupServer(t)
	resp := e.request(t, http.MethodPost, "/api/register", "",
		map[string]string{"email": "u@example.com", "password": "short"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	e := setupServer(t)
	body := map[string]string{"email": "u@example.com", "password": "longenough"}

	resp := e.request(t, http.MethodPost, "/api/register", "", body)
	resp.Body.Close()
	resp = e.request(t, http.MethodPost, "/api/register", "", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginBadPasswordUnauthorized(t *testing.T) {
	e := setupServer(t)
	resp := e.request(t, http.MethodPost, "/api/register", "",
		map[string]string{"email": "u@example.com", "password": "longenough"})
	resp.Body.Close()

	resp = e.request(t, http.MethodPost, "/api/login", "",
		map[string]string{"email": "u@example.com", "password": "wrongwrong"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListsRequireAuth(t *testing.T) {
	e := setupServer(t)
	resp := e.request(t, http.MethodGet, "/api/lists", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListCRUDKeepsClientID(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, "u1")

	// Offline-created lists arrive with their own id, which must survive.
	resp := e.request(t, http.MethodPost, "/api/lists", tok,
		models.List{ID: "client-id-1", Name: "Groceries"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.List](t, resp)
	assert.Equal(t, "client-id-1", created.ID)
	assert.Equal(t, "u1", created.OwnerID)

	resp = e.request(t, http.MethodGet, "/api/lists/client-id-1", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[models.List](t, resp)
	assert.Equal(t, "Groceries", got.Name)

	created.Name = "Weekly groceries"
	resp = e.request(t, http.MethodPut, "/api/lists/client-id-1", tok, created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.request(t, http.MethodDelete, "/api/lists/client-id-1", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.request(t, http.MethodGet, "/api/lists/client-id-1", tok, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListsAreOwnerScoped(t *testing.T) {
	e := setupServer(t)

	resp := e.request(t, http.MethodPost, "/api/lists", e.token(t, "u1"),
		models.List{ID: "l1", Name: "Mine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Another user sees neither the list nor its detail endpoint.
	other := e.token(t, "u2")
	resp = e.request(t, http.MethodGet, "/api/lists", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lists := decodeBody[[]models.List](t, resp)
	assert.Empty(t, lists)

	resp = e.request(t, http.MethodGet, "/api/lists/l1", other, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemsSinceFilter(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, "u1")
	e.lists.lists["l1"] = models.List{ID: "l1", OwnerID: "u1", Name: "Groceries"}
	e.items.owner["l1"] = "u1"

	old := models.Item{ID: "i-old", ListID: "l1", Name: "Old"}
	old.UpdatedAt = time.Now().Add(-time.Hour)
	e.items.items["i-old"] = old
	fresh := models.Item{ID: "i-new", ListID: "l1", Name: "New"}
	fresh.UpdatedAt = time.Now()
	e.items.items["i-new"] = fresh

	cutoff := time.Now().Add(-time.Minute).UnixMilli()
	resp := e.request(t, http.MethodGet, fmt.Sprintf("/api/items?since=%d", cutoff), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody[[]models.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "i-new", items[0].ID)
}

func TestItemCreateAppliesDefaults(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, "u1")
	e.items.owner["l1"] = "u1"

	resp := e.request(t, http.MethodPost, "/api/items", tok,
		map[string]string{"name": "Milk", "list_id": "l1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Item](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, float64(1), created.Amount)
	assert.Equal(t, "pcs", created.Unit)
	assert.Equal(t, "Other", created.Category)
}

func TestItemCreateOnForeignListNotFound(t *testing.T) {
	e := setupServer(t)
	e.items.owner["l1"] = "someone-else"

	resp := e.request(t, http.MethodPost, "/api/items", e.token(t, "u1"),
		map[string]string{"name": "Milk", "list_id": "l1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExpiredTokenRejected(t *testing.T) {
	e := setupServer(t)
	tok, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	resp := e.request(t, http.MethodGet, "/api/lists", tok, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
