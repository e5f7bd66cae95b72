package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
)

const requestTimeout = 10 * time.Second

// HTTPClient talks JSON over HTTP to the shoplist server. Safe for
// concurrent use; the bearer token may be swapped at any time via SetToken.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the server at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: requestTimeout},
	}
}

// SetToken installs the access token injected on subsequent requests.
// An empty token clears authentication.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

type apiError struct {
	Error string `json:"error"`
}

// do performs one JSON round trip, mapping transport failures and error
// status codes to sentinel errors.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthScheme+" "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var ae apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&ae)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrAlreadyExists
	case http.StatusBadRequest:
		if ae.Error != "" {
			return fmt.Errorf("%w: %s", common.ErrValidation, ae.Error)
		}
		return common.ErrValidation
	default:
		if ae.Error != "" {
			return fmt.Errorf("%w: %s", common.ErrUnavailable, ae.Error)
		}
		return fmt.Errorf("%w: status %d", common.ErrUnavailable, resp.StatusCode)
	}
}

func sinceQuery(since time.Time) url.Values {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", strconv.FormatInt(since.UnixMilli(), 10))
	}
	return q
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	in := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/register", nil, in, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	in := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, in, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *HTTPClient) ListsChangedSince(ctx context.Context, since time.Time) ([]models.List, error) {
	var lists []models.List
	if err := c.do(ctx, http.MethodGet, "/api/lists", sinceQuery(since), nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *HTTPClient) GetList(ctx context.Context, id string) (*models.List, error) {
	var l models.List
	if err := c.do(ctx, http.MethodGet, "/api/lists/"+url.PathEscape(id), nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *HTTPClient) CreateList(ctx context.Context, l models.List) (*models.List, error) {
	var out models.List
	if err := c.do(ctx, http.MethodPost, "/api/lists", nil, l, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateList(ctx context.Context, l models.List) (*models.List, error) {
	var out models.List
	if err := c.do(ctx, http.MethodPut, "/api/lists/"+url.PathEscape(l.ID), nil, l, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteList(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/lists/"+url.PathEscape(id), nil, nil, nil)
}

func (c *HTTPClient) ItemsChangedSince(ctx context.Context, since time.Time) ([]models.Item, error) {
	var items []models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", sinceQuery(since), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) ItemsByList(ctx context.Context, listID string) ([]models.Item, error) {
	q := url.Values{}
	q.Set("list_id", listID)
	var items []models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", q, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var i models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(id), nil, nil, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (c *HTTPClient) CreateItem(ctx context.Context, i models.Item) (*models.Item, error) {
	var out models.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", nil, i, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateItem(ctx context.Context, i models.Item) (*models.Item, error) {
	var out models.Item
	if err := c.do(ctx, http.MethodPut, "/api/items/"+url.PathEscape(i.ID), nil, i, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil, nil)
}
