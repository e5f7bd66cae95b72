// Package remote defines the contract with the backend data service and its
// HTTP implementation.
//
// Common failure conditions are exposed as sentinel errors from
// internal/common that callers match with errors.Is: ErrUnavailable,
// ErrUnauthorized, ErrNotFound. Connectivity absence is not special-cased
// here; callers treat ErrUnavailable as "go offline".
package remote

import (
	"context"
	"time"

	"shoplist/internal/client/models"
)

// Session is the authenticated state returned by Login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client is the transport-agnostic API surface of the remote data service.
// All entity calls are implicitly scoped to the authenticated user.
type Client interface {
	Close() error

	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*Session, error)

	// ListsChangedSince returns lists with updated_at >= since. A zero
	// since fetches everything.
	ListsChangedSince(ctx context.Context, since time.Time) ([]models.List, error)
	GetList(ctx context.Context, id string) (*models.List, error)
	CreateList(ctx context.Context, l models.List) (*models.List, error)
	UpdateList(ctx context.Context, l models.List) (*models.List, error)
	DeleteList(ctx context.Context, id string) error

	// ItemsChangedSince returns items of the user's lists with
	// updated_at >= since.
	ItemsChangedSince(ctx context.Context, since time.Time) ([]models.Item, error)
	ItemsByList(ctx context.Context, listID string) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, i models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, i models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
}
