// Package services contains the application services of the client: the
// offline-aware façade over lists and items, and authentication with a
// locally persisted session.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shoplist/internal/client/remote"
	"shoplist/internal/client/store"
	"shoplist/internal/common"
)

// sessionKey is the metadata key holding the serialized session.
const sessionKey = "session"

// Syncer is the part of the sync engine the façade depends on: a
// fire-and-forget trigger and the current connectivity verdict.
type Syncer interface {
	RequestSync()
	Online() bool
}

// tokenSetter is implemented by transports that carry a bearer token.
type tokenSetter interface {
	SetToken(token string)
}

// AuthService handles registration, login and the persisted session.
//
// Contract:
//   - Register: create an account on the server.
//   - Login: authenticate and persist the session locally, so a restart
//     while offline keeps the user logged in until the token expires.
//   - Restore: reload a previously persisted session at startup.
//   - UserID: the authenticated user id, or common.ErrNotLoggedIn.
//   - Logout: drop the session locally.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Restore(ctx context.Context) error
	UserID(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by the remote client and
// the local store's key-value repository.
type authService struct {
	client remote.Client
	store  *store.Store

	mu      sync.Mutex
	session *remote.Session

	now func() time.Time
}

// NewAuthService constructs an AuthService bound to the given client and store.
func NewAuthService(client remote.Client, st *store.Store) AuthService {
	return &authService{client: client, store: st, now: time.Now}
}

// Register creates a new account. It does not log the user in.
func (a *authService) Register(ctx context.Context, email, password string) error {
	return a.client.Register(ctx, email, password)
}

// Login authenticates against the server and persists the session locally.
func (a *authService) Login(ctx context.Context, email, password string) error {
	session, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := a.store.KV().Set(ctx, sessionKey, raw); err != nil {
		// The session still works for this process; only persistence
		// across restarts is lost.
		if !isStoreDisabled(err) {
			return err
		}
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return nil
}

// Restore reloads a persisted session, if any, and re-arms the transport
// token. An expired session is discarded silently.
func (a *authService) Restore(ctx context.Context) error {
	raw, err := a.store.KV().Get(ctx, sessionKey)
	if err != nil || raw == nil {
		return err
	}

	var session remote.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// Corrupt or legacy payload: drop it.
		return a.store.KV().Delete(ctx, sessionKey)
	}
	if !session.ExpiresAt.IsZero() && !a.now().Before(session.ExpiresAt) {
		return a.store.KV().Delete(ctx, sessionKey)
	}

	if ts, ok := a.client.(tokenSetter); ok {
		ts.SetToken(session.Token)
	}

	a.mu.Lock()
	a.session = &session
	a.mu.Unlock()
	return nil
}

// UserID returns the id of the authenticated user. A missing or expired
// session yields common.ErrNotLoggedIn.
func (a *authService) UserID(ctx context.Context) (string, error) {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session == nil {
		return "", common.ErrNotLoggedIn
	}
	if !session.ExpiresAt.IsZero() && !a.now().Before(session.ExpiresAt) {
		return "", fmt.Errorf("%w: session expired", common.ErrNotLoggedIn)
	}
	return session.UserID, nil
}

// Logout drops the session from memory and from the local store.
func (a *authService) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()

	if ts, ok := a.client.(tokenSetter); ok {
		ts.SetToken("")
	}
	err := a.store.KV().Delete(ctx, sessionKey)
	if isStoreDisabled(err) {
		return nil
	}
	return err
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases the underlying client resources.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
