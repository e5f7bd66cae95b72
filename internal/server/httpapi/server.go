// Package httpapi exposes the shopping-list service over HTTP/JSON. The
// surface is the exact contract the client's remote.Client consumes:
// register/login/ping plus user-scoped CRUD with a "changed since"
// filter for sync pulls.
package httpapi

import (
	"net/http"
	"time"

	"shoplist/internal/logging"
	"shoplist/internal/server/repositories"
)

// Server bundles the handlers with their dependencies.
type Server struct {
	log logging.Logger

	users repositories.UserRepository
	lists repositories.ListRepository
	items repositories.ItemRepository

	secret   []byte
	tokenTTL time.Duration
}

// New constructs the HTTP API server.
func New(log logging.Logger, users repositories.UserRepository, lists repositories.ListRepository,
	items repositories.ItemRepository, secret []byte, tokenTTL time.Duration) *Server {
	return &Server{
		log:      log,
		users:    users,
		lists:    lists,
		items:    items,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Routes builds the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/lists", s.handleListsChangedSince)
	authed.HandleFunc("POST /api/lists", s.handleCreateList)
	authed.HandleFunc("GET /api/lists/{id}", s.handleGetList)
	authed.HandleFunc("PUT /api/lists/{id}", s.handleUpdateList)
	authed.HandleFunc("DELETE /api/lists/{id}", s.handleDeleteList)

	authed.HandleFunc("GET /api/items", s.handleItems)
	authed.HandleFunc("POST /api/items", s.handleCreateItem)
	authed.HandleFunc("GET /api/items/{id}", s.handleGetItem)
	authed.HandleFunc("PUT /api/items/{id}", s.handleUpdateItem)
	authed.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)

	mux.Handle("/api/", s.requireAuth(authed))

	return mux
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
