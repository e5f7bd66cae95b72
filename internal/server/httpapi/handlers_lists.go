package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"shoplist/internal/common"
	"shoplist/internal/server/models"
)

// parseSince reads the optional "since" query parameter, milliseconds since
// epoch. Absent means "everything".
func parseSince(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid since parameter", common.ErrValidation)
	}
	return time.UnixMilli(ms), nil
}

func (s *Server) handleListsChangedSince(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lists, err := s.lists.ChangedSince(r.Context(), UserID(r.Context()), since)
	if err != nil {
		s.log.Error(r.Context(), "failed to query lists", "error", err)
		writeError(w, err)
		return
	}
	if lists == nil {
		lists = []models.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var l models.List
	if err := decodeJSON(r, &l); err != nil {
		writeError(w, err)
		return
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", common.ErrValidation))
		return
	}

	// Offline-created lists bring their own id; server-side creations get
	// one here.
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	userID := UserID(r.Context())
	l.OwnerID = userID
	if l.CreatedBy == "" {
		l.CreatedBy = userID
	}

	created, err := s.lists.Create(r.Context(), &l)
	if err != nil {
		s.log.Error(r.Context(), "failed to create list", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l, err := s.lists.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var l models.List
	if err := decodeJSON(r, &l); err != nil {
		writeError(w, err)
		return
	}
	l.ID = r.PathValue("id")
	l.OwnerID = UserID(r.Context())
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", common.ErrValidation))
		return
	}

	updated, err := s.lists.Update(r.Context(), &l)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	err := s.lists.Delete(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
