package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"shoplist/internal/common"
	"shoplist/internal/server/models"
)

// handleItems serves both item read paths: ?list_id= lists one list's
// items; otherwise ?since= filters by modification time for sync pulls.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var (
		items []models.Item
		err   error
	)
	if listID := r.URL.Query().Get("list_id"); listID != "" {
		items, err = s.items.ByList(r.Context(), userID, listID)
	} else {
		since, perr := parseSince(r)
		if perr != nil {
			writeError(w, perr)
			return
		}
		items, err = s.items.ChangedSince(r.Context(), userID, since)
	}
	if err != nil {
		s.log.Error(r.Context(), "failed to query items", "error", err)
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var i models.Item
	if err := decodeJSON(r, &i); err != nil {
		writeError(w, err)
		return
	}
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" || i.ListID == "" {
		writeError(w, fmt.Errorf("%w: name and list_id are required", common.ErrValidation))
		return
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Amount <= 0 {
		i.Amount = 1
	}
	if i.Unit == "" {
		i.Unit = "pcs"
	}
	if i.Category == "" {
		i.Category = "Other"
	}

	created, err := s.items.Create(r.Context(), UserID(r.Context()), &i)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	i, err := s.items.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var i models.Item
	if err := decodeJSON(r, &i); err != nil {
		writeError(w, err)
		return
	}
	i.ID = r.PathValue("id")
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", common.ErrValidation))
		return
	}

	updated, err := s.items.Update(r.Context(), UserID(r.Context()), &i)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	err := s.items.Delete(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
