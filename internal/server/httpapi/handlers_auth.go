package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"shoplist/internal/common"
	"shoplist/internal/server/auth"
	"shoplist/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		writeError(w, fmt.Errorf("%w: email and a password of at least 8 characters are required", common.ErrValidation))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error(r.Context(), "failed to hash password", "error", err)
		writeError(w, err)
		return
	}

	user, err := s.users.Create(r.Context(), &models.User{Email: req.Email, PasswordHash: hash})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// A missing account reads the same as a bad password.
		writeError(w, common.ErrUnauthorized)
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, common.ErrUnauthorized)
		return
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		s.log.Error(r.Context(), "failed to mint token", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: user.ID, ExpiresAt: expiresAt})
}
