package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/services"
	"go.uber.org/zap"
)

type UserAPI interface {
	Me(ctx context.Context, id auth.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, in services.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, in services.PasswordChange) error
}

type UserHandler struct {
	svc UserAPI
	log *zap.Logger
}

func NewUserHandler(svc UserAPI, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Me(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: user})
}

// UpdateMe handles PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: user})
}

// ChangePassword handles PUT /api/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), id, req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Password updated successfully"})
}
