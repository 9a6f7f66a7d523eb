package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LinkAPI interface {
	List(ctx context.Context, id auth.Identity) ([]models.Link, error)
	Public(ctx context.Context, username string) ([]models.Link, error)
	Create(ctx context.Context, id auth.Identity, in services.LinkInput) (*models.Link, error)
	Update(ctx context.Context, id auth.Identity, linkID string, in services.LinkUpdate) (*models.Link, error)
	Delete(ctx context.Context, id auth.Identity, linkID string) error
	Reorder(ctx context.Context, id auth.Identity, in services.ReorderInput) (int, error)
}

type ReorderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

type LinkHandler struct {
	svc LinkAPI
	log *zap.Logger
}

func NewLinkHandler(svc LinkAPI, log *zap.Logger) *LinkHandler {
	return &LinkHandler{svc: svc, log: log}
}

// List handles GET /api/links
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	links, err := h.svc.List(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(links), Data: links})
}

// Public handles GET /api/links/public/{username}
func (h *LinkHandler) Public(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Public(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(links), Data: links})
}

// Create handles POST /api/links
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.LinkInput
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.svc.Create(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse{Success: true, Data: link})
}

// Update handles PUT /api/links/{id}
func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.LinkUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.svc.Update(r.Context(), id, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: link})
}

// Delete handles DELETE /api/links/{id}
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Link removed"})
}

// Reorder handles PUT /api/links/reorder
func (h *LinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.ReorderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.svc.Reorder(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ReorderResponse{Success: true, Message: "Links reordered successfully", Updated: n})
}
