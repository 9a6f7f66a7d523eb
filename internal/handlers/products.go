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

type ProductAPI interface {
	List(ctx context.Context, id auth.Identity) ([]models.Product, error)
	Public(ctx context.Context, username string) ([]models.Product, error)
	Create(ctx context.Context, id auth.Identity, in services.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id auth.Identity, productID string, in services.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id auth.Identity, productID string) error
}

type ProductHandler struct {
	svc ProductAPI
	log *zap.Logger
}

func NewProductHandler(svc ProductAPI, log *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	products, err := h.svc.List(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(products), Data: products})
}

// Public handles GET /api/products/public/{username}
func (h *ProductHandler) Public(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Public(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Success: true, Count: len(products), Data: products})
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.svc.Create(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse{Success: true, Data: product})
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req services.ProductUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.svc.Update(r.Context(), id, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: product})
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Product removed"})
}
