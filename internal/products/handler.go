package products

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type Store interface {
	Create(ctx context.Context, p *domain.Product) (int64, error)
	List(ctx context.Context, supplierID int64) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, id, supplierID int64, c Changes) error
	Delete(ctx context.Context, id, supplierID int64) error
}

type Cache interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	store  Store
	cache  Cache
	logger *slog.Logger
}

// NewHandler wires the catalog endpoints. cache may be nil.
func NewHandler(store Store, cache Cache, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

type createProductRequest struct {
	Name        string           `json:"nombre"`
	Description *string          `json:"descripcion"`
	Price       decimal.Decimal  `json:"precio"`
	ImageURL    *string          `json:"imagen_url"`
	Tag         *string          `json:"etiqueta"`
	Discount    *decimal.Decimal `json:"descuento"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		h.writeError(w, http.StatusBadRequest, "nombre y precio son obligatorios")
		return
	}

	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		SupplierID:  supplierID,
		Tag:         req.Tag,
		Discount:    req.Discount,
	}

	id, err := h.store.Create(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to create product", "error", err, "supplier_id", supplierID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", id, "supplier_id", supplierID)
	h.writeJSON(w, http.StatusCreated, map[string]any{"mensaje": "producto creado con éxito", "id_producto": id})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var supplierID int64
	if raw := r.URL.Query().Get("id_empresa"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid id_empresa")
			return
		}
		supplierID = id
	}

	products, err := h.store.List(r.Context(), supplierID)
	if err != nil {
		h.logger.Error("failed to list products", "error", err, "supplier_id", supplierID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if h.cache != nil {
		p, err := h.cache.Get(r.Context(), id)
		if err == nil {
			h.writeJSON(w, http.StatusOK, p)
			return
		}
		if !errors.Is(err, ErrCacheMiss) {
			h.logger.Warn("product cache read failed", "error", err, "product_id", id)
		}
	}

	p, err := h.store.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), p); err != nil {
			h.logger.Warn("product cache write failed", "error", err, "product_id", id)
		}
	}

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}

	var changes Changes
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if changes.Price != nil && changes.Price.IsNegative() {
		h.writeError(w, http.StatusBadRequest, "precio inválido")
		return
	}

	err := h.store.Update(r.Context(), id, supplierID, changes)
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, "no hay campos para actualizar")
		return
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "producto no encontrado o no tiene permiso para editarlo")
		return
	case err != nil:
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.invalidate(r.Context(), id)
	h.logger.Info("product updated", "product_id", id, "supplier_id", supplierID)
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "producto actualizado con éxito"})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	supplierID, ok := h.supplierID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), id, supplierID)
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "producto no encontrado o no tiene permiso para eliminarlo")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.invalidate(r.Context(), id)
	h.logger.Info("product deleted", "product_id", id, "supplier_id", supplierID)
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "producto eliminado con éxito"})
}

func (h *Handler) invalidate(ctx context.Context, id int64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, id); err != nil {
		h.logger.Warn("product cache invalidation failed", "error", err, "product_id", id)
	}
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid id_producto")
		return 0, false
	}
	return id, true
}

// supplierID returns the authenticated supplier. Stores cannot manage the
// catalog.
func (h *Handler) supplierID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if actor.Type != domain.ActorSupplier {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return 0, false
	}
	return actor.ID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
