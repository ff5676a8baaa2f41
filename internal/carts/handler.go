package carts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type Store interface {
	AddLine(ctx context.Context, actorID, productID int64, quantity int) (int64, error)
	ActiveLines(ctx context.Context, actorID int64) ([]domain.CartEntry, error)
	Clear(ctx context.Context, actorID int64) (int64, error)
	UpdateQuantity(ctx context.Context, actorID, productID int64, quantity int) error
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// lineRequest carries id_usuario for compatibility with older clients; when
// present it must match the authenticated actor.
type lineRequest struct {
	ActorID   *int64 `json:"id_usuario"`
	ProductID int64  `json:"id_producto"`
	Quantity  int    `json:"cantidad"`
}

type clearRequest struct {
	ActorID *int64 `json:"id_usuario"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, ok := h.actorID(w, r, req.ActorID)
	if !ok {
		return
	}

	if req.ProductID <= 0 || req.Quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "id_producto y cantidad deben ser positivos")
		return
	}

	id, err := h.store.AddLine(r.Context(), actorID, req.ProductID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to add cart line", "error", err, "actor_id", actorID, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line added", "cart_line_id", id, "actor_id", actorID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusCreated, map[string]any{"mensaje": "producto añadido al carrito", "id_carrito": id})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	pathID, err := strconv.ParseInt(r.PathValue("id_usuario"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id_usuario")
		return
	}

	actorID, ok := h.actorID(w, r, &pathID)
	if !ok {
		return
	}

	entries, err := h.store.ActiveLines(r.Context(), actorID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "actor_id", actorID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart retrieved", "actor_id", actorID, "count", len(entries))
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, ok := h.actorID(w, r, req.ActorID)
	if !ok {
		return
	}

	n, err := h.store.Clear(r.Context(), actorID)
	if err != nil {
		h.logger.Error("failed to clear cart", "error", err, "actor_id", actorID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart cleared", "actor_id", actorID, "lines", n)
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "carrito vaciado"})
}

func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, ok := h.actorID(w, r, req.ActorID)
	if !ok {
		return
	}

	if req.ProductID <= 0 {
		h.writeError(w, http.StatusBadRequest, "id_producto debe ser positivo")
		return
	}

	if err := h.store.UpdateQuantity(r.Context(), actorID, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "producto no encontrado en el carrito")
			return
		}
		h.logger.Error("failed to update cart line", "error", err, "actor_id", actorID, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line updated", "actor_id", actorID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "cantidad actualizada"})
}

// actorID resolves the acting store and rejects suppliers or requests that
// name a different store.
func (h *Handler) actorID(w http.ResponseWriter, r *http.Request, claimed *int64) (int64, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}

	if actor.Type != domain.ActorStore {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return 0, false
	}

	if claimed != nil && *claimed != actor.ID {
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
