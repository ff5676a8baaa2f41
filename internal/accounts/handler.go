package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type StoreRepo interface {
	Create(ctx context.Context, in StoreInput) (int64, error)
	List(ctx context.Context) ([]domain.Store, error)
	Get(ctx context.Context, id int64) (*domain.Store, error)
	Update(ctx context.Context, id int64, in StoreInput) error
	Delete(ctx context.Context, id int64) error
}

type SupplierRepo interface {
	Create(ctx context.Context, in SupplierInput) (int64, error)
	List(ctx context.Context) ([]domain.Supplier, error)
	Get(ctx context.Context, id int64) (*domain.Supplier, error)
	Update(ctx context.Context, id int64, in SupplierInput) error
	Delete(ctx context.Context, id int64) ([]int64, error)
}

// ProductCache drops cached products whose rows went away with their
// supplier.
type ProductCache interface {
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	stores    StoreRepo
	suppliers SupplierRepo
	cache     ProductCache
	logger    *slog.Logger
}

// NewHandler wires the account endpoints. cache may be nil.
func NewHandler(stores StoreRepo, suppliers SupplierRepo, cache ProductCache, logger *slog.Logger) *Handler {
	return &Handler{
		stores:    stores,
		suppliers: suppliers,
		cache:     cache,
		logger:    logger,
	}
}

func (h *Handler) HandleCreateStore(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readStore(w, r)
	if !ok {
		return
	}
	if err := in.requireSignupFields(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.stores.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "failed to create store", err)
		return
	}

	h.logger.Info("store created", "store_id", id)
	h.writeJSON(w, http.StatusCreated, map[string]any{"mensaje": "negocio creado con éxito", "id_negocio": id})
}

func (h *Handler) HandleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.List(r.Context())
	if err != nil {
		h.fail(w, "failed to list stores", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stores)
}

func (h *Handler) HandleGetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	store, err := h.stores.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to get store", err)
		return
	}
	h.writeJSON(w, http.StatusOK, store)
}

func (h *Handler) HandleUpdateStore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r, domain.ActorStore)
	if !ok {
		return
	}

	in, ok := h.readStore(w, r)
	if !ok {
		return
	}

	if err := h.stores.Update(r.Context(), id, in); err != nil {
		h.fail(w, "failed to update store", err)
		return
	}

	h.logger.Info("store updated", "store_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"mensaje": "negocio actualizado con éxito", "id_negocio": id})
}

func (h *Handler) HandleDeleteStore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r, domain.ActorStore)
	if !ok {
		return
	}

	if err := h.stores.Delete(r.Context(), id); err != nil {
		h.fail(w, "failed to delete store", err)
		return
	}

	h.logger.Info("store deleted", "store_id", id)
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "negocio eliminado con éxito"})
}

func (h *Handler) HandleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readSupplier(w, r)
	if !ok {
		return
	}
	if err := in.requireSignupFields(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.suppliers.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "failed to create supplier", err)
		return
	}

	h.logger.Info("supplier created", "supplier_id", id)
	h.writeJSON(w, http.StatusCreated, map[string]any{"mensaje": "empresa creada con éxito", "id_empresa": id})
}

func (h *Handler) HandleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		h.fail(w, "failed to list suppliers", err)
		return
	}
	h.writeJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) HandleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	supplier, err := h.suppliers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to get supplier", err)
		return
	}
	h.writeJSON(w, http.StatusOK, supplier)
}

func (h *Handler) HandleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r, domain.ActorSupplier)
	if !ok {
		return
	}

	in, ok := h.readSupplier(w, r)
	if !ok {
		return
	}

	if err := h.suppliers.Update(r.Context(), id, in); err != nil {
		h.fail(w, "failed to update supplier", err)
		return
	}

	h.logger.Info("supplier updated", "supplier_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"mensaje": "empresa actualizada con éxito", "id_empresa": id})
}

func (h *Handler) HandleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r, domain.ActorSupplier)
	if !ok {
		return
	}

	productIDs, err := h.suppliers.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to delete supplier", err)
		return
	}

	if h.cache != nil {
		for _, pid := range productIDs {
			if err := h.cache.Delete(r.Context(), pid); err != nil {
				h.logger.Warn("failed to invalidate product cache", "error", err, "product_id", pid)
			}
		}
	}

	h.logger.Info("supplier deleted", "supplier_id", id, "products", len(productIDs))
	h.writeJSON(w, http.StatusOK, map[string]string{"mensaje": "empresa eliminada con éxito"})
}

func (h *Handler) readStore(w http.ResponseWriter, r *http.Request) (StoreInput, bool) {
	if err := parseForm(r); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form")
		return StoreInput{}, false
	}

	profile, err := readProfile(r, "informacion")
	if err != nil {
		h.fail(w, "failed to read store form", err)
		return StoreInput{}, false
	}

	photo, err := readImage(r, "foto", photoRule)
	if err != nil {
		h.fail(w, "failed to read store photo", err)
		return StoreInput{}, false
	}

	return StoreInput{Profile: profile, Photo: photo}, true
}

func (h *Handler) readSupplier(w http.ResponseWriter, r *http.Request) (SupplierInput, bool) {
	if err := parseForm(r); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form")
		return SupplierInput{}, false
	}

	profile, err := readProfile(r, "descripcion")
	if err != nil {
		h.fail(w, "failed to read supplier form", err)
		return SupplierInput{}, false
	}

	logo, err := readImage(r, "logo", brandRule)
	if err != nil {
		h.fail(w, "failed to read supplier logo", err)
		return SupplierInput{}, false
	}

	qr, err := readImage(r, "QR_pago", brandRule)
	if err != nil {
		h.fail(w, "failed to read supplier payment qr", err)
		return SupplierInput{}, false
	}

	return SupplierInput{Profile: profile, Logo: logo, PaymentQR: qr}, true
}

// self resolves the path id and requires it to be the authenticated account
// of the given type.
func (h *Handler) self(w http.ResponseWriter, r *http.Request, kind domain.ActorType) (int64, bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return 0, false
	}

	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}

	if actor.Type != kind || actor.ID != id {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return 0, false
	}

	return id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// fail maps err to a status. Only unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "cuenta no encontrada")
	default:
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
