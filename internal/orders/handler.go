package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/domain"
	"github.com/joao-fontenele/mercado-api/internal/telemetry"
)

type Store interface {
	Create(ctx context.Context, actorID int64, items []domain.OrderItem) (*domain.Order, error)
	ListByActor(ctx context.Context, actorID int64) ([]domain.OrderWithLines, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// CartWatermark reports the newest active cart line of a store so the
// cleanup worker only clears what the order was placed from.
type CartWatermark interface {
	LastActiveLineID(ctx context.Context, actorID int64) (int64, error)
}

type Handler struct {
	store     Store
	publisher EventPublisher
	carts     CartWatermark
	metrics   *orderMetrics
	logger    *slog.Logger
}

// NewHandler wires the order endpoints. publisher may be nil, in which case
// no events are emitted; carts may be nil when events are not published.
func NewHandler(store Store, publisher EventPublisher, carts CartWatermark, logger *slog.Logger) (*Handler, error) {
	m, err := newOrderMetrics()
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		publisher: publisher,
		carts:     carts,
		metrics:   m,
		logger:    logger,
	}, nil
}

type createOrderRequest struct {
	ActorID *int64             `json:"id_negocio"`
	Items   []domain.OrderItem `json:"productos"`
}

type createOrderResponse struct {
	Message string `json:"mensaje"`
	OrderID string `json:"id_pedido"`
	Total   string `json:"monto_total"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, ok := h.actorID(w, r, req.ActorID)
	if !ok {
		return
	}

	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 || item.Price.IsNegative() {
			h.writeError(w, http.StatusBadRequest, "producto inválido en el pedido")
			return
		}
	}

	requestID := telemetry.RequestID(r.Context())

	var cartLineID int64
	if h.publisher != nil && h.carts != nil {
		id, err := h.carts.LastActiveLineID(r.Context(), actorID)
		if err != nil {
			h.metrics.recordFailed(r.Context())
			h.logger.Error("failed to read cart watermark", "error", err, "actor_id", actorID, "request_id", requestID)
			h.writeError(w, http.StatusInternalServerError, "error al crear el pedido")
			return
		}
		cartLineID = id
	}

	order, err := h.store.Create(r.Context(), actorID, req.Items)
	if err != nil {
		h.metrics.recordFailed(r.Context())
		h.logger.Error("failed to create order", "error", err, "actor_id", actorID, "items", len(req.Items), "request_id", requestID)
		h.writeError(w, http.StatusInternalServerError, "error al crear el pedido")
		return
	}
	h.metrics.recordCreated(r.Context(), order)

	if h.publisher != nil {
		event := domain.OrderCreatedEvent{
			OrderID:    order.ID,
			ActorID:    order.ActorID,
			Items:      order.Items,
			Total:      order.Total,
			CartLineID: cartLineID,
			Timestamp:  order.CreatedAt,
		}
		if err := h.publisher.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID, "request_id", requestID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "actor_id", actorID, "total", order.Total.String(), "request_id", requestID)
	h.writeJSON(w, http.StatusCreated, createOrderResponse{
		Message: "pedido creado con éxito",
		OrderID: order.ID,
		Total:   order.Total.String(),
	})
}

func (h *Handler) HandleListByActor(w http.ResponseWriter, r *http.Request) {
	pathID, err := strconv.ParseInt(r.PathValue("id_negocio"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id_negocio")
		return
	}

	actorID, ok := h.actorID(w, r, &pathID)
	if !ok {
		return
	}

	orders, err := h.store.ListByActor(r.Context(), actorID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "actor_id", actorID, "request_id", telemetry.RequestID(r.Context()))
		h.writeError(w, http.StatusInternalServerError, "error al obtener los pedidos")
		return
	}

	h.logger.Info("orders listed", "actor_id", actorID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

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
