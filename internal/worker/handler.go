package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/mercado-api/internal/domain"
	"github.com/joao-fontenele/mercado-api/internal/messaging"
)

type CartClearer interface {
	ClearThrough(ctx context.Context, actorID, maxLineID int64) (int64, error)
}

// CartHandler empties the cart lines an order was placed from. Lines the
// store adds after placing the order are left alone.
type CartHandler struct {
	carts  CartClearer
	logger *slog.Logger
}

func NewCartHandler(carts CartClearer, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// Handle processes one pedido.creado payload. Malformed payloads are
// reported as permanent failures; storage faults ask for redelivery.
func (h *CartHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	if event.ActorID <= 0 {
		return fmt.Errorf("order %s has no actor", event.OrderID)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "actor_id", event.ActorID, "cart_line_id", event.CartLineID)

	if event.CartLineID <= 0 {
		h.logger.Info("cart was empty at order time", "order_id", event.OrderID, "actor_id", event.ActorID)
		return nil
	}

	n, err := h.carts.ClearThrough(ctx, event.ActorID, event.CartLineID)
	if err != nil {
		h.logger.Error("failed to clear cart", "error", err, "order_id", event.OrderID, "actor_id", event.ActorID)
		return fmt.Errorf("clear cart for actor %d: %w: %w", event.ActorID, messaging.ErrRetry, err)
	}

	h.logger.Info("cart cleared after order", "order_id", event.OrderID, "actor_id", event.ActorID, "lines", n)
	return nil
}
