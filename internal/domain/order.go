package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// OrderStatusPending is the only status orders are created with; nothing in
// the API transitions it.
const OrderStatusPending OrderStatus = "pendiente"

// OrderItem is one line of an order. Price is captured when the order is
// placed and never re-read from the catalog.
type OrderItem struct {
	ProductID int64           `json:"id_producto"`
	Quantity  int             `json:"cantidad"`
	Price     decimal.Decimal `json:"precio"`
}

// OrderLine is an OrderItem as read back, with the current product name.
// Name is nil when the product no longer exists.
type OrderLine struct {
	ProductID *int64           `json:"id_producto"`
	Name      *string          `json:"nombre"`
	Quantity  *int             `json:"cantidad"`
	Price     *decimal.Decimal `json:"precio"`
}

type Order struct {
	ID        string          `json:"id_pedido"`
	ActorID   int64           `json:"id_negocio"`
	Items     []OrderItem     `json:"-"`
	Total     decimal.Decimal `json:"monto_total"`
	Status    OrderStatus     `json:"estado_pedido"`
	CreatedAt time.Time       `json:"fecha_pedido"`
}

// OrderWithLines is the read model returned by order listings.
type OrderWithLines struct {
	ID        string          `json:"id_pedido"`
	CreatedAt time.Time       `json:"fecha_pedido"`
	Status    OrderStatus     `json:"estado_pedido"`
	Total     decimal.Decimal `json:"monto_total"`
	Lines     []OrderLine     `json:"productos"`
}

// OrderTotal sums price * quantity over items. An empty slice totals zero.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
