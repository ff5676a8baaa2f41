package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published on pedido.creado. CartLineID is the highest
// active cart line the store had when the order was placed; 0 means the cart
// was empty.
type OrderCreatedEvent struct {
	OrderID    string          `json:"id_pedido"`
	ActorID    int64           `json:"id_negocio"`
	Items      []OrderItem     `json:"productos"`
	Total      decimal.Decimal `json:"monto_total"`
	CartLineID int64           `json:"id_carrito_max"`
	Timestamp  time.Time       `json:"timestamp"`
}
