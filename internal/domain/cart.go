package domain

import "github.com/shopspring/decimal"

type CartStatus string

const (
	CartStatusActive   CartStatus = "activo"
	CartStatusInactive CartStatus = "inactivo"
)

type CartLine struct {
	ID        int64      `json:"id_carrito"`
	ActorID   int64      `json:"id_negocio"`
	ProductID int64      `json:"id_producto"`
	Quantity  int        `json:"cantidad"`
	Status    CartStatus `json:"estado"`
}

// CartEntry is an active cart line joined with the current product data.
type CartEntry struct {
	ProductID  int64            `json:"id_producto"`
	Quantity   int              `json:"cantidad"`
	Name       string           `json:"nombre"`
	Price      decimal.Decimal  `json:"precio"`
	ImageURL   *string          `json:"imagen_url"`
	SupplierID int64            `json:"id_empresa"`
	Discount   *decimal.Decimal `json:"descuento"`
}
