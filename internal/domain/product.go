package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64            `json:"id_producto"`
	Name        string           `json:"nombre"`
	Description *string          `json:"descripcion"`
	Price       decimal.Decimal  `json:"precio"`
	ImageURL    *string          `json:"imagen_url"`
	SupplierID  int64            `json:"id_empresa"`
	Tag         *string          `json:"etiqueta"`
	Discount    *decimal.Decimal `json:"descuento"`
}
