package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/mercado-api/internal/database"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

const productColumns = `id_producto, nombre, descripcion, precio, imagen_url, id_empresa, etiqueta, descuento`

// Changes lists the product fields a partial update may touch. Nil fields
// are left unchanged.
type Changes struct {
	Name        *string          `json:"nombre"`
	Description *string          `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio"`
	ImageURL    *string          `json:"imagen_url"`
	Tag         *string          `json:"etiqueta"`
	Discount    *decimal.Decimal `json:"descuento"`
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO productos (nombre, descripcion, precio, imagen_url, id_empresa, etiqueta, descuento)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id_producto
	`, p.Name, p.Description, p.Price, p.ImageURL, p.SupplierID, p.Tag, p.Discount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert product: %v", domain.ErrPersistence, err)
	}

	return id, nil
}

// List returns every product, or only the supplier's when supplierID is
// positive.
func (r *ProductRepository) List(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos`
	var args []any
	if supplierID > 0 {
		query += ` WHERE id_empresa = $1`
		args = append(args, supplierID)
	}
	query += ` ORDER BY id_producto`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate products: %v", domain.ErrPersistence, err)
	}

	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM productos WHERE id_producto = $1`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Update applies changes to a product owned by supplierID. A product that
// does not exist or belongs to another supplier yields domain.ErrNotFound.
func (r *ProductRepository) Update(ctx context.Context, id, supplierID int64, c Changes) error {
	upd := database.NewUpdate("productos").
		SetString("nombre", c.Name).
		SetIf(c.Description != nil, "descripcion", c.Description).
		SetIf(c.Price != nil, "precio", c.Price).
		SetIf(c.ImageURL != nil, "imagen_url", c.ImageURL).
		SetIf(c.Tag != nil, "etiqueta", c.Tag).
		SetIf(c.Discount != nil, "descuento", c.Discount)

	query, args, err := upd.Build(database.Where("id_producto", id), database.Where("id_empresa", supplierID))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update product: %v", domain.ErrPersistence, err)
	}

	return requireAffected(res)
}

func (r *ProductRepository) Delete(ctx context.Context, id, supplierID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM productos WHERE id_producto = $1 AND id_empresa = $2`, id, supplierID)
	if err != nil {
		return fmt.Errorf("%w: delete product: %v", domain.ErrPersistence, err)
	}

	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.SupplierID, &p.Tag, &p.Discount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan product: %v", domain.ErrPersistence, err)
	}
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", domain.ErrPersistence, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
