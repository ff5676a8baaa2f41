package carts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// AddLine always inserts a new active line, even when one already exists
// for the same product.
func (r *CartRepository) AddLine(ctx context.Context, actorID, productID int64, quantity int) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carritos (id_negocio, id_producto, cantidad, estado)
		VALUES ($1, $2, $3, $4)
		RETURNING id_carrito
	`, actorID, productID, quantity, domain.CartStatusActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert cart line: %v", domain.ErrPersistence, err)
	}

	return id, nil
}

func (r *CartRepository) ActiveLines(ctx context.Context, actorID int64) ([]domain.CartEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id_producto, c.cantidad, p.nombre, p.precio, p.imagen_url, p.id_empresa, p.descuento
		FROM carritos c
		JOIN productos p ON c.id_producto = p.id_producto
		WHERE c.id_negocio = $1 AND c.estado = $2
		ORDER BY c.id_carrito
	`, actorID, domain.CartStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: query cart: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.CartEntry{}
	for rows.Next() {
		var e domain.CartEntry
		if err := rows.Scan(&e.ProductID, &e.Quantity, &e.Name, &e.Price, &e.ImageURL, &e.SupplierID, &e.Discount); err != nil {
			return nil, fmt.Errorf("%w: scan cart line: %v", domain.ErrPersistence, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate cart: %v", domain.ErrPersistence, err)
	}

	return entries, nil
}

// Clear deactivates every active line of the actor and reports how many
// changed. Clearing an empty cart is not an error.
func (r *CartRepository) Clear(ctx context.Context, actorID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE carritos SET estado = $2
		WHERE id_negocio = $1 AND estado = $3
	`, actorID, domain.CartStatusInactive, domain.CartStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%w: clear cart: %v", domain.ErrPersistence, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: clear cart: %v", domain.ErrPersistence, err)
	}

	return n, nil
}

// ClearThrough deactivates the actor's active lines whose id is at most
// maxLineID. Lines added after that watermark stay active.
func (r *CartRepository) ClearThrough(ctx context.Context, actorID, maxLineID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE carritos SET estado = $2
		WHERE id_negocio = $1 AND estado = $3 AND id_carrito <= $4
	`, actorID, domain.CartStatusInactive, domain.CartStatusActive, maxLineID)
	if err != nil {
		return 0, fmt.Errorf("%w: clear cart: %v", domain.ErrPersistence, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: clear cart: %v", domain.ErrPersistence, err)
	}

	return n, nil
}

// LastActiveLineID returns the highest active line id of the actor, or 0
// when the cart is empty.
func (r *CartRepository) LastActiveLineID(ctx context.Context, actorID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(id_carrito), 0) FROM carritos
		WHERE id_negocio = $1 AND estado = $2
	`, actorID, domain.CartStatusActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: read cart watermark: %v", domain.ErrPersistence, err)
	}

	return id, nil
}

// UpdateQuantity sets the quantity of the actor's oldest active line for the
// product, or deactivates it when quantity <= 0. No matching line yields
// domain.ErrNotFound.
func (r *CartRepository) UpdateQuantity(ctx context.Context, actorID, productID int64, quantity int) error {
	var (
		result sql.Result
		err    error
	)
	if quantity <= 0 {
		result, err = r.db.ExecContext(ctx, `
			UPDATE carritos SET estado = $3
			WHERE id_carrito = (
				SELECT id_carrito FROM carritos
				WHERE id_negocio = $1 AND id_producto = $2 AND estado = $4
				ORDER BY id_carrito
				LIMIT 1
			)
		`, actorID, productID, domain.CartStatusInactive, domain.CartStatusActive)
	} else {
		result, err = r.db.ExecContext(ctx, `
			UPDATE carritos SET cantidad = $3
			WHERE id_carrito = (
				SELECT id_carrito FROM carritos
				WHERE id_negocio = $1 AND id_producto = $2 AND estado = $4
				ORDER BY id_carrito
				LIMIT 1
			)
		`, actorID, productID, quantity, domain.CartStatusActive)
	}
	if err != nil {
		return fmt.Errorf("%w: update cart line: %v", domain.ErrPersistence, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update cart line: %v", domain.ErrPersistence, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: no active line for product %d", domain.ErrNotFound, productID)
	}

	return nil
}
