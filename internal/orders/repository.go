package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/mercado-api/internal/database"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, now: time.Now}
}

// Create stores a pending order and its items in one transaction. Items are
// inserted one by one in input order; an empty slice creates an order with a
// zero total and no items. Any failure rolls the whole order back and wraps
// domain.ErrOrderCreationFailed.
func (r *OrderRepository) Create(ctx context.Context, actorID int64, items []domain.OrderItem) (*domain.Order, error) {
	order := &domain.Order{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Items:     items,
		Total:     domain.OrderTotal(items),
		Status:    domain.OrderStatusPending,
		CreatedAt: r.now().UTC(),
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pedidos (id_pedido, id_negocio, fecha_pedido, estado_pedido, monto_total)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, order.ActorID, order.CreatedAt, order.Status, order.Total)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, item := range items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO pedido_producto (id_pedido, id_producto, cantidad, precio)
				VALUES ($1, $2, $3, $4)
			`, order.ID, item.ProductID, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderCreationFailed, err)
	}

	return order, nil
}

// orderRow is one row of the orders/items/products outer join. Item columns
// are nil for orders without items.
type orderRow struct {
	OrderID     string
	CreatedAt   time.Time
	Status      domain.OrderStatus
	Total       decimal.Decimal
	ProductID   *int64
	Quantity    *int
	Price       *decimal.Decimal
	ProductName *string
}

// ListByActor returns the actor's orders with their items, oldest first.
// Items whose product was deleted keep a nil name.
func (r *OrderRepository) ListByActor(ctx context.Context, actorID int64) ([]domain.OrderWithLines, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id_pedido, p.fecha_pedido, p.estado_pedido, p.monto_total,
		       pp.id_producto, pp.cantidad, pp.precio, pr.nombre
		FROM pedidos p
		LEFT JOIN pedido_producto pp ON p.id_pedido = pp.id_pedido
		LEFT JOIN productos pr ON pp.id_producto = pr.id_producto
		WHERE p.id_negocio = $1
		ORDER BY p.fecha_pedido, p.id_pedido, pp.id_linea
	`, actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var flat []orderRow
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(&row.OrderID, &row.CreatedAt, &row.Status, &row.Total,
			&row.ProductID, &row.Quantity, &row.Price, &row.ProductName); err != nil {
			return nil, fmt.Errorf("%w: scan order row: %v", domain.ErrPersistence, err)
		}
		flat = append(flat, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate orders: %v", domain.ErrPersistence, err)
	}

	return groupOrderRows(flat), nil
}

// groupOrderRows nests flat join rows by order id. Orders keep the position
// of their first row and items keep row order within their order.
func groupOrderRows(rows []orderRow) []domain.OrderWithLines {
	orders := []domain.OrderWithLines{}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			orders = append(orders, domain.OrderWithLines{
				ID:        row.OrderID,
				CreatedAt: row.CreatedAt,
				Status:    row.Status,
				Total:     row.Total,
				Lines:     []domain.OrderLine{},
			})
			i = len(orders) - 1
			index[row.OrderID] = i
		}

		if row.ProductID == nil {
			continue
		}

		orders[i].Lines = append(orders[i].Lines, domain.OrderLine{
			ProductID: row.ProductID,
			Name:      row.ProductName,
			Quantity:  row.Quantity,
			Price:     row.Price,
		})
	}

	return orders
}
