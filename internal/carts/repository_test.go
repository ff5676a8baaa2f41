package carts

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

func newMockRepo(t *testing.T) (*CartRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCartRepository(db), mock
}

func TestCartRepository_AddLine(t *testing.T) {
	t.Run("always inserts an active line", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		for i := int64(1); i <= 2; i++ {
			mock.ExpectQuery(`INSERT INTO carritos \(id_negocio, id_producto, cantidad, estado\)`).
				WithArgs(int64(1), int64(101), 2, "activo").
				WillReturnRows(sqlmock.NewRows([]string{"id_carrito"}).AddRow(i))
		}

		first, err := repo.AddLine(context.Background(), 1, 101, 2)
		require.NoError(t, err)
		second, err := repo.AddLine(context.Background(), 1, 101, 2)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps storage faults", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO carritos`).WillReturnError(errors.New("fk violation"))

		_, err := repo.AddLine(context.Background(), 1, 999, 1)
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}

func TestCartRepository_ActiveLines(t *testing.T) {
	columns := []string{"id_producto", "cantidad", "nombre", "precio", "imagen_url", "id_empresa", "descuento"}

	t.Run("joins product data", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM carritos c JOIN productos p`).
			WithArgs(int64(1), "activo").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(101, 2, "Café", "10.50", "https://img/cafe.png", 5, "0.10").
				AddRow(102, 1, "Azúcar", "3.00", nil, 5, nil))

		entries, err := repo.ActiveLines(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, int64(101), entries[0].ProductID)
		assert.True(t, entries[0].Price.Equal(decimal.RequireFromString("10.50")))
		require.NotNil(t, entries[0].Discount)
		assert.True(t, entries[0].Discount.Equal(decimal.RequireFromString("0.10")))
		assert.Nil(t, entries[1].ImageURL)
		assert.Nil(t, entries[1].Discount)
	})

	t.Run("returns an empty slice when there are no active lines", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM carritos c`).WillReturnRows(sqlmock.NewRows(columns))

		entries, err := repo.ActiveLines(context.Background(), 1)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestCartRepository_Clear(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE carritos SET estado = \$2 WHERE id_negocio = \$1 AND estado = \$3`).
		WithArgs(int64(1), "inactivo", "activo").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE carritos SET estado = \$2`).
		WithArgs(int64(1), "inactivo", "activo").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Clear(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.Clear(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ClearThrough(t *testing.T) {
	t.Run("only deactivates lines up to the watermark", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos SET estado = \$2 WHERE id_negocio = \$1 AND estado = \$3 AND id_carrito <= \$4`).
			WithArgs(int64(1), "inactivo", "activo", int64(12)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.ClearThrough(context.Background(), 1, 12)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps storage faults", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos`).WillReturnError(errors.New("connection reset"))

		_, err := repo.ClearThrough(context.Background(), 1, 12)
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}

func TestCartRepository_LastActiveLineID(t *testing.T) {
	t.Run("returns the highest active line", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(id_carrito\), 0\) FROM carritos WHERE id_negocio = \$1 AND estado = \$2`).
			WithArgs(int64(1), "activo").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(12)))

		id, err := repo.LastActiveLineID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps storage faults", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM carritos`).WillReturnError(errors.New("connection reset"))

		_, err := repo.LastActiveLineID(context.Background(), 1)
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}

func TestCartRepository_UpdateQuantity(t *testing.T) {
	t.Run("positive quantity sets the quantity", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos SET cantidad = \$3 WHERE id_carrito = \( SELECT id_carrito FROM carritos WHERE id_negocio = \$1 AND id_producto = \$2 AND estado = \$4 ORDER BY id_carrito LIMIT 1 \)`).
			WithArgs(int64(1), int64(101), 5, "activo").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateQuantity(context.Background(), 1, 101, 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	for _, q := range []int{0, -3} {
		t.Run("non-positive quantity deactivates the line", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`UPDATE carritos SET estado = \$3 WHERE id_carrito = \(`).
				WithArgs(int64(1), int64(101), "inactivo", "activo").
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.UpdateQuantity(context.Background(), 1, 101, q))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("zero affected rows is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos SET cantidad`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateQuantity(context.Background(), 1, 101, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("zero affected rows on removal is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos SET estado`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateQuantity(context.Background(), 1, 101, 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("storage faults are persistence errors", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE carritos`).WillReturnError(errors.New("deadlock"))

		err := repo.UpdateQuantity(context.Background(), 1, 101, 5)
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
