package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdate_Build(t *testing.T) {
	t.Run("only present fields are set", func(t *testing.T) {
		u := NewUpdate("negocios").
			SetString("nombre", strPtr("Tienda")).
			SetString("informacion", nil).
			SetString("correo", strPtr("")).
			SetBytes("foto", []byte{0x1}).
			SetIf(false, "contrasenia", "hash")

		query, args, err := u.Build(Where("id_negocio", int64(7)))
		require.NoError(t, err)

		assert.Equal(t, "UPDATE negocios SET nombre = $1, foto = $2 WHERE id_negocio = $3", query)
		assert.Equal(t, []any{"Tienda", []byte{0x1}, int64(7)}, args)
	})

	t.Run("multiple conditions are ANDed", func(t *testing.T) {
		query, args, err := NewUpdate("productos").
			Set("precio", "10.50").
			Build(Where("id_producto", int64(1)), Where("id_empresa", int64(2)))
		require.NoError(t, err)

		assert.Equal(t, "UPDATE productos SET precio = $1 WHERE id_producto = $2 AND id_empresa = $3", query)
		assert.Len(t, args, 3)
	})

	t.Run("empty update fails", func(t *testing.T) {
		_, _, err := NewUpdate("empresas").SetString("nombre", nil).Build(Where("id_empresa", 1))
		assert.True(t, errors.Is(err, ErrNoFields))
	})

	t.Run("rejects non-identifier columns", func(t *testing.T) {
		_, _, err := NewUpdate("empresas").Set("nombre = 'x'; --", "y").Build()
		assert.Error(t, err)
	})

	t.Run("rejects non-identifier tables", func(t *testing.T) {
		_, _, err := NewUpdate("empresas e").Set("nombre", "y").Build()
		assert.Error(t, err)
	})
}
