package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/mercado-api/internal/database"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

const uniqueViolation = "23505"

type StoreInput struct {
	Profile
	Photo []byte
}

type SupplierInput struct {
	Profile
	Logo      []byte
	PaymentQR []byte
}

type StoreRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) Create(ctx context.Context, in StoreInput) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO negocios (nombre, correo, contrasenia, informacion, latitud, longitud, contacto, foto)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id_negocio
	`, in.Name, in.Email, in.PasswordHash, in.About, in.Latitude, in.Longitude, in.Contact, nullBytes(in.Photo)).Scan(&id)
	if err != nil {
		return 0, insertError("store", err)
	}
	return id, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_negocio, nombre, correo, informacion, latitud, longitud, contacto, foto
		FROM negocios ORDER BY id_negocio
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query stores: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	stores := []domain.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate stores: %v", domain.ErrPersistence, err)
	}

	return stores, nil
}

func (r *StoreRepository) Get(ctx context.Context, id int64) (*domain.Store, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id_negocio, nombre, correo, informacion, latitud, longitud, contacto, foto
		FROM negocios WHERE id_negocio = $1
	`, id)

	s, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *StoreRepository) Update(ctx context.Context, id int64, in StoreInput) error {
	upd := profileUpdate("negocios", "informacion", in.Profile).SetBytes("foto", in.Photo)
	return execUpdate(ctx, r.db, upd, database.Where("id_negocio", id))
}

func (r *StoreRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM negocios WHERE id_negocio = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete store: %v", domain.ErrPersistence, err)
	}
	return requireAffected(res)
}

type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, in SupplierInput) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO empresas (nombre, correo, contrasenia, descripcion, latitud, longitud, contacto, logo, qr_pago)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id_empresa
	`, in.Name, in.Email, in.PasswordHash, in.About, in.Latitude, in.Longitude, in.Contact,
		nullBytes(in.Logo), nullBytes(in.PaymentQR)).Scan(&id)
	if err != nil {
		return 0, insertError("supplier", err)
	}
	return id, nil
}

func (r *SupplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_empresa, nombre, correo, descripcion, latitud, longitud, contacto, logo, qr_pago
		FROM empresas ORDER BY id_empresa
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query suppliers: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	suppliers := []domain.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate suppliers: %v", domain.ErrPersistence, err)
	}

	return suppliers, nil
}

func (r *SupplierRepository) Get(ctx context.Context, id int64) (*domain.Supplier, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id_empresa, nombre, correo, descripcion, latitud, longitud, contacto, logo, qr_pago
		FROM empresas WHERE id_empresa = $1
	`, id)

	s, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *SupplierRepository) Update(ctx context.Context, id int64, in SupplierInput) error {
	upd := profileUpdate("empresas", "descripcion", in.Profile).
		SetBytes("logo", in.Logo).
		SetBytes("qr_pago", in.PaymentQR)
	return execUpdate(ctx, r.db, upd, database.Where("id_empresa", id))
}

// Delete removes the supplier together with its products and returns the
// ids of the removed products.
func (r *SupplierRepository) Delete(ctx context.Context, id int64) ([]int64, error) {
	var productIDs []int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `DELETE FROM productos WHERE id_empresa = $1 RETURNING id_producto`, id)
		if err != nil {
			return fmt.Errorf("%w: delete supplier products: %v", domain.ErrPersistence, err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var pid int64
			if err := rows.Scan(&pid); err != nil {
				return fmt.Errorf("%w: scan product id: %v", domain.ErrPersistence, err)
			}
			productIDs = append(productIDs, pid)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%w: iterate product ids: %v", domain.ErrPersistence, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM empresas WHERE id_empresa = $1`, id)
		if err != nil {
			return fmt.Errorf("%w: delete supplier: %v", domain.ErrPersistence, err)
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}

	return productIDs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStore(s scanner) (*domain.Store, error) {
	var (
		st    domain.Store
		photo []byte
	)
	err := s.Scan(&st.ID, &st.Name, &st.Email, &st.Information, &st.Latitude, &st.Longitude, &st.Contact, &photo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan store: %v", domain.ErrPersistence, err)
	}
	st.Photo = dataURL(photo)
	return &st, nil
}

func scanSupplier(s scanner) (*domain.Supplier, error) {
	var (
		sp       domain.Supplier
		logo, qr []byte
	)
	err := s.Scan(&sp.ID, &sp.Name, &sp.Email, &sp.Description, &sp.Latitude, &sp.Longitude, &sp.Contact, &logo, &qr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan supplier: %v", domain.ErrPersistence, err)
	}
	sp.Logo = dataURL(logo)
	sp.PaymentQR = dataURL(qr)
	return &sp, nil
}

func profileUpdate(table, aboutColumn string, p Profile) *database.Update {
	return database.NewUpdate(table).
		SetString("nombre", p.Name).
		SetString("correo", p.Email).
		SetString("contrasenia", p.PasswordHash).
		SetString(aboutColumn, p.About).
		SetString("latitud", p.Latitude).
		SetString("longitud", p.Longitude).
		SetString("contacto", p.Contact)
}

func execUpdate(ctx context.Context, db *sql.DB, upd *database.Update, where database.Condition) error {
	query, args, err := upd.Build(where)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return insertError("account", err)
	}
	return requireAffected(res)
}

// insertError maps a duplicate correo to a validation error.
func insertError(kind string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: correo ya registrado", domain.ErrValidation)
	}
	return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, kind, err)
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

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
