package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type CredentialsRepository struct {
	db *sql.DB
}

func NewCredentialsRepository(db *sql.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// FindByEmail returns nil, nil when no account of that type uses email.
func (r *CredentialsRepository) FindByEmail(ctx context.Context, actorType domain.ActorType, email string) (*domain.Credentials, error) {
	var query string
	switch actorType {
	case domain.ActorStore:
		query = `SELECT id_negocio, contrasenia FROM negocios WHERE correo = $1`
	case domain.ActorSupplier:
		query = `SELECT id_empresa, contrasenia FROM empresas WHERE correo = $1`
	default:
		return nil, fmt.Errorf("%w: unknown actor type %q", domain.ErrValidation, actorType)
	}

	creds := &domain.Credentials{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&creds.ID, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return creds, nil
}
