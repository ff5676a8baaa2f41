package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

const TokenTTL = time.Hour

type claims struct {
	ID   int64            `json:"id"`
	Type domain.ActorType `json:"tipo"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 bearer tokens. The secret is fixed for
// the lifetime of the value.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte) *Tokens {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Tokens{secret: key, ttl: TokenTTL, now: time.Now}
}

func (t *Tokens) Issue(actor domain.Actor) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:   actor.ID,
		Type: actor.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	return token.SignedString(t.secret)
}

// Validate returns the actor a token was issued to. Every failure, including
// expiry, wraps domain.ErrAuth.
func (t *Tokens) Validate(raw string) (domain.Actor, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, fmt.Errorf("%w: token expired", domain.ErrAuth)
		}
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}

	if !c.Type.Valid() || c.ID <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: malformed claims", domain.ErrAuth)
	}

	return domain.Actor{ID: c.ID, Type: c.Type}, nil
}
