package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type actorKey struct{}

// WithActor stores the authenticated actor on ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached by Authenticate.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// Authenticate requires a bearer token. A missing or malformed header is
// answered with 403, an invalid or expired token with 401.
func Authenticate(tokens *Tokens, logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, logger, http.StatusForbidden, "token no proporcionado")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeError(w, logger, http.StatusForbidden, "formato de token inválido")
			return
		}

		actor, err := tokens.Validate(token)
		if err != nil {
			logger.Info("token rejected", "error", err, "path", r.URL.Path)
			writeError(w, logger, http.StatusUnauthorized, "token inválido o expirado")
			return
		}

		next(w, r.WithContext(WithActor(r.Context(), actor)))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
