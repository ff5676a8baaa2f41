package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type fakeFinder struct {
	creds     *domain.Credentials
	err       error
	gotType   domain.ActorType
	gotEmail  string
	callCount int
}

func (f *fakeFinder) FindByEmail(_ context.Context, actorType domain.ActorType, email string) (*domain.Credentials, error) {
	f.callCount++
	f.gotType = actorType
	f.gotEmail = email
	return f.creds, f.err
}

func mustDigest(t *testing.T, secret string) string {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	return string(digest)
}

func TestHandler_HandleLogin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokens([]byte("secret"))

	login := func(h *Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/iniciar-sesion", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, req)
		return rec
	}

	t.Run("rejects unknown user types", func(t *testing.T) {
		finder := &fakeFinder{}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"a@b.c","password":"x","userType":"otro"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if finder.callCount != 0 {
			t.Errorf("expected no lookup, got %d", finder.callCount)
		}
	})

	t.Run("returns 404 for unknown email", func(t *testing.T) {
		finder := &fakeFinder{}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"correo@test.com","password":"password123","userType":"negocio"}`)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
		if finder.gotType != domain.ActorStore || finder.gotEmail != "correo@test.com" {
			t.Errorf("unexpected lookup: %s %s", finder.gotType, finder.gotEmail)
		}
	})

	t.Run("returns 401 for a wrong password", func(t *testing.T) {
		finder := &fakeFinder{creds: &domain.Credentials{ID: 1, PasswordHash: mustDigest(t, "password123")}}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"correo@test.com","password":"nope","userType":"negocio"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("returns 500 when the lookup fails", func(t *testing.T) {
		finder := &fakeFinder{err: errors.New("db down")}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"correo@test.com","password":"x","userType":"empresa"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})

	t.Run("returns 500 for a malformed stored digest", func(t *testing.T) {
		finder := &fakeFinder{creds: &domain.Credentials{ID: 1, PasswordHash: "plain"}}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"correo@test.com","password":"x","userType":"negocio"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})

	t.Run("issues a token for the supplier", func(t *testing.T) {
		finder := &fakeFinder{creds: &domain.Credentials{ID: 5, PasswordHash: mustDigest(t, "password123")}}
		rec := login(NewHandler(finder, tokens, logger), `{"email":"correo@test.com","password":"password123","userType":"empresa"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp loginResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.UserID != 5 || resp.UserType != domain.ActorSupplier {
			t.Errorf("unexpected response: %+v", resp)
		}

		actor, err := tokens.Validate(resp.Token)
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if actor.ID != 5 || actor.Type != domain.ActorSupplier {
			t.Errorf("unexpected actor: %+v", actor)
		}
	})
}
