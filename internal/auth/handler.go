package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type CredentialsFinder interface {
	FindByEmail(ctx context.Context, actorType domain.ActorType, email string) (*domain.Credentials, error)
}

type Handler struct {
	creds  CredentialsFinder
	tokens *Tokens
	logger *slog.Logger
}

func NewHandler(creds CredentialsFinder, tokens *Tokens, logger *slog.Logger) *Handler {
	return &Handler{
		creds:  creds,
		tokens: tokens,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	UserType domain.ActorType `json:"userType"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	UserID   int64            `json:"userId"`
	UserType domain.ActorType `json:"userType"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.UserType.Valid() {
		h.writeError(w, http.StatusBadRequest, "tipo de usuario no válido")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "correo y contraseña son obligatorios")
		return
	}

	creds, err := h.creds.FindByEmail(r.Context(), req.UserType, req.Email)
	if err != nil {
		h.logger.Error("failed to look up credentials", "error", err, "user_type", req.UserType)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if creds == nil {
		h.writeError(w, http.StatusNotFound, "usuario no encontrado")
		return
	}

	match, err := VerifyPassword(req.Password, creds.PasswordHash)
	if err != nil {
		h.logger.Error("failed to compare password", "error", err, "user_id", creds.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !match {
		h.writeError(w, http.StatusUnauthorized, "contraseña incorrecta")
		return
	}

	token, err := h.tokens.Issue(domain.Actor{ID: creds.ID, Type: req.UserType})
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", creds.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("login succeeded", "user_id", creds.ID, "user_type", req.UserType)
	h.writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: creds.ID, UserType: req.UserType})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
