package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "fatepack/internal/auth/service"
	residentmodels "fatepack/internal/resident/models"
	residentservice "fatepack/internal/resident/service"
	"fatepack/internal/transport/http/shared"
	id "fatepack/pkg/domain"
	"fatepack/pkg/requestcontext"
)

// ResidentRegistrar is the slice of the resident service the auth endpoints
// use.
type ResidentRegistrar interface {
	Register(ctx context.Context, in residentservice.RegisterInput) (*residentmodels.Resident, error)
	Get(ctx context.Context, residentID id.ResidentID) (*residentmodels.Resident, error)
}

// AuthService is the session-facing surface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*authservice.LoginResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
}

// Handler serves registration, login, logout, and the current-resident
// endpoint.
type Handler struct {
	residents ResidentRegistrar
	auth      AuthService
	logger    *slog.Logger
}

func New(residents ResidentRegistrar, auth AuthService, logger *slog.Logger) *Handler {
	return &Handler{residents: residents, auth: auth, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterAuthenticated mounts routes behind RequireAuth.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	// Self-registration always creates a plain resident. Staff accounts are
	// provisioned by existing staff or at deployment time.
	resident, err := h.residents.Register(r.Context(), residentservice.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     residentmodels.RoleResident,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "registration failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, resident)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   result.ExpiresIn,
		"resident":     result.Resident,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), requestcontext.SessionID(r.Context())); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	resident, err := h.residents.Get(r.Context(), requestcontext.ResidentID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resident)
}
