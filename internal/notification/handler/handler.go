package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "fatepack/pkg/domain"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/notification/models"
	"fatepack/internal/notification/service"
	"fatepack/internal/transport/http/shared"
)

// Service defines the notification operations the handler needs.
type Service interface {
	Subscribe(ctx context.Context, residentID id.ResidentID, url, secret, userAgent string) (*models.Endpoint, error)
	Unsubscribe(ctx context.Context, residentID id.ResidentID, url string) error
	Broadcast(ctx context.Context, title, body string) (service.BroadcastResult, error)
}

// Handler serves push subscription management and staff announcements.
type Handler struct {
	notifications Service
	logger        *slog.Logger
	staffOnly     func(http.Handler) http.Handler
}

func New(notifications Service, logger *slog.Logger, staffOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{notifications: notifications, logger: logger, staffOnly: staffOnly}
}

// Register mounts notification routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/push/subscribe", h.handleSubscribe)
	r.Delete("/push/subscribe", h.handleUnsubscribe)
	r.With(h.staffOnly).Post("/announcements", h.handleAnnounce)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL    string `json:"url"`
		Secret string `json:"secret"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	endpoint, err := h.notifications.Subscribe(r.Context(),
		requestcontext.ResidentID(r.Context()), req.URL, req.Secret, r.UserAgent())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, endpoint)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.notifications.Unsubscribe(r.Context(), requestcontext.ResidentID(r.Context()), req.URL); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.notifications.Broadcast(r.Context(), req.Title, req.Body)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to broadcast announcement",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
