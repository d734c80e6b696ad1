package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/delivery/models"
	"fatepack/internal/delivery/service"
	"fatepack/internal/transport/http/shared"
)

// Service defines the delivery operations the handler needs.
type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (*models.Delivery, error)
	ConfirmPickup(ctx context.Context, deliveryID id.DeliveryID, pickedUpBy string) (*models.Pickup, error)
	ListForResident(ctx context.Context, residentID id.ResidentID) ([]*models.Delivery, error)
}

// Handler serves the delivery registry. Registration is staff-only (front
// desk); the feed and pickup confirmation are open to any authenticated
// resident.
type Handler struct {
	deliveries Service
	logger     *slog.Logger
	staffOnly  func(http.Handler) http.Handler
}

func New(deliveries Service, logger *slog.Logger, staffOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{deliveries: deliveries, logger: logger, staffOnly: staffOnly}
}

// Register mounts delivery routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.staffOnly).Post("/deliveries", h.handleRegister)
	r.Get("/deliveries", h.handleList)
	r.Post("/deliveries/{id}/pickup", h.handlePickup)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Block       string `json:"block"`
		Apartment   string `json:"apartment"`
		Company     string `json:"company"`
		Description string `json:"description"`
		ReceivedBy  string `json:"received_by"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	delivery, err := h.deliveries.Register(r.Context(), service.RegisterInput{
		BlockName:      req.Block,
		ApartmentLabel: req.Apartment,
		Company:        req.Company,
		Description:    req.Description,
		ReceivedBy:     req.ReceivedBy,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to register delivery",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, delivery)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	residentID := requestcontext.ResidentID(r.Context())
	deliveries, err := h.deliveries.ListForResident(r.Context(), residentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []*models.Delivery{}
	}
	shared.WriteJSON(w, http.StatusOK, deliveries)
}

func (h *Handler) handlePickup(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := id.ParseDeliveryID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid delivery id"))
		return
	}

	var req struct {
		PickedUpBy string `json:"picked_up_by"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	pickup, err := h.deliveries.ConfirmPickup(r.Context(), deliveryID, req.PickedUpBy)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, pickup)
}
