package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/residency/models"
	"fatepack/internal/transport/http/shared"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	MoveResident(ctx context.Context, residentID id.ResidentID, apartmentID id.ApartmentID) (*models.Interval, error)
	CloseActiveInterval(ctx context.Context, residentID id.ResidentID) (*models.Interval, error)
	History(ctx context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error)
}

// Handler serves occupancy ledger endpoints. All routes are staff-only: the
// ledger is administrative, residents never edit their own occupancy.
type Handler struct {
	residency Service
	logger    *slog.Logger
	staffOnly func(http.Handler) http.Handler
}

func New(residency Service, logger *slog.Logger, staffOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{residency: residency, logger: logger, staffOnly: staffOnly}
}

// Register mounts residency routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.staffOnly).Post("/residency/move", h.handleMove)
	r.With(h.staffOnly).Post("/residency/close", h.handleClose)
	r.With(h.staffOnly).Get("/residents/{id}/intervals", h.handleHistory)
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResidentID  string `json:"resident_id"`
		ApartmentID string `json:"apartment_id"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	residentID, err := id.ParseResidentID(req.ResidentID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resident id"))
		return
	}
	apartmentID, err := id.ParseApartmentID(req.ApartmentID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid apartment id"))
		return
	}

	interval, err := h.residency.MoveResident(r.Context(), residentID, apartmentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to move resident",
			"error", err.Error(),
			"resident_id", residentID,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, interval)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResidentID string `json:"resident_id"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	residentID, err := id.ParseResidentID(req.ResidentID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resident id"))
		return
	}

	closed, err := h.residency.CloseActiveInterval(r.Context(), residentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if closed == nil {
		// Nothing was active; closing is idempotent.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.WriteJSON(w, http.StatusOK, closed)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resident id"))
		return
	}
	intervals, err := h.residency.History(r.Context(), residentID, true)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, intervals)
}
