package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/resident/models"
	"fatepack/internal/transport/http/shared"
)

// Service defines the resident operations the handler needs.
type Service interface {
	Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	UpdateProfile(ctx context.Context, residentID id.ResidentID, name, phone string) (*models.Resident, error)
	List(ctx context.Context) ([]*models.Resident, error)
}

// Handler serves resident profile endpoints. Authentication middleware runs
// on the parent router; staff gating is applied per route here.
type Handler struct {
	residents Service
	logger    *slog.Logger
	staffOnly func(http.Handler) http.Handler
}

func New(residents Service, logger *slog.Logger, staffOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{residents: residents, logger: logger, staffOnly: staffOnly}
}

// Register mounts resident routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.staffOnly).Get("/residents", h.handleList)
	r.Get("/residents/{id}", h.handleGet)
	r.Patch("/residents/{id}", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	residents, err := h.residents.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list residents",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, residents)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	residentID, err := h.targetResident(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resident, err := h.residents.Get(r.Context(), residentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resident)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	residentID, err := h.targetResident(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	resident, err := h.residents.UpdateProfile(r.Context(), residentID, req.Name, req.Phone)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resident)
}

// targetResident resolves the {id} path parameter and enforces that
// non-staff callers only touch their own record.
func (h *Handler) targetResident(r *http.Request) (id.ResidentID, error) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		return id.ResidentID{}, dErrors.New(dErrors.CodeBadRequest, "invalid resident id")
	}
	ctx := r.Context()
	if requestcontext.Role(ctx) != string(models.RoleStaff) && requestcontext.ResidentID(ctx) != residentID {
		return id.ResidentID{}, dErrors.New(dErrors.CodeForbidden, "cannot access another resident's record")
	}
	return residentID, nil
}
