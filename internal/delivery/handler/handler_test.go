package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/delivery/handler"
	"fatepack/internal/delivery/models"
	"fatepack/internal/delivery/service"
	"fatepack/internal/platform/logger"
)

type stubService struct {
	registered *models.Delivery
	pickup     *models.Pickup
	deliveries []*models.Delivery
	err        error

	gotInput  service.RegisterInput
	gotPickup string
}

func (s *stubService) Register(_ context.Context, input service.RegisterInput) (*models.Delivery, error) {
	s.gotInput = input
	return s.registered, s.err
}

func (s *stubService) ConfirmPickup(_ context.Context, _ id.DeliveryID, pickedUpBy string) (*models.Pickup, error) {
	s.gotPickup = pickedUpBy
	return s.pickup, s.err
}

func (s *stubService) ListForResident(context.Context, id.ResidentID) ([]*models.Delivery, error) {
	return s.deliveries, s.err
}

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(svc *stubService, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithResidentID(req.Context(), id.ResidentID(uuid.New()))
			ctx = requestcontext.WithRole(ctx, role)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.New(svc, logger.New("development"), passthrough).Register(r)
	return r
}

func TestHandleRegister(t *testing.T) {
	delivery := &models.Delivery{
		ID:          id.DeliveryID(uuid.New()),
		ApartmentID: id.ApartmentID(uuid.New()),
		Company:     "Correios",
		ReceivedBy:  "Ana",
		ReceivedAt:  time.Now(),
	}
	svc := &stubService{registered: delivery}
	router := newRouter(svc, "staff")

	body := `{"block":"01","apartment":"101","company":"Correios","received_by":"ana"}`
	req := httptest.NewRequest(http.MethodPost, "/deliveries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "01", svc.gotInput.BlockName)
	assert.Equal(t, "ana", svc.gotInput.ReceivedBy)

	var got models.Delivery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, delivery.ID, got.ID)
}

func TestHandleRegisterRejectsUnknownFields(t *testing.T) {
	router := newRouter(&stubService{}, "staff")

	req := httptest.NewRequest(http.MethodPost, "/deliveries", strings.NewReader(`{"bogus":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleList(t *testing.T) {
	t.Run("returns deliveries", func(t *testing.T) {
		svc := &stubService{deliveries: []*models.Delivery{{ID: id.DeliveryID(uuid.New()), Company: "Correios"}}}
		router := newRouter(svc, "resident")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deliveries", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []models.Delivery
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 1)
	})

	t.Run("empty set is a JSON array", func(t *testing.T) {
		router := newRouter(&stubService{}, "resident")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deliveries", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestHandlePickup(t *testing.T) {
	t.Run("confirms", func(t *testing.T) {
		deliveryID := id.DeliveryID(uuid.New())
		svc := &stubService{pickup: &models.Pickup{ID: id.PickupID(uuid.New()), DeliveryID: deliveryID, PickedUpBy: "Maria"}}
		router := newRouter(svc, "resident")

		req := httptest.NewRequest(http.MethodPost, "/deliveries/"+deliveryID.String()+"/pickup",
			strings.NewReader(`{"picked_up_by":"maria"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "maria", svc.gotPickup)
	})

	t.Run("invalid id", func(t *testing.T) {
		router := newRouter(&stubService{}, "resident")

		req := httptest.NewRequest(http.MethodPost, "/deliveries/not-a-uuid/pickup",
			strings.NewReader(`{"picked_up_by":"maria"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeConflict, "delivery was already picked up")}
		router := newRouter(svc, "resident")

		req := httptest.NewRequest(http.MethodPost, "/deliveries/"+uuid.NewString()+"/pickup",
			strings.NewReader(`{"picked_up_by":"maria"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
