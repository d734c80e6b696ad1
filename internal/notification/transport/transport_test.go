package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fatepack/pkg/domain"

	"fatepack/internal/notification/models"
	"fatepack/internal/notification/transport"
)

func TestHTTPTransportPush(t *testing.T) {
	var gotAuth string
	var gotPayload models.Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	endpoint := &models.Endpoint{
		ID:         id.EndpointID(uuid.New()),
		ResidentID: id.ResidentID(uuid.New()),
		URL:        server.URL,
		Secret:     "tok",
	}

	err := transport.NewHTTP(time.Second).Push(context.Background(), endpoint, models.Payload{Title: "Hi", Body: "there"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Hi", gotPayload.Title)
}

func TestHTTPTransportGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	err := transport.NewHTTP(time.Second).Push(context.Background(),
		&models.Endpoint{URL: server.URL}, models.Payload{Title: "Hi"})
	require.ErrorIs(t, err, transport.ErrEndpointGone)
}

func TestHTTPTransportServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := transport.NewHTTP(time.Second).Push(context.Background(),
		&models.Endpoint{URL: server.URL}, models.Payload{Title: "Hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, transport.ErrEndpointGone)
}
