package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"

	"fatepack/internal/notification/fanout"
	"fatepack/internal/notification/models"
	"fatepack/internal/notification/transport"
	"fatepack/internal/notification/transport/mocks"
)

func endpoint(url string) *models.Endpoint {
	return &models.Endpoint{
		ID:         id.EndpointID(uuid.New()),
		ResidentID: id.ResidentID(uuid.New()),
		URL:        url,
		CreatedAt:  time.Now(),
	}
}

func TestNotifySettlesAllEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockTransport(ctrl)
	dispatcher := fanout.New(mock)

	failing := endpoint("https://push.example/failing")
	healthy := endpoint("https://push.example/healthy")
	payload := models.Payload{Title: "Package received"}

	mock.EXPECT().Push(gomock.Any(), failing, payload).Return(errors.New("connection refused"))
	mock.EXPECT().Push(gomock.Any(), healthy, payload).Return(nil)

	result, err := dispatcher.Notify(context.Background(), []*models.Endpoint{failing, healthy}, payload)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.PerEndpoint, 2)

	byID := make(map[id.EndpointID]models.EndpointOutcome)
	for _, outcome := range result.PerEndpoint {
		byID[outcome.EndpointID] = outcome
	}
	assert.False(t, byID[failing.ID].OK)
	assert.Contains(t, byID[failing.ID].Error, "connection refused")
	assert.True(t, byID[healthy.ID].OK)
}

func TestNotifyFlagsGoneEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockTransport(ctrl)
	dispatcher := fanout.New(mock)

	gone := endpoint("https://push.example/expired")
	payload := models.Payload{Title: "Hello"}

	mock.EXPECT().Push(gomock.Any(), gone, payload).
		Return(fmt.Errorf("endpoint: %w", transport.ErrEndpointGone))

	result, err := dispatcher.Notify(context.Background(), []*models.Endpoint{gone}, payload)
	require.NoError(t, err)

	require.Len(t, result.PerEndpoint, 1)
	assert.True(t, result.PerEndpoint[0].Gone)
	assert.False(t, result.PerEndpoint[0].OK)
}

func TestNotifyRejectsEmptyPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := fanout.New(mocks.NewMockTransport(ctrl))

	_, err := dispatcher.Notify(context.Background(), []*models.Endpoint{endpoint("https://x")}, models.Payload{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestNotifyNoEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := fanout.New(mocks.NewMockTransport(ctrl))

	result, err := dispatcher.Notify(context.Background(), nil, models.Payload{Title: "Hello"})
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Zero(t, result.Failed)
}
