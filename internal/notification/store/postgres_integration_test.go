//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/testutil/containers"

	"fatepack/internal/notification/models"
	"fatepack/internal/notification/store"
)

type EndpointStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func (s *EndpointStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *EndpointStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "push_endpoints", "residents"))
}

func (s *EndpointStoreSuite) seedResident() id.ResidentID {
	residentID := uuid.New()
	_, err := s.pg.DB.Exec(`
		INSERT INTO residents (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, 'Test Resident', $2, 'x', now(), now())
	`, residentID, residentID.String()+"@example.com")
	s.Require().NoError(err)
	return id.ResidentID(residentID)
}

func (s *EndpointStoreSuite) newEndpoint(residentID id.ResidentID, url, secret string) *models.Endpoint {
	endpoint, err := models.NewEndpoint(id.EndpointID(uuid.New()), residentID, url, secret, "Chrome on Android", time.Now())
	s.Require().NoError(err)
	return endpoint
}

func (s *EndpointStoreSuite) TestUpsertKeyedByResidentAndURL() {
	ctx := context.Background()
	residentID := s.seedResident()

	first, err := s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/a", "s1"))
	s.Require().NoError(err)

	second, err := s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/a", "s2"))
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("s2", second.Secret)

	endpoints, err := s.store.ListByResident(ctx, residentID)
	s.Require().NoError(err)
	s.Len(endpoints, 1)
}

func (s *EndpointStoreSuite) TestMultipleDevices() {
	ctx := context.Background()
	residentID := s.seedResident()

	_, err := s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/phone", "s"))
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/laptop", "s"))
	s.Require().NoError(err)

	endpoints, err := s.store.ListByResident(ctx, residentID)
	s.Require().NoError(err)
	s.Len(endpoints, 2)
}

func (s *EndpointStoreSuite) TestDeleteByURL() {
	ctx := context.Background()
	residentID := s.seedResident()
	_, err := s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/a", "s"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteByURL(ctx, residentID, "https://push.example/a"))
	s.Require().ErrorIs(s.store.DeleteByURL(ctx, residentID, "https://push.example/a"), sentinel.ErrNotFound)
}

func (s *EndpointStoreSuite) TestDeleteByID() {
	ctx := context.Background()
	residentID := s.seedResident()
	stored, err := s.store.Upsert(ctx, s.newEndpoint(residentID, "https://push.example/a", "s"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteByID(ctx, stored.ID))

	endpoints, err := s.store.ListByResident(ctx, residentID)
	s.Require().NoError(err)
	s.Empty(endpoints)
}

func TestEndpointStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(EndpointStoreSuite))
}
