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

	"fatepack/internal/delivery/models"
	"fatepack/internal/delivery/store"
)

type DeliveryStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func (s *DeliveryStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *DeliveryStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(),
		"pickups", "deliveries", "apartments", "blocks"))
}

func (s *DeliveryStoreSuite) createDelivery(apartmentID id.ApartmentID) *models.Delivery {
	delivery, err := models.NewDelivery(id.DeliveryID(uuid.New()), apartmentID,
		"Correios", "small box", "ana", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateDelivery(context.Background(), delivery))
	return delivery
}

func (s *DeliveryStoreSuite) TestEnsureBlockNormalizes() {
	ctx := context.Background()

	first, err := s.store.EnsureBlock(ctx, "01", time.Now())
	s.Require().NoError(err)

	// "Bloco 01" refers to the same physical block.
	second, err := s.store.EnsureBlock(ctx, "Bloco 01", time.Now())
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("01", second.Name)

	var count int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT count(*) FROM blocks`).Scan(&count))
	s.Equal(1, count)
}

func (s *DeliveryStoreSuite) TestEnsureApartmentNormalizes() {
	ctx := context.Background()
	block, err := s.store.EnsureBlock(ctx, "01", time.Now())
	s.Require().NoError(err)

	first, err := s.store.EnsureApartment(ctx, block.ID, "101A", time.Now())
	s.Require().NoError(err)
	second, err := s.store.EnsureApartment(ctx, block.ID, " 101a ", time.Now())
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
}

func (s *DeliveryStoreSuite) TestSameLabelInDifferentBlocks() {
	ctx := context.Background()
	blockA, err := s.store.EnsureBlock(ctx, "01", time.Now())
	s.Require().NoError(err)
	blockB, err := s.store.EnsureBlock(ctx, "02", time.Now())
	s.Require().NoError(err)

	inA, err := s.store.EnsureApartment(ctx, blockA.ID, "101", time.Now())
	s.Require().NoError(err)
	inB, err := s.store.EnsureApartment(ctx, blockB.ID, "101", time.Now())
	s.Require().NoError(err)

	s.NotEqual(inA.ID, inB.ID)
}

func (s *DeliveryStoreSuite) TestCreateDeliveryUnknownApartment() {
	delivery, err := models.NewDelivery(id.DeliveryID(uuid.New()), id.ApartmentID(uuid.New()),
		"Correios", "", "ana", time.Now())
	s.Require().NoError(err)

	err = s.store.CreateDelivery(context.Background(), delivery)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DeliveryStoreSuite) TestAttachPickup() {
	ctx := context.Background()
	block, err := s.store.EnsureBlock(ctx, "01", time.Now())
	s.Require().NoError(err)
	apartment, err := s.store.EnsureApartment(ctx, block.ID, "101", time.Now())
	s.Require().NoError(err)
	delivery := s.createDelivery(apartment.ID)

	pickup, err := models.NewPickup(id.PickupID(uuid.New()), delivery.ID, "maria", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AttachPickup(ctx, pickup))

	s.Run("stored delivery carries the pickup", func() {
		stored, err := s.store.FindDelivery(ctx, delivery.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.Pickup)
		s.Equal("Maria", stored.Pickup.PickedUpBy)
	})

	s.Run("second pickup conflicts", func() {
		again, err := models.NewPickup(id.PickupID(uuid.New()), delivery.ID, "pedro", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.AttachPickup(ctx, again), sentinel.ErrConflict)
	})

	s.Run("unknown delivery is not found", func() {
		orphan, err := models.NewPickup(id.PickupID(uuid.New()), id.DeliveryID(uuid.New()), "maria", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.AttachPickup(ctx, orphan), sentinel.ErrNotFound)
	})
}

func (s *DeliveryStoreSuite) TestListByApartmentOrdering() {
	ctx := context.Background()
	block, err := s.store.EnsureBlock(ctx, "01", time.Now())
	s.Require().NoError(err)
	apartment, err := s.store.EnsureApartment(ctx, block.ID, "101", time.Now())
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		delivery, err := models.NewDelivery(id.DeliveryID(uuid.New()), apartment.ID,
			"Correios", "", "ana", time.Now().Add(time.Duration(i)*time.Minute))
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateDelivery(ctx, delivery))
	}

	deliveries, err := s.store.ListByApartment(ctx, apartment.ID)
	s.Require().NoError(err)
	s.Require().Len(deliveries, 3)
	s.True(deliveries[0].ReceivedAt.After(deliveries[1].ReceivedAt))
	s.True(deliveries[1].ReceivedAt.After(deliveries[2].ReceivedAt))
}

func TestDeliveryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(DeliveryStoreSuite))
}
