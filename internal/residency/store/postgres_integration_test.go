//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/testutil/containers"

	"fatepack/internal/residency/models"
	"fatepack/internal/residency/store"
)

type ResidencyStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func (s *ResidencyStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *ResidencyStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(),
		"occupancy_intervals", "apartments", "blocks", "residents"))
}

func (s *ResidencyStoreSuite) seedResident() id.ResidentID {
	residentID := uuid.New()
	_, err := s.pg.DB.Exec(`
		INSERT INTO residents (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, 'Test Resident', $2, 'x', now(), now())
	`, residentID, residentID.String()+"@example.com")
	s.Require().NoError(err)
	return id.ResidentID(residentID)
}

func (s *ResidencyStoreSuite) seedApartment(label string) id.ApartmentID {
	blockID := uuid.New()
	_, err := s.pg.DB.Exec(`
		INSERT INTO blocks (id, name, normalized_name, created_at)
		VALUES ($1, $2, $2, now())
	`, blockID, uuid.NewString())
	s.Require().NoError(err)

	apartmentID := uuid.New()
	_, err = s.pg.DB.Exec(`
		INSERT INTO apartments (id, block_id, label, normalized_label, created_at)
		VALUES ($1, $2, $3, $3, now())
	`, apartmentID, blockID, label)
	s.Require().NoError(err)
	return id.ApartmentID(apartmentID)
}

func (s *ResidencyStoreSuite) newInterval(residentID id.ResidentID, apartmentID id.ApartmentID, at time.Time) *models.Interval {
	interval, err := models.NewInterval(id.IntervalID(uuid.New()), residentID, apartmentID, at)
	s.Require().NoError(err)
	return interval
}

func (s *ResidencyStoreSuite) TestOpenEnforcesSingleActive() {
	ctx := context.Background()
	residentID := s.seedResident()
	apartmentID := s.seedApartment("101")

	s.Require().NoError(s.store.Open(ctx, s.newInterval(residentID, apartmentID, time.Now())))

	err := s.store.Open(ctx, s.newInterval(residentID, apartmentID, time.Now()))
	s.Require().ErrorIs(err, sentinel.ErrDuplicateLink)
}

func (s *ResidencyStoreSuite) TestOpenUnknownResident() {
	err := s.store.Open(context.Background(),
		s.newInterval(id.ResidentID(uuid.New()), s.seedApartment("101"), time.Now()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResidencyStoreSuite) TestCloseActive() {
	ctx := context.Background()
	residentID := s.seedResident()
	apartmentID := s.seedApartment("101")

	s.Require().NoError(s.store.Open(ctx, s.newInterval(residentID, apartmentID, time.Now())))

	closed, err := s.store.CloseActive(ctx, residentID, time.Now())
	s.Require().NoError(err)
	s.NotNil(closed.LeftAt)

	_, err = s.store.CloseActive(ctx, residentID, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResidencyStoreSuite) TestMoveReentersPastApartment() {
	ctx := context.Background()
	residentID := s.seedResident()
	first := s.seedApartment("101")
	second := s.seedApartment("102")

	base := time.Now().Add(-72 * time.Hour)
	for _, apartmentID := range []id.ApartmentID{first, second, first} {
		base = base.Add(24 * time.Hour)
		_, err := s.store.Move(ctx, s.newInterval(residentID, apartmentID, base))
		s.Require().NoError(err)
	}

	history, err := s.store.ListByResident(ctx, residentID, false)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(first, history[2].ApartmentID)
	s.True(history[2].Active())
}

// A concurrent reader must never observe zero or two active intervals while
// moves are in flight.
func (s *ResidencyStoreSuite) TestMoveIsAtomic() {
	ctx := context.Background()
	residentID := s.seedResident()
	apartments := []id.ApartmentID{s.seedApartment("101"), s.seedApartment("102")}

	_, err := s.store.Move(ctx, s.newInterval(residentID, apartments[0], time.Now()))
	s.Require().NoError(err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 40; i++ {
			_, err := s.store.Move(ctx, s.newInterval(residentID, apartments[i%2], time.Now()))
			s.NoError(err)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		var active int
		err := s.pg.DB.QueryRow(
			`SELECT count(*) FROM occupancy_intervals WHERE resident_id = $1 AND left_at IS NULL`,
			uuid.UUID(residentID),
		).Scan(&active)
		s.Require().NoError(err)
		s.Equal(1, active)
	}
}

func (s *ResidencyStoreSuite) TestActiveResidents() {
	ctx := context.Background()
	apartmentID := s.seedApartment("101")
	alice := s.seedResident()
	bob := s.seedResident()

	s.Require().NoError(s.store.Open(ctx, s.newInterval(alice, apartmentID, time.Now())))
	s.Require().NoError(s.store.Open(ctx, s.newInterval(bob, apartmentID, time.Now())))
	_, err := s.store.CloseActive(ctx, bob, time.Now())
	s.Require().NoError(err)

	occupants, err := s.store.ActiveResidents(ctx, apartmentID)
	s.Require().NoError(err)
	s.Equal([]id.ResidentID{alice}, occupants)
}

func TestResidencyStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(ResidencyStoreSuite))
}
