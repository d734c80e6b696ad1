package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/residency/service"
	"fatepack/internal/residency/store"
)

type ResidencyServiceSuite struct {
	suite.Suite
	svc   *service.Service
	store *store.InMemoryStore
	now   time.Time
}

func (s *ResidencyServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.svc = service.New(s.store, nil, nil)
	s.now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
}

func (s *ResidencyServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ResidencyServiceSuite) TestOpenInterval() {
	residentID := id.ResidentID(uuid.New())
	apartmentID := id.ApartmentID(uuid.New())

	s.Run("opens active interval", func() {
		interval, err := s.svc.OpenInterval(s.ctxAt(s.now), residentID, apartmentID)
		s.Require().NoError(err)
		s.Equal(apartmentID, interval.ApartmentID)
		s.True(interval.Active())
		s.Equal(s.now, interval.EnteredAt)
	})

	s.Run("second open conflicts", func() {
		_, err := s.svc.OpenInterval(s.ctxAt(s.now.Add(time.Hour)), residentID, id.ApartmentID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects nil apartment", func() {
		_, err := s.svc.OpenInterval(s.ctxAt(s.now), id.ResidentID(uuid.New()), id.ApartmentID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ResidencyServiceSuite) TestMoveResident() {
	residentID := id.ResidentID(uuid.New())
	first := id.ApartmentID(uuid.New())
	second := id.ApartmentID(uuid.New())

	s.Run("succeeds with no prior interval", func() {
		interval, err := s.svc.MoveResident(s.ctxAt(s.now), residentID, first)
		s.Require().NoError(err)
		s.True(interval.Active())

		history, err := s.svc.History(s.ctxAt(s.now), residentID, false)
		s.Require().NoError(err)
		s.Len(history, 1)
		s.True(history[0].Active())
	})

	s.Run("closes previous interval at the move instant", func() {
		moveAt := s.now.Add(48 * time.Hour)
		interval, err := s.svc.MoveResident(s.ctxAt(moveAt), residentID, second)
		s.Require().NoError(err)
		s.Equal(second, interval.ApartmentID)

		history, err := s.svc.History(s.ctxAt(moveAt), residentID, false)
		s.Require().NoError(err)
		s.Require().Len(history, 2)
		s.Require().NotNil(history[0].LeftAt)
		s.Equal(moveAt, *history[0].LeftAt)
		s.True(history[1].Active())
	})

	s.Run("only one interval is ever active", func() {
		for i := 0; i < 5; i++ {
			_, err := s.svc.MoveResident(s.ctxAt(s.now.Add(time.Duration(100+i)*time.Hour)), residentID, id.ApartmentID(uuid.New()))
			s.Require().NoError(err)
		}
		history, err := s.svc.History(context.Background(), residentID, false)
		s.Require().NoError(err)
		active := 0
		for _, interval := range history {
			if interval.Active() {
				active++
			}
		}
		s.Equal(1, active)
	})
}

func (s *ResidencyServiceSuite) TestCloseActiveInterval() {
	residentID := id.ResidentID(uuid.New())
	apartmentID := id.ApartmentID(uuid.New())

	_, err := s.svc.OpenInterval(s.ctxAt(s.now), residentID, apartmentID)
	s.Require().NoError(err)

	s.Run("closes the open interval", func() {
		closeAt := s.now.Add(time.Hour)
		closed, err := s.svc.CloseActiveInterval(s.ctxAt(closeAt), residentID)
		s.Require().NoError(err)
		s.Require().NotNil(closed)
		s.Require().NotNil(closed.LeftAt)
		s.Equal(closeAt, *closed.LeftAt)
	})

	s.Run("second close is a no-op", func() {
		closed, err := s.svc.CloseActiveInterval(s.ctxAt(s.now.Add(2*time.Hour)), residentID)
		s.Require().NoError(err)
		s.Nil(closed)
	})

	s.Run("unknown resident is a no-op too", func() {
		closed, err := s.svc.CloseActiveInterval(s.ctxAt(s.now), id.ResidentID(uuid.New()))
		s.Require().NoError(err)
		s.Nil(closed)
	})
}

func (s *ResidencyServiceSuite) TestCurrentApartment() {
	residentID := id.ResidentID(uuid.New())
	apartmentID := id.ApartmentID(uuid.New())

	s.Run("not found without an active interval", func() {
		_, err := s.svc.CurrentApartment(context.Background(), residentID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns the occupied apartment", func() {
		_, err := s.svc.OpenInterval(s.ctxAt(s.now), residentID, apartmentID)
		s.Require().NoError(err)

		got, err := s.svc.CurrentApartment(context.Background(), residentID)
		s.Require().NoError(err)
		s.Equal(apartmentID, got)
	})
}

func (s *ResidencyServiceSuite) TestApartmentsOf() {
	residentID := id.ResidentID(uuid.New())
	first := id.ApartmentID(uuid.New())
	second := id.ApartmentID(uuid.New())

	_, err := s.svc.MoveResident(s.ctxAt(s.now), residentID, first)
	s.Require().NoError(err)
	_, err = s.svc.MoveResident(s.ctxAt(s.now.Add(24*time.Hour)), residentID, second)
	s.Require().NoError(err)
	// Moving back must not duplicate the apartment in the result.
	_, err = s.svc.MoveResident(s.ctxAt(s.now.Add(48*time.Hour)), residentID, first)
	s.Require().NoError(err)

	apartments, err := s.svc.ApartmentsOf(context.Background(), residentID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.ApartmentID{first, second}, apartments)
}

func (s *ResidencyServiceSuite) TestActiveOccupants() {
	apartmentID := id.ApartmentID(uuid.New())
	alice := id.ResidentID(uuid.New())
	bob := id.ResidentID(uuid.New())
	mover := id.ResidentID(uuid.New())

	_, err := s.svc.OpenInterval(s.ctxAt(s.now), alice, apartmentID)
	s.Require().NoError(err)
	_, err = s.svc.OpenInterval(s.ctxAt(s.now), bob, apartmentID)
	s.Require().NoError(err)
	_, err = s.svc.MoveResident(s.ctxAt(s.now), mover, apartmentID)
	s.Require().NoError(err)
	_, err = s.svc.MoveResident(s.ctxAt(s.now.Add(time.Hour)), mover, id.ApartmentID(uuid.New()))
	s.Require().NoError(err)

	occupants, err := s.svc.ActiveOccupants(context.Background(), apartmentID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.ResidentID{alice, bob}, occupants)
}

func TestResidencyServiceSuite(t *testing.T) {
	suite.Run(t, new(ResidencyServiceSuite))
}
