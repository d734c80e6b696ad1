package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fatepack/pkg/domain"

	"fatepack/internal/residency/models"
)

func TestIntervalContains(t *testing.T) {
	entered := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	left := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	closed := &models.Interval{
		ID:          id.IntervalID(uuid.New()),
		ResidentID:  id.ResidentID(uuid.New()),
		ApartmentID: id.ApartmentID(uuid.New()),
		EnteredAt:   entered,
		LeftAt:      &left,
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		assert.True(t, closed.Contains(entered, now))
		assert.True(t, closed.Contains(left, now))
		assert.True(t, closed.Contains(entered.Add(24*time.Hour), now))
	})

	t.Run("outside the window", func(t *testing.T) {
		assert.False(t, closed.Contains(entered.Add(-time.Second), now))
		assert.False(t, closed.Contains(left.Add(time.Second), now))
	})

	t.Run("open interval is bounded by now", func(t *testing.T) {
		open := &models.Interval{EnteredAt: entered}
		assert.True(t, open.Contains(now, now))
		assert.False(t, open.Contains(now.Add(time.Second), now))
	})
}

func TestNewInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		interval, err := models.NewInterval(id.IntervalID(uuid.New()), id.ResidentID(uuid.New()), id.ApartmentID(uuid.New()), now)
		require.NoError(t, err)
		assert.True(t, interval.Active())
	})

	t.Run("missing resident", func(t *testing.T) {
		_, err := models.NewInterval(id.IntervalID(uuid.New()), id.ResidentID{}, id.ApartmentID(uuid.New()), now)
		require.Error(t, err)
	})

	t.Run("missing entered_at", func(t *testing.T) {
		_, err := models.NewInterval(id.IntervalID(uuid.New()), id.ResidentID(uuid.New()), id.ApartmentID(uuid.New()), time.Time{})
		require.Error(t, err)
	})
}
