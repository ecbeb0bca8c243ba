package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/mocks"
)

func TestSessionSeatMap(t *testing.T) {
	ctx := context.Background()

	seats := new(mocks.MockSeatRepository)
	bookings := new(mocks.MockBookingRepository)
	cache := new(mocks.MockSeatHoldCache)

	seats.On("GetBySessionID", ctx, int64(3)).Return([]domain.Seat{
		{ID: 1, Row: "A", Number: 1, Type: domain.SeatTypeStandard},
		{ID: 2, Row: "A", Number: 2, Type: domain.SeatTypeStandard},
		{ID: 3, Row: "A", Number: 3, Type: domain.SeatTypeVip},
	}, nil)
	bookings.On("BookedSeatIDs", ctx, int64(3), []int64{1, 2, 3}).Return([]int64{1}, nil)
	cache.On("FindHeld", ctx, int64(3), []int64{1, 2, 3}).Return([]int64{3}, nil)

	service := NewAvailabilityService(seats, bookings, cache)

	seatMap, err := service.SessionSeatMap(ctx, 3)

	require.NoError(t, err)
	require.Len(t, seatMap, 3)
	assert.True(t, seatMap[0].Taken, "booked seat must be taken")
	assert.False(t, seatMap[1].Taken, "free seat must not be taken")
	assert.True(t, seatMap[2].Taken, "held seat must be taken")
}

func TestSessionSeatMapUnknownSession(t *testing.T) {
	ctx := context.Background()

	seats := new(mocks.MockSeatRepository)

	seats.On("GetBySessionID", ctx, int64(99)).Return([]domain.Seat{}, nil)

	service := NewAvailabilityService(seats, new(mocks.MockBookingRepository), new(mocks.MockSeatHoldCache))

	_, err := service.SessionSeatMap(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
