package booking

import (
	"context"

	"github.com/cinetix/cinema-booking/internal/domain"
)

// AvailabilityService merges the durable booked state with the volatile
// hold state into a single seat map snapshot.
type AvailabilityService struct {
	seats    domain.SeatRepository
	bookings domain.BookingRepository
	cache    domain.SeatHoldCache
}

func NewAvailabilityService(
	seats domain.SeatRepository,
	bookings domain.BookingRepository,
	cache domain.SeatHoldCache,
) *AvailabilityService {
	return &AvailabilityService{
		seats:    seats,
		bookings: bookings,
		cache:    cache,
	}
}

type SeatAvailability struct {
	Seat  domain.Seat
	Taken bool
}

// SessionSeatMap reports every seat of the session's screen with its taken
// flag. A seat counts as taken when a committed or in-flight booking covers
// it or when any user currently holds it.
func (s *AvailabilityService) SessionSeatMap(ctx context.Context, sessionID int64) ([]SeatAvailability, error) {
	seats, err := s.seats.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(seats) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	seatIDs := make([]int64, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	booked, err := s.bookings.BookedSeatIDs(ctx, sessionID, seatIDs)
	if err != nil {
		return nil, err
	}

	held, err := s.cache.FindHeld(ctx, sessionID, seatIDs)
	if err != nil {
		return nil, err
	}

	taken := make(map[int64]bool, len(booked)+len(held))
	for _, id := range booked {
		taken[id] = true
	}
	for _, id := range held {
		taken[id] = true
	}

	seatMap := make([]SeatAvailability, len(seats))
	for i, seat := range seats {
		seatMap[i] = SeatAvailability{Seat: seat, Taken: taken[seat.ID]}
	}

	return seatMap, nil
}
