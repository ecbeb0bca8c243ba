// Package booking contains the services coordinating seat holds, the
// booking lifecycle, payment reconciliation and background maintenance.
package booking

import (
	"context"
	"log/slog"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

// HoldService mediates between clients picking seats and the hold cache.
// Committed bookings always win over cache holds, so a seat that is already
// booked can never be held.
type HoldService struct {
	seats    domain.SeatRepository
	bookings domain.BookingRepository
	cache    domain.SeatHoldCache
	bus      *event.Bus
	logger   *slog.Logger
}

func NewHoldService(
	seats domain.SeatRepository,
	bookings domain.BookingRepository,
	cache domain.SeatHoldCache,
	bus *event.Bus,
	logger *slog.Logger,
) *HoldService {
	return &HoldService{
		seats:    seats,
		bookings: bookings,
		cache:    cache,
		bus:      bus,
		logger:   logger,
	}
}

func (s *HoldService) Hold(ctx context.Context, userID, sessionID, seatID int64, originID string) error {
	seats, err := s.seats.GetBySessionAndIDs(ctx, sessionID, []int64{seatID})
	if err != nil {
		return err
	}

	if len(seats) == 0 {
		return domain.ErrRecordNotFound
	}

	booked, err := s.bookings.BookedSeatIDs(ctx, sessionID, []int64{seatID})
	if err != nil {
		return err
	}

	if len(booked) > 0 {
		return domain.ErrSeatAlreadyBooked
	}

	if err := s.cache.Reserve(ctx, seatID, sessionID, userID); err != nil {
		return err
	}

	s.publishChange(sessionID, seatID, originID, true)

	return nil
}

// Release drops the user's hold on the seat. Nothing is broadcast when no
// hold existed, so a stale release never reports a taken seat as freed.
func (s *HoldService) Release(ctx context.Context, userID, sessionID, seatID int64, originID string) error {
	released, err := s.cache.Release(ctx, seatID, sessionID, userID)
	if err != nil {
		return err
	}

	if released {
		s.publishChange(sessionID, seatID, originID, false)
	}

	return nil
}

// ReleaseAll drops every hold the user has in the session, announcing each
// freed seat.
func (s *HoldService) ReleaseAll(ctx context.Context, userID, sessionID int64, originID string) error {
	seatIDs, err := s.cache.ClearAllForUserInSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	for _, seatID := range seatIDs {
		s.publishChange(sessionID, seatID, originID, false)
	}

	return nil
}

// HandleClientDisconnected releases the departing client's holds. Registered
// on the bus so a dropped websocket never strands seats for the full TTL.
func (s *HoldService) HandleClientDisconnected(ctx context.Context, e any) {
	disconnect, ok := e.(domain.ClientDisconnectedEvent)
	if !ok {
		return
	}

	err := s.ReleaseAll(ctx, disconnect.UserID, disconnect.SessionID, disconnect.OriginID)
	if err != nil {
		s.logger.Error(
			"releasing holds after disconnect",
			"user_id", disconnect.UserID,
			"session_id", disconnect.SessionID,
			"error", err,
		)
	}
}

func (s *HoldService) publishChange(sessionID, seatID int64, originID string, held bool) {
	s.bus.Publish(event.TopicSeatHoldChanged, domain.SeatHoldChangedEvent{
		SeatID:    seatID,
		SessionID: sessionID,
		OriginID:  originID,
		Held:      held,
	})
}
