package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

// LifecycleService owns booking creation and every status transition. All
// transitions funnel through Transition so the state machine is enforced in
// exactly one place.
type LifecycleService struct {
	bookings       domain.BookingRepository
	sessions       domain.SessionRepository
	seats          domain.SeatRepository
	users          domain.UserRepository
	cache          domain.SeatHoldCache
	provider       domain.PaymentProvider
	bus            *event.Bus
	logger         *slog.Logger
	checkoutWindow time.Duration
}

func NewLifecycleService(
	bookings domain.BookingRepository,
	sessions domain.SessionRepository,
	seats domain.SeatRepository,
	users domain.UserRepository,
	cache domain.SeatHoldCache,
	provider domain.PaymentProvider,
	bus *event.Bus,
	logger *slog.Logger,
	checkoutWindow time.Duration,
) *LifecycleService {
	return &LifecycleService{
		bookings:       bookings,
		sessions:       sessions,
		seats:          seats,
		users:          users,
		cache:          cache,
		provider:       provider,
		bus:            bus,
		logger:         logger,
		checkoutWindow: checkoutWindow,
	}
}

// Create validates seat ownership, persists the booking with per-seat price
// snapshots and opens a provider checkout session. The booking is rolled
// back if the checkout cannot be started, so no booking ever exists without
// a payment path.
func (s *LifecycleService) Create(ctx context.Context, userID, sessionID int64, seatIDs []int64, originID string) (*domain.Booking, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !time.Now().Before(session.StartTime) {
		return nil, domain.ErrSessionAlreadyStarted
	}

	seats, err := s.seats.GetBySessionAndIDs(ctx, sessionID, seatIDs)
	if err != nil {
		return nil, err
	}

	if len(seats) != len(seatIDs) {
		return nil, fmt.Errorf("%w: one or more seats do not belong to the session", domain.ErrRecordNotFound)
	}

	heldByOther, err := s.cache.IsHeldByOther(ctx, seatIDs, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if heldByOther {
		return nil, domain.ErrHoldOwnedByOther
	}

	booked, err := s.bookings.BookedSeatIDs(ctx, sessionID, seatIDs)
	if err != nil {
		return nil, err
	}

	if len(booked) > 0 {
		return nil, domain.ErrSeatAlreadyBooked
	}

	booking := domain.NewBooking(userID, session, seats)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.rollback(ctx, booking)
		return nil, err
	}

	checkout, err := s.provider.StartCheckout(ctx, user, booking, session.MovieTitle)
	if err != nil {
		s.rollback(ctx, booking)
		return nil, fmt.Errorf("starting checkout: %w", err)
	}

	expiresAt := time.Now().Add(s.checkoutWindow)

	booking.CheckoutID = &checkout.ID
	booking.CheckoutURL = &checkout.URL
	booking.ExpiresAt = &expiresAt

	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	// The seats are durably booked now, so the user's cache holds for the
	// session are redundant.
	if _, err := s.cache.ClearAllForUserInSession(ctx, userID, sessionID); err != nil {
		s.logger.Error("clearing holds after booking", "booking_id", booking.ID, "error", err)
	}

	s.bus.Publish(event.TopicBookingCreated, domain.BookingCreatedEvent{
		UserID:    userID,
		SessionID: sessionID,
		Booking:   booking,
		OriginID:  originID,
		SeatIDs:   booking.SeatIDs(),
	})

	return booking, nil
}

func (s *LifecycleService) rollback(ctx context.Context, booking *domain.Booking) {
	if err := s.bookings.Delete(ctx, []int64{booking.ID}); err != nil {
		s.logger.Error("rolling back booking", "booking_id", booking.ID, "error", err)
	}
}

func (s *LifecycleService) GetForUser(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	return s.bookings.GetByIDAndUserID(ctx, bookingID, userID)
}

// Transition moves the booking to target if the state machine allows it,
// persists the change under optimistic locking and announces it on the bus.
func (s *LifecycleService) Transition(ctx context.Context, booking *domain.Booking, target domain.BookingStatus, originID string) error {
	if !booking.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, booking.Status, target)
	}

	booking.Status = target

	if err := s.bookings.Update(ctx, booking); err != nil {
		return err
	}

	s.logger.Info("booking status changed", "booking_id", booking.ID, "status", target)

	// Subscribers read the event on their own goroutines while callers keep
	// mutating the booking, so they get a snapshot.
	snapshot := *booking

	s.bus.Publish(event.TopicBookingStatusUpdated, domain.BookingStatusUpdatedEvent{
		Booking:  &snapshot,
		OriginID: originID,
	})

	return nil
}
