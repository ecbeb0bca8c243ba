package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cinetix/cinema-booking/internal/domain"
)

// Scheduler fires one in-memory timer per pending booking at its checkout
// deadline plus a small grace period. Timers do not survive a restart; the
// sweeper catches anything that was lost.
type Scheduler struct {
	mu        sync.Mutex
	timers    map[int64]*time.Timer
	grace     time.Duration
	expire    func(ctx context.Context, bookingID int64) error
	afterFunc func(d time.Duration, f func()) *time.Timer
	logger    *slog.Logger
}

func NewScheduler(grace time.Duration, expire func(ctx context.Context, bookingID int64) error, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		timers:    make(map[int64]*time.Timer),
		grace:     grace,
		expire:    expire,
		afterFunc: time.AfterFunc,
		logger:    logger,
	}
}

// Schedule arms the expiry timer for the booking, replacing any previous
// one.
func (s *Scheduler) Schedule(bookingID int64, expiresAt time.Time) {
	delay := time.Until(expiresAt) + s.grace
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[bookingID]; ok {
		timer.Stop()
	}

	s.timers[bookingID] = s.afterFunc(delay, func() {
		s.fire(bookingID)
	})
}

func (s *Scheduler) fire(bookingID int64) {
	s.mu.Lock()
	delete(s.timers, bookingID)
	s.mu.Unlock()

	if err := s.expire(context.Background(), bookingID); err != nil {
		s.logger.Error("expiring booking", "booking_id", bookingID, "error", err)
	}
}

func (s *Scheduler) Cancel(bookingID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[bookingID]; ok {
		timer.Stop()
		delete(s.timers, bookingID)
	}
}

// Stop disarms every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// HandleBookingCreated arms the timer for a freshly created booking.
func (s *Scheduler) HandleBookingCreated(ctx context.Context, e any) {
	created, ok := e.(domain.BookingCreatedEvent)
	if !ok || created.Booking.ExpiresAt == nil {
		return
	}

	s.Schedule(created.Booking.ID, *created.Booking.ExpiresAt)
}

// HandleStatusUpdated disarms the timer once the booking settled, so a
// confirmed booking never gets an expiry attempt.
func (s *Scheduler) HandleStatusUpdated(ctx context.Context, e any) {
	updated, ok := e.(domain.BookingStatusUpdatedEvent)
	if !ok {
		return
	}

	switch updated.Booking.Status {
	case domain.BookingStatusAwaitingPayment, domain.BookingStatusPaymentRetry:
		return
	default:
		s.Cancel(updated.Booking.ID)
	}
}
