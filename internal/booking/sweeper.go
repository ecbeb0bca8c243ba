package booking

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type SweeperConfig struct {
	ExpireInterval    time.Duration
	AlignInterval     time.Duration
	PastInterval      time.Duration
	RetentionInterval time.Duration
	RetentionAge      time.Duration
}

// Sweeper runs the periodic correction jobs that back up the in-memory
// scheduler: expiring overdue bookings missed across restarts, aligning
// expired bookings with the provider's payment state, marking bookings for
// finished sessions and purging bookings past the retention age.
type Sweeper struct {
	bookings   domain.BookingRepository
	reconciler *Reconciler
	logger     *slog.Logger
	cfg        SweeperConfig
}

func NewSweeper(
	bookings domain.BookingRepository,
	reconciler *Reconciler,
	logger *slog.Logger,
	cfg SweeperConfig,
) *Sweeper {
	return &Sweeper{
		bookings:   bookings,
		reconciler: reconciler,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run drives the sweep loops until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop(ctx, s.cfg.ExpireInterval, s.sweepOverdue)
	})
	g.Go(func() error {
		return s.loop(ctx, s.cfg.AlignInterval, s.sweepAlign)
	})
	g.Go(func() error {
		return s.loop(ctx, s.cfg.PastInterval, s.sweepPast)
	})
	g.Go(func() error {
		return s.loop(ctx, s.cfg.RetentionInterval, s.sweepRetention)
	})

	return g.Wait()
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, sweep func(ctx context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

// sweepOverdue routes every booking past its deadline through the regular
// expiry decision, so provider state is still consulted.
func (s *Sweeper) sweepOverdue(ctx context.Context) {
	overdue, err := s.bookings.GetExpired(ctx)
	if err != nil {
		s.logger.Error("listing overdue bookings", "error", err)
		return
	}

	for _, booking := range overdue {
		if err := s.reconciler.TryExpire(ctx, booking.ID); err != nil {
			s.logger.Error("sweeping overdue booking", "booking_id", booking.ID, "error", err)
		}
	}
}

// sweepAlign reconciles every expired booking against the provider. Paid
// ones leave through the refund path; the rest are marked for deletion.
func (s *Sweeper) sweepAlign(ctx context.Context) {
	expired, err := s.bookings.GetInStatus(ctx, domain.BookingStatusExpired)
	if err != nil {
		s.logger.Error("listing expired bookings", "error", err)
		return
	}

	for _, booking := range expired {
		if err := s.reconciler.AlignExpired(ctx, booking.ID); err != nil {
			s.logger.Error("aligning expired booking", "booking_id", booking.ID, "error", err)
		}
	}
}

func (s *Sweeper) sweepPast(ctx context.Context) {
	count, err := s.bookings.MarkPastIfSessionEnded(ctx, time.Now())
	if err != nil {
		s.logger.Error("marking past bookings", "error", err)
		return
	}

	if count > 0 {
		s.logger.Info("marked bookings past", "count", count)
	}
}

// sweepRetention hard-deletes bookings that have sat in AWAITING_DELETION
// past the retention age, line items included.
func (s *Sweeper) sweepRetention(ctx context.Context) {
	threshold := time.Now().Add(-s.cfg.RetentionAge)

	ids, err := s.bookings.GetIDsToDelete(ctx, threshold)
	if err != nil {
		s.logger.Error("listing bookings past retention", "error", err)
		return
	}

	if len(ids) == 0 {
		return
	}

	if err := s.bookings.Delete(ctx, ids); err != nil {
		s.logger.Error("deleting bookings past retention", "error", err)
		return
	}

	s.logger.Info("purged bookings past retention", "count", len(ids))
}
