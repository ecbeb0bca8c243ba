package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
	"github.com/cinetix/cinema-booking/internal/mocks"
)

func newSweeperForTest(bookings *mocks.MockBookingRepository, provider *mocks.MockPaymentProvider) *Sweeper {
	bus := event.NewBus(testLogger())

	lifecycle := NewLifecycleService(
		bookings,
		new(mocks.MockSessionRepository),
		new(mocks.MockSeatRepository),
		new(mocks.MockUserRepository),
		new(mocks.MockSeatHoldCache),
		provider,
		bus,
		testLogger(),
		10*time.Minute,
	)
	reconciler := NewReconciler(bookings, provider, lifecycle, testLogger())

	cfg := SweeperConfig{
		ExpireInterval:    time.Minute,
		AlignInterval:     time.Minute,
		PastInterval:      time.Minute,
		RetentionInterval: time.Minute,
		RetentionAge:      7 * 24 * time.Hour,
	}

	return NewSweeper(bookings, reconciler, testLogger(), cfg)
}

func TestSweepOverdueExpiresPendingBookings(t *testing.T) {
	ctx := context.Background()

	bookings := new(mocks.MockBookingRepository)
	provider := new(mocks.MockPaymentProvider)
	sweeper := newSweeperForTest(bookings, provider)

	overdue := testBooking(domain.BookingStatusAwaitingPayment)

	bookings.On("GetExpired", ctx).Return([]domain.Booking{*overdue}, nil)
	bookings.On("GetByID", ctx, int64(42)).Return(overdue, nil)
	provider.On("QueryStatus", ctx, "cs_123").Return(nil, errors.New("connection refused"))
	bookings.On("Update", ctx, overdue).Return(nil)

	sweeper.sweepOverdue(ctx)

	assert.Equal(t, domain.BookingStatusExpired, overdue.Status)
	bookings.AssertExpectations(t)
}

func TestSweepPast(t *testing.T) {
	ctx := context.Background()

	bookings := new(mocks.MockBookingRepository)
	sweeper := newSweeperForTest(bookings, new(mocks.MockPaymentProvider))

	bookings.On("MarkPastIfSessionEnded", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	sweeper.sweepPast(ctx)

	bookings.AssertExpectations(t)
}

func TestSweepAlignResolvesExpiredBookings(t *testing.T) {
	ctx := context.Background()

	bookings := new(mocks.MockBookingRepository)
	provider := new(mocks.MockPaymentProvider)
	sweeper := newSweeperForTest(bookings, provider)

	unpaid := testBooking(domain.BookingStatusExpired)

	bookings.On("GetInStatus", ctx, domain.BookingStatusExpired).Return([]domain.Booking{*unpaid}, nil)
	bookings.On("GetByID", ctx, int64(42)).Return(unpaid, nil)
	provider.On("QueryStatus", ctx, "cs_123").Return(&domain.PaymentInfo{
		CheckoutID:     "cs_123",
		CheckoutStatus: domain.CheckoutStatusExpired,
		PaymentStatus:  domain.PaymentStatePending,
	}, nil)
	bookings.On("Update", ctx, unpaid).Return(nil)

	sweeper.sweepAlign(ctx)

	assert.Equal(t, domain.BookingStatusAwaitingDeletion, unpaid.Status)
	bookings.AssertExpectations(t)
}

func TestSweepRetentionPurgesMarkedBookings(t *testing.T) {
	ctx := context.Background()

	bookings := new(mocks.MockBookingRepository)
	sweeper := newSweeperForTest(bookings, new(mocks.MockPaymentProvider))

	bookings.On("GetIDsToDelete", ctx, mock.AnythingOfType("time.Time")).Return([]int64{1, 2}, nil)
	bookings.On("Delete", ctx, []int64{1, 2}).Return(nil)

	sweeper.sweepRetention(ctx)

	bookings.AssertExpectations(t)
}

func TestSweepRetentionWithNothingToPurge(t *testing.T) {
	ctx := context.Background()

	bookings := new(mocks.MockBookingRepository)
	sweeper := newSweeperForTest(bookings, new(mocks.MockPaymentProvider))

	bookings.On("GetIDsToDelete", ctx, mock.AnythingOfType("time.Time")).Return([]int64{}, nil)

	sweeper.sweepRetention(ctx)

	bookings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
