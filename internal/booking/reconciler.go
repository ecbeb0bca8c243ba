package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cinetix/cinema-booking/internal/domain"
)

// Reconciler applies provider notifications and timeout decisions to
// bookings. Every entry point is idempotent: replayed notifications and
// races with the scheduler settle on the same final state.
type Reconciler struct {
	bookings  domain.BookingRepository
	provider  domain.PaymentProvider
	lifecycle *LifecycleService
	logger    *slog.Logger
}

func NewReconciler(
	bookings domain.BookingRepository,
	provider domain.PaymentProvider,
	lifecycle *LifecycleService,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		bookings:  bookings,
		provider:  provider,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// CheckoutCompleted records the payment intent the provider attached to the
// checkout. The status does not move yet; the payment outcome notification
// does that.
func (r *Reconciler) CheckoutCompleted(ctx context.Context, checkoutID, paymentIntentID string) error {
	booking, err := r.bookings.GetByCheckoutID(ctx, checkoutID)
	if err != nil {
		return err
	}

	if booking.PaymentIntentID != nil {
		if *booking.PaymentIntentID == paymentIntentID {
			return nil
		}

		return fmt.Errorf("%w: checkout %s carries intent %s, booking has %s",
			domain.ErrExternalIDMismatch, checkoutID, paymentIntentID, *booking.PaymentIntentID)
	}

	booking.PaymentIntentID = &paymentIntentID

	return r.bookings.Update(ctx, booking)
}

// matchOrAdoptIntent enforces the id rules for payment intent events: a
// booking with no recorded intent adopts the incoming one (the intent event
// can arrive before the checkout completion), otherwise the ids must agree.
func matchOrAdoptIntent(booking *domain.Booking, paymentIntentID string) error {
	if booking.PaymentIntentID == nil {
		booking.PaymentIntentID = &paymentIntentID
		return nil
	}

	if *booking.PaymentIntentID != paymentIntentID {
		return fmt.Errorf("%w: booking %d recorded intent %s, event carries %s",
			domain.ErrExternalIDMismatch, booking.ID, *booking.PaymentIntentID, paymentIntentID)
	}

	return nil
}

// PaymentSucceeded confirms the booking. A payment that lands after the
// booking already expired is left alone; the align sweep resolves it with a
// refund, since the seats were already released.
func (r *Reconciler) PaymentSucceeded(ctx context.Context, bookingID int64, paymentIntentID string) error {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := matchOrAdoptIntent(booking, paymentIntentID); err != nil {
		return err
	}

	switch booking.Status {
	case domain.BookingStatusPaymentConfirmed:
		return nil
	case domain.BookingStatusExpired:
		r.logger.Warn("payment succeeded for expired booking, deferring to align sweep", "booking_id", booking.ID)
		return nil
	default:
		return r.lifecycle.Transition(ctx, booking, domain.BookingStatusPaymentConfirmed, domain.OriginPayment)
	}
}

func (r *Reconciler) refundLatePayment(ctx context.Context, booking *domain.Booking) error {
	r.logger.Warn("payment succeeded after expiry, refunding", "booking_id", booking.ID)

	err := r.lifecycle.Transition(ctx, booking, domain.BookingStatusAwaitingCancellation, domain.OriginSweeper)
	if err != nil {
		return err
	}

	refundID, err := r.provider.Refund(ctx, booking)
	if err != nil {
		return fmt.Errorf("refunding late payment: %w", err)
	}

	booking.RefundID = &refundID

	return r.bookings.Update(ctx, booking)
}

// PaymentFailed marks the booking retryable so the user can attempt payment
// again within the checkout window. A repeat failure only refreshes the
// updated timestamp, no transition and no notification.
func (r *Reconciler) PaymentFailed(ctx context.Context, bookingID int64, paymentIntentID string) error {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := matchOrAdoptIntent(booking, paymentIntentID); err != nil {
		return err
	}

	if booking.Status == domain.BookingStatusPaymentRetry {
		return r.bookings.Update(ctx, booking)
	}

	return r.lifecycle.Transition(ctx, booking, domain.BookingStatusPaymentRetry, domain.OriginPayment)
}

// PaymentRefunded finalizes a cancellation once the provider confirms the
// refund. The refund id must match the one recorded when the refund was
// requested; a booking with no recorded id adopts the incoming one.
func (r *Reconciler) PaymentRefunded(ctx context.Context, paymentIntentID, refundID string) error {
	booking, err := r.bookings.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}

	if booking.RefundID != nil && *booking.RefundID != refundID {
		return fmt.Errorf("%w: booking %d recorded refund %s, event carries %s",
			domain.ErrExternalIDMismatch, booking.ID, *booking.RefundID, refundID)
	}

	if booking.Status == domain.BookingStatusCancelled {
		return nil
	}

	if booking.RefundID == nil {
		booking.RefundID = &refundID
	}

	return r.lifecycle.Transition(ctx, booking, domain.BookingStatusCancelled, domain.OriginPayment)
}

// CancelAndRefund handles a user cancelling a confirmed booking. The
// booking parks in AWAITING_CANCELLATION until the refund notification
// arrives.
func (r *Reconciler) CancelAndRefund(ctx context.Context, bookingID, userID int64, originID string) (*domain.Booking, error) {
	booking, err := r.bookings.GetByIDAndUserID(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusPaymentConfirmed {
		return nil, domain.ErrBookingNotConfirmed
	}

	err = r.lifecycle.Transition(ctx, booking, domain.BookingStatusAwaitingCancellation, originID)
	if err != nil {
		return nil, err
	}

	refundID, err := r.provider.Refund(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("requesting refund: %w", err)
	}

	booking.RefundID = &refundID

	if err := r.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// TryConfirm is the success-page callback path: the user came back from the
// provider claiming to have paid, so poll for the authoritative state and
// confirm if the payment actually went through. Returns the booking with
// ErrBookingNotConfirmed when the provider does not report a successful
// payment yet; the eventual notification will settle it.
func (r *Reconciler) TryConfirm(ctx context.Context, bookingID, userID int64, originID string) (*domain.Booking, error) {
	booking, err := r.bookings.GetByIDAndUserID(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusPaymentConfirmed {
		return booking, nil
	}

	if booking.CheckoutID == nil || !booking.Status.CanTransitionTo(domain.BookingStatusPaymentConfirmed) {
		return nil, domain.ErrBookingNotConfirmed
	}

	info, err := r.provider.QueryStatus(ctx, *booking.CheckoutID)
	if err != nil {
		return nil, fmt.Errorf("querying payment status: %w", err)
	}

	if info.PaymentStatus != domain.PaymentStateSucceeded {
		return booking, domain.ErrBookingNotConfirmed
	}

	if err := r.tryConfirm(ctx, booking, info, originID); err != nil {
		return nil, err
	}

	return booking, nil
}

// AlignExpired reconciles one expired booking against the provider: a
// payment that slipped through despite the local expiry is refunded, since
// the seats were already released; otherwise the booking is marked for
// deletion.
func (r *Reconciler) AlignExpired(ctx context.Context, bookingID int64) error {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}

		return err
	}

	if booking.Status != domain.BookingStatusExpired {
		return nil
	}

	if booking.CheckoutID == nil {
		return r.lifecycle.Transition(ctx, booking, domain.BookingStatusAwaitingDeletion, domain.OriginSweeper)
	}

	info, err := r.provider.QueryStatus(ctx, *booking.CheckoutID)
	if err != nil {
		return fmt.Errorf("querying payment status: %w", err)
	}

	if info.PaymentStatus == domain.PaymentStateSucceeded {
		if booking.PaymentIntentID == nil && info.PaymentIntentID != "" {
			booking.PaymentIntentID = &info.PaymentIntentID
		}

		return r.refundLatePayment(ctx, booking)
	}

	return r.lifecycle.Transition(ctx, booking, domain.BookingStatusAwaitingDeletion, domain.OriginSweeper)
}

// CheckoutExpired routes a provider-side checkout expiry through the same
// decision as a local timeout.
func (r *Reconciler) CheckoutExpired(ctx context.Context, checkoutID string) error {
	booking, err := r.bookings.GetByCheckoutID(ctx, checkoutID)
	if err != nil {
		return err
	}

	return r.TryExpire(ctx, booking.ID)
}

// TryExpire decides the fate of a booking whose checkout window ran out.
// The provider is consulted first: a payment that actually succeeded
// confirms the booking instead of expiring it. When the provider cannot be
// reached the booking expires locally; a later payment notification falls
// into the refund path above.
func (r *Reconciler) TryExpire(ctx context.Context, bookingID int64) error {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}

		return err
	}

	if !booking.Status.CanTransitionTo(domain.BookingStatusExpired) {
		return nil
	}

	if booking.CheckoutID == nil {
		return r.lifecycle.Transition(ctx, booking, domain.BookingStatusExpired, domain.OriginScheduler)
	}

	info, err := r.provider.QueryStatus(ctx, *booking.CheckoutID)
	if err != nil {
		r.logger.Error("payment provider unreachable, expiring locally", "booking_id", booking.ID, "error", err)
		return r.lifecycle.Transition(ctx, booking, domain.BookingStatusExpired, domain.OriginScheduler)
	}

	if info.PaymentStatus == domain.PaymentStateSucceeded {
		return r.tryConfirm(ctx, booking, info, domain.OriginScheduler)
	}

	if info.CheckoutStatus == domain.CheckoutStatusPending {
		if err := r.provider.ExpireCheckout(ctx, *booking.CheckoutID); err != nil {
			r.logger.Error("expiring provider checkout", "booking_id", booking.ID, "error", err)
		}
	}

	return r.lifecycle.Transition(ctx, booking, domain.BookingStatusExpired, domain.OriginScheduler)
}

// tryConfirm covers the race where the payment went through but the
// notification has not arrived yet.
func (r *Reconciler) tryConfirm(ctx context.Context, booking *domain.Booking, info *domain.PaymentInfo, originID string) error {
	if info.PaymentIntentID != "" {
		booking.PaymentIntentID = &info.PaymentIntentID
	}

	return r.lifecycle.Transition(ctx, booking, domain.BookingStatusPaymentConfirmed, originID)
}
