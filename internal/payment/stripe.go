// Package payment adapts the Stripe API to the provider interface the
// booking services consume.
package payment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type StripePaymentProvider struct {
	successUrl     string
	failureUrl     string
	checkoutWindow time.Duration
}

func NewStripePaymentProvider(successUrl, failureUrl string, checkoutWindow time.Duration) *StripePaymentProvider {
	return &StripePaymentProvider{
		successUrl:     successUrl,
		failureUrl:     failureUrl,
		checkoutWindow: checkoutWindow,
	}
}

func (s *StripePaymentProvider) StartCheckout(
	ctx context.Context,
	user *domain.User,
	booking *domain.Booking,
	movieTitle string) (*domain.CheckoutSession, error) {

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, seat := range booking.Seats {
		priceCents := seat.Price.Mul(decimal.NewFromInt(100)).IntPart()

		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("🎬 %s - Seat %d", movieTitle, seat.SeatID)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		ExpiresAt:  stripe.Int64(time.Now().Add(s.checkoutWindow).Unix()),
		Metadata: map[string]string{
			"booking_id": strconv.FormatInt(booking.ID, 10),
			"user_id":    strconv.FormatInt(booking.UserID, 10),
		},
		// The payment intent carries the booking id too, so intent webhooks
		// are routable before the intent id is recorded locally.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"booking_id": strconv.FormatInt(booking.ID, 10),
			},
		},
		CustomerEmail:     &user.Email,
		ClientReferenceID: stripe.String(strconv.FormatInt(booking.UserID, 10)),
	}

	checkout, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{ID: checkout.ID, URL: checkout.URL}, nil
}

func (s *StripePaymentProvider) QueryStatus(ctx context.Context, checkoutID string) (*domain.PaymentInfo, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("payment_intent")

	checkout, err := session.Get(checkoutID, params)
	if err != nil {
		return nil, err
	}

	info := &domain.PaymentInfo{
		CheckoutID:     checkout.ID,
		CheckoutStatus: mapCheckoutStatus(checkout.Status),
		PaymentStatus:  mapPaymentStatus(checkout.PaymentStatus),
	}

	if checkout.PaymentIntent != nil {
		info.PaymentIntentID = checkout.PaymentIntent.ID
	}

	return info, nil
}

func (s *StripePaymentProvider) ExpireCheckout(ctx context.Context, checkoutID string) error {
	params := &stripe.CheckoutSessionExpireParams{Params: stripe.Params{Context: ctx}}

	_, err := session.Expire(checkoutID, params)

	return err
}

func (s *StripePaymentProvider) Refund(ctx context.Context, booking *domain.Booking) (string, error) {
	if booking.PaymentIntentID == nil {
		return "", fmt.Errorf("%w: booking %d has no payment intent to refund", domain.ErrInternal, booking.ID)
	}

	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: booking.PaymentIntentID,
	}

	ref, err := refund.New(params)
	if err != nil {
		return "", err
	}

	return ref.ID, nil
}

func mapCheckoutStatus(status stripe.CheckoutSessionStatus) domain.CheckoutStatus {
	switch status {
	case stripe.CheckoutSessionStatusComplete:
		return domain.CheckoutStatusCompleted
	case stripe.CheckoutSessionStatusExpired:
		return domain.CheckoutStatusExpired
	default:
		return domain.CheckoutStatusPending
	}
}

func mapPaymentStatus(status stripe.CheckoutSessionPaymentStatus) domain.PaymentState {
	switch status {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return domain.PaymentStateSucceeded
	default:
		return domain.PaymentStatePending
	}
}
