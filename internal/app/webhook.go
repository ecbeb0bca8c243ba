package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/cinetix/cinema-booking/internal/domain"
)

const maxWebhookBodySize = 65536

// StripeWebhookHandler applies provider notifications. Notifications that
// reference unknown bookings are logged and acknowledged so the provider
// stops retrying them.
func (app *application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.stripe.webhookSecret)
	if err != nil {
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	err = app.handleStripeEvent(r, event)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			app.logger.Warn("webhook references unknown booking", "event_type", event.Type, "event_id", event.ID)
			w.WriteHeader(http.StatusOK)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (app *application) handleStripeEvent(r *http.Request, event stripe.Event) error {
	ctx := r.Context()

	switch event.Type {
	case "checkout.session.completed":
		var checkout stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
			return err
		}

		paymentIntentID := ""
		if checkout.PaymentIntent != nil {
			paymentIntentID = checkout.PaymentIntent.ID
		}

		return app.reconciler.CheckoutCompleted(ctx, checkout.ID, paymentIntentID)

	case "checkout.session.expired":
		var checkout stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
			return err
		}

		return app.reconciler.CheckoutExpired(ctx, checkout.ID)

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}

		bookingID, err := bookingIDFromMetadata(intent.Metadata)
		if err != nil {
			return err
		}

		return app.reconciler.PaymentSucceeded(ctx, bookingID, intent.ID)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}

		bookingID, err := bookingIDFromMetadata(intent.Metadata)
		if err != nil {
			return err
		}

		return app.reconciler.PaymentFailed(ctx, bookingID, intent.ID)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return err
		}

		if charge.PaymentIntent == nil {
			return nil
		}

		refundID := ""
		if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
			refundID = charge.Refunds.Data[0].ID
		}

		return app.reconciler.PaymentRefunded(ctx, charge.PaymentIntent.ID, refundID)

	default:
		app.logger.Debug("ignoring webhook event", "event_type", event.Type)
		return nil
	}
}

// bookingIDFromMetadata resolves the booking from the metadata attached when
// the checkout was created. Intent events cannot be resolved by intent id:
// the id is only recorded locally once the checkout completion is processed,
// and the intent events may arrive first.
func bookingIDFromMetadata(metadata map[string]string) (int64, error) {
	raw, ok := metadata["booking_id"]
	if !ok {
		return 0, fmt.Errorf("%w: event carries no booking_id metadata", domain.ErrNotFound)
	}

	bookingID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed booking_id metadata %q", domain.ErrNotFound, raw)
	}

	return bookingID, nil
}
