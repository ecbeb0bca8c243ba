package domain

import "context"

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusExpired   CheckoutStatus = "expired"
)

type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateSucceeded PaymentState = "succeeded"
	PaymentStateFailed    PaymentState = "failed"
)

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentInfo is the provider's authoritative view of a checkout, used by
// the reconciliation paths.
type PaymentInfo struct {
	CheckoutID      string
	CheckoutStatus  CheckoutStatus
	PaymentIntentID string
	PaymentStatus   PaymentState
}

type PaymentProvider interface {
	StartCheckout(ctx context.Context, user *User, booking *Booking, movieTitle string) (*CheckoutSession, error)
	QueryStatus(ctx context.Context, checkoutID string) (*PaymentInfo, error)

	// ExpireCheckout actively closes the provider-side checkout session,
	// which triggers a provider expiry notification on success.
	ExpireCheckout(ctx context.Context, checkoutID string) error
	Refund(ctx context.Context, booking *Booking) (string, error)
}
