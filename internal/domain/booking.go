package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusAwaitingPayment      BookingStatus = "AWAITING_PAYMENT"
	BookingStatusPaymentRetry         BookingStatus = "PAYMENT_RETRY"
	BookingStatusPaymentConfirmed     BookingStatus = "PAYMENT_CONFIRMED"
	BookingStatusAwaitingCancellation BookingStatus = "AWAITING_CANCELLATION"
	BookingStatusCancelled            BookingStatus = "CANCELLED"
	BookingStatusExpired              BookingStatus = "EXPIRED"
	BookingStatusPast                 BookingStatus = "PAST"
	BookingStatusAwaitingDeletion     BookingStatus = "AWAITING_DELETION"
)

// allowedTransitions is the single source of truth for the booking state
// machine. Statuses with no entry are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusAwaitingPayment:      {BookingStatusPaymentConfirmed, BookingStatusPaymentRetry, BookingStatusExpired},
	BookingStatusPaymentRetry:         {BookingStatusPaymentConfirmed, BookingStatusExpired},
	BookingStatusPaymentConfirmed:     {BookingStatusAwaitingCancellation, BookingStatusPast},
	BookingStatusExpired:              {BookingStatusAwaitingCancellation, BookingStatusAwaitingDeletion},
	BookingStatusAwaitingCancellation: {BookingStatusCancelled},
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

type Booking struct {
	ID              int64
	UserID          int64
	SessionID       int64
	Status          BookingStatus
	TotalPrice      decimal.Decimal
	CheckoutID      *string
	CheckoutURL     *string
	PaymentIntentID *string
	RefundID        *string
	TicketRedeemed  bool
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       *time.Time
	Seats           []BookedSeat
}

// BookedSeat is an immutable line item snapshotting the seat's price at
// booking time.
type BookedSeat struct {
	SeatID int64
	Price  decimal.Decimal
}

// NewBooking snapshots each seat's price according to its type and the
// session's price list, and sums the total at scale 2 with half-up rounding.
func NewBooking(userID int64, session *Session, seats []Seat) *Booking {
	now := time.Now()

	bookedSeats := make([]BookedSeat, 0, len(seats))
	total := decimal.Zero

	for _, seat := range seats {
		price := session.PriceFor(seat.Type)
		bookedSeats = append(bookedSeats, BookedSeat{SeatID: seat.ID, Price: price})
		total = total.Add(price)
	}

	return &Booking{
		UserID:     userID,
		SessionID:  session.ID,
		Status:     BookingStatusAwaitingPayment,
		TotalPrice: total.Round(2),
		CreatedAt:  now,
		UpdatedAt:  now,
		Seats:      bookedSeats,
	}
}

func (b *Booking) SeatIDs() []int64 {
	ids := make([]int64, len(b.Seats))
	for i, seat := range b.Seats {
		ids[i] = seat.SeatID
	}

	return ids
}

// InFlightStatuses are the statuses in which a booking still occupies its
// seats; a booking in one of them takes precedence over any cache hold.
var InFlightStatuses = []BookingStatus{
	BookingStatusAwaitingPayment,
	BookingStatusPaymentRetry,
	BookingStatusPaymentConfirmed,
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByIDAndUserID(ctx context.Context, id, userID int64) (*Booking, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (*Booking, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Booking, error)

	// Update persists every mutable column and bumps the version column;
	// it fails with ErrEditConflict if the row's version no longer matches
	// booking.Version.
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, ids []int64) error

	// BookedSeatIDs returns the subset of seatIDs occupied by a
	// committed-or-in-flight booking for the session.
	BookedSeatIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error)
	SeatIDsByBookingID(ctx context.Context, bookingID int64) ([]int64, error)

	GetExpired(ctx context.Context) ([]Booking, error)
	GetInStatus(ctx context.Context, status BookingStatus) ([]Booking, error)
	MarkPastIfSessionEnded(ctx context.Context, now time.Time) (int64, error)
	GetIDsToDelete(ctx context.Context, threshold time.Time) ([]int64, error)
}
