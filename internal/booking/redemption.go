package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinetix/cinema-booking/internal/domain"
)

// TicketService issues signed entry tickets for confirmed bookings and
// redeems them exactly once at the door.
type TicketService struct {
	bookings domain.BookingRepository
	sessions domain.SessionRepository
	secret   []byte
}

func NewTicketService(bookings domain.BookingRepository, sessions domain.SessionRepository, secret []byte) *TicketService {
	return &TicketService{
		bookings: bookings,
		sessions: sessions,
		secret:   secret,
	}
}

type ticketClaims struct {
	jwt.RegisteredClaims
	BookingID int64 `json:"bid"`
	UserID    int64 `json:"uid"`
}

// IssueTicket signs a ticket token valid until the session ends.
func (s *TicketService) IssueTicket(ctx context.Context, bookingID, userID int64) (string, error) {
	booking, err := s.bookings.GetByIDAndUserID(ctx, bookingID, userID)
	if err != nil {
		return "", err
	}

	if booking.Status != domain.BookingStatusPaymentConfirmed {
		return "", domain.ErrBookingNotConfirmed
	}

	session, err := s.sessions.GetByID(ctx, booking.SessionID)
	if err != nil {
		return "", err
	}

	claims := ticketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(bookingID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(session.EndTime),
		},
		BookingID: bookingID,
		UserID:    userID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing ticket: %w", err)
	}

	return token, nil
}

// Redeem validates the ticket token and marks the booking's ticket used.
// A second redemption fails with ErrTicketAlreadyRedeemed.
func (s *TicketService) Redeem(ctx context.Context, token string) (*domain.Booking, error) {
	var claims ticketClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ticket token", domain.ErrNotFound)
	}

	booking, err := s.bookings.GetByID(ctx, claims.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusPaymentConfirmed {
		return nil, domain.ErrBookingNotConfirmed
	}

	if booking.TicketRedeemed {
		return nil, domain.ErrTicketAlreadyRedeemed
	}

	booking.TicketRedeemed = true

	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}
