package booking

import (
	"context"
	"log/slog"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/mailer"
)

const confirmationTemplate = "booking_confirmation.tmpl"

// Notifier emails users when their payment is confirmed. Failures are
// logged and swallowed; email is best-effort and never blocks a booking.
type Notifier struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	mailer   mailer.Mailer
	logger   *slog.Logger
}

func NewNotifier(users domain.UserRepository, sessions domain.SessionRepository, m mailer.Mailer, logger *slog.Logger) *Notifier {
	return &Notifier{
		users:    users,
		sessions: sessions,
		mailer:   m,
		logger:   logger,
	}
}

func (n *Notifier) HandleStatusUpdated(ctx context.Context, e any) {
	updated, ok := e.(domain.BookingStatusUpdatedEvent)
	if !ok || updated.Booking.Status != domain.BookingStatusPaymentConfirmed {
		return
	}

	booking := updated.Booking

	user, err := n.users.GetByID(ctx, booking.UserID)
	if err != nil {
		n.logger.Error("loading user for confirmation email", "booking_id", booking.ID, "error", err)
		return
	}

	session, err := n.sessions.GetByID(ctx, booking.SessionID)
	if err != nil {
		n.logger.Error("loading session for confirmation email", "booking_id", booking.ID, "error", err)
		return
	}

	data := map[string]any{
		"Name":       user.Name,
		"MovieTitle": session.MovieTitle,
		"StartTime":  session.StartTime.Format("Mon, Jan 2 2006 15:04"),
		"SeatCount":  len(booking.Seats),
		"TotalPrice": booking.TotalPrice.StringFixed(2),
		"BookingID":  booking.ID,
	}

	if err := n.mailer.Send(user.Email, confirmationTemplate, data); err != nil {
		n.logger.Error("sending confirmation email", "booking_id", booking.ID, "error", err)
	}
}
