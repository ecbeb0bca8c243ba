package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/mailer"
	"github.com/cinetix/cinema-booking/internal/mocks"
)

func TestNotifierSendsConfirmationEmail(t *testing.T) {
	ctx := context.Background()

	users := new(mocks.MockUserRepository)
	sessions := new(mocks.MockSessionRepository)
	mockMailer := mailer.NewMockMailer()

	users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7, Name: "Neil", Email: "neil@example.com"}, nil)
	sessions.On("GetByID", ctx, int64(3)).Return(testSession(), nil)

	notifier := NewNotifier(users, sessions, mockMailer, testLogger())

	notifier.HandleStatusUpdated(ctx, domain.BookingStatusUpdatedEvent{
		Booking:  testBooking(domain.BookingStatusPaymentConfirmed),
		OriginID: domain.OriginPayment,
	})

	sent := mockMailer.GetSentEmails()
	require.Len(t, sent, 1)
	assert.Equal(t, "neil@example.com", sent[0].Recipient)
	assert.Equal(t, confirmationTemplate, sent[0].TemplateFile)
}

func TestNotifierIgnoresOtherStatusChanges(t *testing.T) {
	mockMailer := mailer.NewMockMailer()

	notifier := NewNotifier(new(mocks.MockUserRepository), new(mocks.MockSessionRepository), mockMailer, testLogger())

	notifier.HandleStatusUpdated(context.Background(), domain.BookingStatusUpdatedEvent{
		Booking:  testBooking(domain.BookingStatusExpired),
		OriginID: domain.OriginScheduler,
	})

	assert.Empty(t, mockMailer.GetSentEmails())
}
