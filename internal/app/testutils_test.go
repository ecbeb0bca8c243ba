package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinetix/cinema-booking/internal/booking"
	"github.com/cinetix/cinema-booking/internal/event"
	"github.com/cinetix/cinema-booking/internal/mailer"
	"github.com/cinetix/cinema-booking/internal/mocks"
	appvalidator "github.com/cinetix/cinema-booking/internal/validator"
)

const testJWTSecret = "test-secret"

type testMocks struct {
	bookings *mocks.MockBookingRepository
	sessions *mocks.MockSessionRepository
	seats    *mocks.MockSeatRepository
	users    *mocks.MockUserRepository
	cache    *mocks.MockSeatHoldCache
	provider *mocks.MockPaymentProvider
	bus      *event.Bus
}

// newTestApplication wires real services over mocked repositories, the hold
// cache and the payment provider, mirroring the production wiring in Run.
func newTestApplication(t *testing.T) (*application, *testMocks) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := &testMocks{
		bookings: new(mocks.MockBookingRepository),
		sessions: new(mocks.MockSessionRepository),
		seats:    new(mocks.MockSeatRepository),
		users:    new(mocks.MockUserRepository),
		cache:    new(mocks.MockSeatHoldCache),
		provider: new(mocks.MockPaymentProvider),
		bus:      event.NewBus(logger),
	}

	lifecycle := booking.NewLifecycleService(
		m.bookings, m.sessions, m.seats, m.users, m.cache, m.provider, m.bus, logger, 10*time.Minute)

	var cfg config
	cfg.env = "test"
	cfg.jwt.secret = testJWTSecret

	app := &application{
		config:       cfg,
		logger:       logger,
		validator:    appvalidator.NewValidator(),
		mailer:       mailer.NewMockMailer(),
		bus:          m.bus,
		holds:        booking.NewHoldService(m.seats, m.bookings, m.cache, m.bus, logger),
		availability: booking.NewAvailabilityService(m.seats, m.bookings, m.cache),
		lifecycle:    lifecycle,
		reconciler:   booking.NewReconciler(m.bookings, m.provider, lifecycle, logger),
		tickets:      booking.NewTicketService(m.bookings, m.sessions, []byte(testJWTSecret)),
	}

	t.Cleanup(m.bus.Close)

	return app, m
}

func makeAuthToken(t *testing.T, userID int64) string {
	t.Helper()

	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return token
}
