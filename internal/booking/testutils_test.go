package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:                3,
		MovieTitle:        "Heat",
		ScreenID:          1,
		StartTime:         time.Now().Add(2 * time.Hour),
		EndTime:           time.Now().Add(5 * time.Hour),
		StandardSeatPrice: decimal.RequireFromString("50.00"),
		VipSeatPrice:      decimal.RequireFromString("75.00"),
		PwdSeatPrice:      decimal.RequireFromString("40.00"),
	}
}

func testBooking(status domain.BookingStatus) *domain.Booking {
	checkoutID := "cs_123"
	paymentIntentID := "pi_123"

	return &domain.Booking{
		ID:              42,
		UserID:          7,
		SessionID:       3,
		Status:          status,
		TotalPrice:      decimal.RequireFromString("100.00"),
		CheckoutID:      &checkoutID,
		PaymentIntentID: &paymentIntentID,
		Version:         1,
		Seats: []domain.BookedSeat{
			{SeatID: 1, Price: decimal.RequireFromString("50.00")},
			{SeatID: 2, Price: decimal.RequireFromString("50.00")},
		},
	}
}

// eventCollector records everything published on the topics it subscribes
// to. Call bus.Close() before reading to drain the subscribers.
type eventCollector struct {
	mu     sync.Mutex
	events []any
}

func (c *eventCollector) handle(ctx context.Context, e any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, e)
}

func (c *eventCollector) all() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]any(nil), c.events...)
}

func collectEvents(bus *event.Bus, topics ...string) *eventCollector {
	collector := &eventCollector{}

	for _, topic := range topics {
		bus.Subscribe(topic, "collector", collector.handle)
	}

	return collector
}
