package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

// SessionBroadcaster is the hub surface the broadcaster needs.
type SessionBroadcaster interface {
	BroadcastToSession(sessionID int64, payload []byte)
}

// Broadcaster translates bus events into per-session seat updates. Origin
// tags are passed through untouched so clients can ignore their own echoes.
type Broadcaster struct {
	hub    SessionBroadcaster
	logger *slog.Logger
}

func NewBroadcaster(hub SessionBroadcaster, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger,
	}
}

func (b *Broadcaster) Register(bus *event.Bus) {
	bus.Subscribe(event.TopicSeatHoldChanged, "broadcaster", b.handleHoldChanged)
	bus.Subscribe(event.TopicSeatHoldExpired, "broadcaster", b.handleHoldExpired)
	bus.Subscribe(event.TopicBookingCreated, "broadcaster", b.handleBookingCreated)
	bus.Subscribe(event.TopicBookingStatusUpdated, "broadcaster", b.handleStatusUpdated)
}

func (b *Broadcaster) handleHoldChanged(ctx context.Context, e any) {
	change, ok := e.(domain.SeatHoldChangedEvent)
	if !ok {
		return
	}

	b.send(change.SessionID, domain.SeatUpdate{
		SeatID:   change.SeatID,
		OriginID: change.OriginID,
		Taken:    change.Held,
	})
}

func (b *Broadcaster) handleHoldExpired(ctx context.Context, e any) {
	expired, ok := e.(domain.SeatHoldExpiredEvent)
	if !ok {
		return
	}

	b.send(expired.SessionID, domain.SeatUpdate{
		SeatID:   expired.SeatID,
		OriginID: expired.OriginID,
		Taken:    false,
	})
}

func (b *Broadcaster) handleBookingCreated(ctx context.Context, e any) {
	created, ok := e.(domain.BookingCreatedEvent)
	if !ok {
		return
	}

	for _, seatID := range created.SeatIDs {
		b.send(created.SessionID, domain.SeatUpdate{
			SeatID:   seatID,
			OriginID: created.OriginID,
			Taken:    true,
		})
	}
}

// handleStatusUpdated frees the booking's seats when it leaves the set of
// statuses that occupy them.
func (b *Broadcaster) handleStatusUpdated(ctx context.Context, e any) {
	updated, ok := e.(domain.BookingStatusUpdatedEvent)
	if !ok {
		return
	}

	switch updated.Booking.Status {
	case domain.BookingStatusExpired, domain.BookingStatusAwaitingCancellation:
	default:
		return
	}

	for _, seat := range updated.Booking.Seats {
		b.send(updated.Booking.SessionID, domain.SeatUpdate{
			SeatID:   seat.SeatID,
			OriginID: updated.OriginID,
			Taken:    false,
		})
	}
}

func (b *Broadcaster) send(sessionID int64, update domain.SeatUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		b.logger.Error("marshaling seat update", "error", err)
		return
	}

	b.hub.BroadcastToSession(sessionID, payload)
}
