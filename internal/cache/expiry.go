package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

// expiredEventPattern matches Redis keyspace notifications for expired keys
// on any database. Requires notify-keyspace-events to include "Ex".
const expiredEventPattern = "__keyevent@*__:expired"

// ExpiryListener converts seat hold key expirations into bus events so the
// realtime layer can announce freed seats without polling.
type ExpiryListener struct {
	client redis.UniversalClient
	bus    *event.Bus
	logger *slog.Logger
}

func NewExpiryListener(client redis.UniversalClient, bus *event.Bus, logger *slog.Logger) *ExpiryListener {
	return &ExpiryListener{
		client: client,
		bus:    bus,
		logger: logger,
	}
}

// Run blocks consuming expiry notifications until ctx is cancelled. The
// underlying subscription reconnects transparently on connection loss.
func (l *ExpiryListener) Run(ctx context.Context) error {
	pubsub := l.client.PSubscribe(ctx, expiredEventPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()

	l.logger.Info("seat hold expiry listener started", "pattern", expiredEventPattern)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			l.handle(msg.Payload)
		}
	}
}

func (l *ExpiryListener) handle(key string) {
	sessionID, seatID, ok := parseHoldKey(key)
	if !ok {
		return
	}

	l.logger.Debug("seat hold expired", "session_id", sessionID, "seat_id", seatID)

	l.bus.Publish(event.TopicSeatHoldExpired, domain.SeatHoldExpiredEvent{
		SeatID:    seatID,
		SessionID: sessionID,
		OriginID:  domain.OriginHoldExpiry,
	})
}
