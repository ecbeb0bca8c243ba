// Package event provides the in-process publish/subscribe bus that decouples
// the booking services from the realtime and notification subscribers.
package event

import (
	"context"
	"log/slog"
	"sync"
)

const (
	TopicBookingCreated       = "booking.created"
	TopicBookingStatusUpdated = "booking.status_updated"
	TopicSeatHoldChanged      = "seat_hold.changed"
	TopicSeatHoldExpired      = "seat_hold.expired"
	TopicClientDisconnected   = "client.disconnected"
)

const subscriberBufferSize = 64

type Handler func(ctx context.Context, event any)

type subscriber struct {
	name string
	ch   chan any
}

// Bus fans events out to topic subscribers. Each subscriber runs on its own
// goroutine and receives events in publish order; a slow subscriber
// backpressures publishers on its topic but never blocks other subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	wg     sync.WaitGroup
	closed bool
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a named handler for a topic. The name only appears in
// logs. Subscribing after Close is a no-op.
func (b *Bus) Subscribe(topic, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	sub := &subscriber{
		name: name,
		ch:   make(chan any, subscriberBufferSize),
	}
	b.subs[topic] = append(b.subs[topic], sub)

	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		for event := range sub.ch {
			b.dispatch(sub.name, handler, event)
		}
	}()
}

func (b *Bus) dispatch(name string, handler Handler, event any) {
	defer func() {
		if err := recover(); err != nil {
			b.logger.Error("event subscriber panicked", "subscriber", name, "error", err)
		}
	}()

	handler(context.Background(), event)
}

// Publish delivers the event to every subscriber of the topic. It blocks
// while a subscriber's buffer is full, so delivery order per subscriber
// matches publish order.
func (b *Bus) Publish(topic string, event any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs[topic] {
		sub.ch <- event
	}
}

// Close stops accepting events and waits for every subscriber to drain its
// buffer.
func (b *Bus) Close() {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return
	}

	b.closed = true

	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
	}

	b.mu.Unlock()

	b.wg.Wait()
}
