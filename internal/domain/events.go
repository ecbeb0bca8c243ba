package domain

// Fixed origin tags for updates triggered by the service itself rather than
// by a connected client.
const (
	OriginHoldExpiry = "hold-expiry"
	OriginScheduler  = "scheduler"
	OriginPayment    = "payment"
	OriginSweeper    = "sweeper"
)

// SeatUpdate is the message published on a session's seat topic. Clients
// compare OriginID against their own tag to suppress echoes of changes
// they requested themselves.
type SeatUpdate struct {
	SeatID   int64  `json:"seatId"`
	OriginID string `json:"originId"`
	Taken    bool   `json:"taken"`
}

type BookingCreatedEvent struct {
	UserID    int64
	SessionID int64
	Booking   *Booking
	OriginID  string
	SeatIDs   []int64
}

type BookingStatusUpdatedEvent struct {
	Booking  *Booking
	OriginID string
}

type SeatHoldChangedEvent struct {
	SeatID    int64
	SessionID int64
	OriginID  string
	Held      bool
}

type SeatHoldExpiredEvent struct {
	SeatID    int64
	SessionID int64
	OriginID  string
}

type ClientDisconnectedEvent struct {
	UserID    int64
	SessionID int64
	OriginID  string
}
