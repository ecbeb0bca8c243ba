package domain

import (
	"context"
	"time"
)

// SeatHoldCache is the short-lived claim store guarding seats during the
// payment flow. At most one hold exists per (seat, session) at any time.
type SeatHoldCache interface {
	// Reserve fails with ErrSeatAlreadyHeld if any hold exists for the
	// key, regardless of holder.
	Reserve(ctx context.Context, seatID, sessionID, userID int64) error

	// Release reports whether a hold was removed; releasing a hold that no
	// longer exists is a no-op. Fails with ErrHoldOwnedByOther when the
	// hold belongs to someone else.
	Release(ctx context.Context, seatID, sessionID, userID int64) (bool, error)

	// ClearAllForUserInSession removes every hold the user owns in the
	// session and returns the freed seat IDs.
	ClearAllForUserInSession(ctx context.Context, userID, sessionID int64) ([]int64, error)

	IsHeldByOther(ctx context.Context, seatIDs []int64, sessionID, userID int64) (bool, error)
	FindHeld(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error)

	TTL() time.Duration
}
