package domain

import (
	"errors"
	"fmt"
)

// The three error classes of the core. Specific causes below wrap one of
// them so callers can match on the class with errors.Is.
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrSeatAlreadyHeld       = fmt.Errorf("%w: seat is already temporarily held", ErrConflict)
	ErrHoldOwnedByOther      = fmt.Errorf("%w: seat is temporarily held by another user", ErrConflict)
	ErrSeatAlreadyBooked     = fmt.Errorf("%w: seat is already booked", ErrConflict)
	ErrInvalidTransition     = fmt.Errorf("%w: booking status transition not allowed", ErrConflict)
	ErrEditConflict          = fmt.Errorf("%w: edit conflict", ErrConflict)
	ErrBookingNotConfirmed   = fmt.Errorf("%w: booking payment is not confirmed", ErrConflict)
	ErrTicketAlreadyRedeemed = fmt.Errorf("%w: ticket has already been redeemed", ErrConflict)
	ErrSessionAlreadyStarted = fmt.Errorf("%w: session has already started", ErrConflict)

	ErrRecordNotFound     = fmt.Errorf("%w: record not found", ErrNotFound)
	ErrExternalIDMismatch = fmt.Errorf("%w: external identifier does not match booking", ErrNotFound)
)
