package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SeatType string

const (
	SeatTypeStandard SeatType = "STANDARD"
	SeatTypeVip      SeatType = "VIP"
	SeatTypePwd      SeatType = "PWD"
)

type Seat struct {
	ID       int64
	Row      string
	Number   int
	Type     SeatType
	ScreenID int64
}

type Session struct {
	ID                int64
	MovieTitle        string
	ScreenID          int64
	StartTime         time.Time
	EndTime           time.Time
	StandardSeatPrice decimal.Decimal
	VipSeatPrice      decimal.Decimal
	PwdSeatPrice      decimal.Decimal
}

func (s *Session) PriceFor(seatType SeatType) decimal.Decimal {
	switch seatType {
	case SeatTypeVip:
		return s.VipSeatPrice
	case SeatTypePwd:
		return s.PwdSeatPrice
	default:
		return s.StandardSeatPrice
	}
}

type SeatRepository interface {
	GetBySessionID(ctx context.Context, sessionID int64) ([]Seat, error)
	GetBySessionAndIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]Seat, error)
}

type SessionRepository interface {
	GetByID(ctx context.Context, id int64) (*Session, error)
}
