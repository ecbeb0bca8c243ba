// Package api defines the request and response shapes of the HTTP API.
package api

import "time"

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationErrorResponse struct {
	ErrorResponse
	Fields map[string]string `json:"fields"`
}

type HoldSeatRequest struct {
	SeatID int64 `json:"seatId" validate:"required,gt=0"`
}

type CreateBookingRequest struct {
	SeatIDs []int64 `json:"seatIds" validate:"required,min=1,max=10,dive,gt=0"`
}

type BookingResponse struct {
	ID          int64      `json:"id"`
	SessionID   int64      `json:"sessionId"`
	Status      string     `json:"status"`
	TotalPrice  string     `json:"totalPrice"`
	SeatIDs     []int64    `json:"seatIds"`
	CheckoutURL *string    `json:"checkoutUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type SeatResponse struct {
	ID     int64  `json:"id"`
	Row    string `json:"row"`
	Number int    `json:"number"`
	Type   string `json:"type"`
	Taken  bool   `json:"taken"`
}

type SeatMapResponse struct {
	SessionID int64          `json:"sessionId"`
	Seats     []SeatResponse `json:"seats"`
}

type TicketResponse struct {
	Token string `json:"token"`
}

type RedeemTicketRequest struct {
	Token string `json:"token" validate:"required"`
}

type RedeemTicketResponse struct {
	BookingID int64   `json:"bookingId"`
	SessionID int64   `json:"sessionId"`
	SeatIDs   []int64 `json:"seatIds"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}
