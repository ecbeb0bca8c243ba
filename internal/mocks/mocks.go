// Package mocks holds hand-written testify mocks for the domain interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)

	if booking, ok := args.Get(0).(*domain.Booking); ok {
		return booking, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) GetByIDAndUserID(ctx context.Context, id, userID int64) (*domain.Booking, error) {
	args := m.Called(ctx, id, userID)

	if booking, ok := args.Get(0).(*domain.Booking); ok {
		return booking, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*domain.Booking, error) {
	args := m.Called(ctx, checkoutID)

	if booking, ok := args.Get(0).(*domain.Booking); ok {
		return booking, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Booking, error) {
	args := m.Called(ctx, paymentIntentID)

	if booking, ok := args.Get(0).(*domain.Booking); ok {
		return booking, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockBookingRepository) BookedSeatIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error) {
	args := m.Called(ctx, sessionID, seatIDs)

	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) SeatIDsByBookingID(ctx context.Context, bookingID int64) ([]int64, error) {
	args := m.Called(ctx, bookingID)

	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) GetExpired(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)

	if bookings, ok := args.Get(0).([]domain.Booking); ok {
		return bookings, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) GetInStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, status)

	if bookings, ok := args.Get(0).([]domain.Booking); ok {
		return bookings, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBookingRepository) MarkPastIfSessionEnded(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) GetIDsToDelete(ctx context.Context, threshold time.Time) ([]int64, error) {
	args := m.Called(ctx, threshold)

	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) GetBySessionID(ctx context.Context, sessionID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, sessionID)

	if seats, ok := args.Get(0).([]domain.Seat); ok {
		return seats, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockSeatRepository) GetBySessionAndIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]domain.Seat, error) {
	args := m.Called(ctx, sessionID, seatIDs)

	if seats, ok := args.Get(0).([]domain.Seat); ok {
		return seats, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)

	if session, ok := args.Get(0).(*domain.Session); ok {
		return session, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)

	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) StartCheckout(ctx context.Context, user *domain.User, booking *domain.Booking, movieTitle string) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, user, booking, movieTitle)

	if session, ok := args.Get(0).(*domain.CheckoutSession); ok {
		return session, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPaymentProvider) QueryStatus(ctx context.Context, checkoutID string) (*domain.PaymentInfo, error) {
	args := m.Called(ctx, checkoutID)

	if info, ok := args.Get(0).(*domain.PaymentInfo); ok {
		return info, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPaymentProvider) ExpireCheckout(ctx context.Context, checkoutID string) error {
	return m.Called(ctx, checkoutID).Error(0)
}

func (m *MockPaymentProvider) Refund(ctx context.Context, booking *domain.Booking) (string, error) {
	args := m.Called(ctx, booking)
	return args.String(0), args.Error(1)
}

type MockSeatHoldCache struct {
	mock.Mock
}

func (m *MockSeatHoldCache) Reserve(ctx context.Context, seatID, sessionID, userID int64) error {
	return m.Called(ctx, seatID, sessionID, userID).Error(0)
}

func (m *MockSeatHoldCache) Release(ctx context.Context, seatID, sessionID, userID int64) (bool, error) {
	args := m.Called(ctx, seatID, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatHoldCache) ClearAllForUserInSession(ctx context.Context, userID, sessionID int64) ([]int64, error) {
	args := m.Called(ctx, userID, sessionID)

	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockSeatHoldCache) IsHeldByOther(ctx context.Context, seatIDs []int64, sessionID, userID int64) (bool, error) {
	args := m.Called(ctx, seatIDs, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatHoldCache) FindHeld(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error) {
	args := m.Called(ctx, sessionID, seatIDs)

	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockSeatHoldCache) TTL() time.Duration {
	return m.Called().Get(0).(time.Duration)
}
