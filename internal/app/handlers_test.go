package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/cinetix/cinema-booking/api"
	"github.com/cinetix/cinema-booking/internal/domain"
)

func doRequest(t *testing.T, app *application, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Client-ID", "client-a")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)

	return rr
}

func upcomingSession() *domain.Session {
	return &domain.Session{
		ID:                3,
		MovieTitle:        "Heat",
		ScreenID:          1,
		StartTime:         time.Now().Add(2 * time.Hour),
		EndTime:           time.Now().Add(5 * time.Hour),
		StandardSeatPrice: decimal.NewFromInt(50),
		VipSeatPrice:      decimal.NewFromInt(75),
		PwdSeatPrice:      decimal.NewFromInt(40),
	}
}

func TestHealthcheckHandler(t *testing.T) {
	app, _ := newTestApplication(t)

	rr := doRequest(t, app, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "available", resp.Status)
	assert.Equal(t, "test", resp.Environment)
	assert.Equal(t, version, resp.Version)
}

func TestRequiresAuthentication(t *testing.T) {
	app, _ := newTestApplication(t)

	rr := doRequest(t, app, http.MethodGet, "/sessions/3/seats", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
}

func TestHoldSeatHandler(t *testing.T) {
	app, m := newTestApplication(t)

	m.seats.On("GetBySessionAndIDs", mock.Anything, int64(3), []int64{5}).
		Return([]domain.Seat{{ID: 5, Row: "A", Number: 5, Type: domain.SeatTypeStandard}}, nil)
	m.bookings.On("BookedSeatIDs", mock.Anything, int64(3), []int64{5}).Return([]int64{}, nil)
	m.cache.On("Reserve", mock.Anything, int64(5), int64(3), int64(7)).Return(nil)

	rr := doRequest(t, app, http.MethodPost, "/sessions/3/holds", makeAuthToken(t, 7), api.HoldSeatRequest{SeatID: 5})

	assert.Equal(t, http.StatusNoContent, rr.Code)
	m.cache.AssertExpectations(t)
}

func TestHoldSeatHandlerSeatAlreadyHeld(t *testing.T) {
	app, m := newTestApplication(t)

	m.seats.On("GetBySessionAndIDs", mock.Anything, int64(3), []int64{5}).
		Return([]domain.Seat{{ID: 5, Row: "A", Number: 5, Type: domain.SeatTypeStandard}}, nil)
	m.bookings.On("BookedSeatIDs", mock.Anything, int64(3), []int64{5}).Return([]int64{}, nil)
	m.cache.On("Reserve", mock.Anything, int64(5), int64(3), int64(7)).Return(domain.ErrSeatAlreadyHeld)

	rr := doRequest(t, app, http.MethodPost, "/sessions/3/holds", makeAuthToken(t, 7), api.HoldSeatRequest{SeatID: 5})

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHoldSeatHandlerValidation(t *testing.T) {
	app, m := newTestApplication(t)

	rr := doRequest(t, app, http.MethodPost, "/sessions/3/holds", makeAuthToken(t, 7), api.HoldSeatRequest{SeatID: 0})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	m.cache.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBookingHandler(t *testing.T) {
	app, m := newTestApplication(t)

	seatIDs := []int64{5, 9}
	user := &domain.User{ID: 7, Name: "Neil", Email: "neil@example.com"}

	m.sessions.On("GetByID", mock.Anything, int64(3)).Return(upcomingSession(), nil)
	m.seats.On("GetBySessionAndIDs", mock.Anything, int64(3), seatIDs).Return([]domain.Seat{
		{ID: 5, Row: "A", Number: 5, Type: domain.SeatTypeStandard},
		{ID: 9, Row: "B", Number: 4, Type: domain.SeatTypeVip},
	}, nil)
	m.cache.On("IsHeldByOther", mock.Anything, seatIDs, int64(3), int64(7)).Return(false, nil)
	m.bookings.On("BookedSeatIDs", mock.Anything, int64(3), seatIDs).Return([]int64{}, nil)
	m.bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 42
		}).
		Return(nil)
	m.users.On("GetByID", mock.Anything, int64(7)).Return(user, nil)
	m.provider.On("StartCheckout", mock.Anything, user, mock.AnythingOfType("*domain.Booking"), "Heat").
		Return(&domain.CheckoutSession{ID: "cs_123", URL: "https://checkout.example.com/cs_123"}, nil)
	m.bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)
	m.cache.On("ClearAllForUserInSession", mock.Anything, int64(7), int64(3)).Return(seatIDs, nil)

	rr := doRequest(t, app, http.MethodPost, "/sessions/3/bookings", makeAuthToken(t, 7),
		api.CreateBookingRequest{SeatIDs: seatIDs})

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp api.BookingResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, string(domain.BookingStatusAwaitingPayment), resp.Status)
	assert.Equal(t, "125.00", resp.TotalPrice)
	assert.ElementsMatch(t, seatIDs, resp.SeatIDs)
	require.NotNil(t, resp.CheckoutURL)
	assert.Equal(t, "https://checkout.example.com/cs_123", *resp.CheckoutURL)
	require.NotNil(t, resp.ExpiresAt)
	m.bookings.AssertExpectations(t)
}

func TestCreateBookingHandlerSeatTaken(t *testing.T) {
	app, m := newTestApplication(t)

	seatIDs := []int64{5}

	m.sessions.On("GetByID", mock.Anything, int64(3)).Return(upcomingSession(), nil)
	m.seats.On("GetBySessionAndIDs", mock.Anything, int64(3), seatIDs).
		Return([]domain.Seat{{ID: 5, Row: "A", Number: 5, Type: domain.SeatTypeStandard}}, nil)
	m.cache.On("IsHeldByOther", mock.Anything, seatIDs, int64(3), int64(7)).Return(false, nil)
	m.bookings.On("BookedSeatIDs", mock.Anything, int64(3), seatIDs).Return([]int64{5}, nil)

	rr := doRequest(t, app, http.MethodPost, "/sessions/3/bookings", makeAuthToken(t, 7),
		api.CreateBookingRequest{SeatIDs: seatIDs})

	assert.Equal(t, http.StatusConflict, rr.Code)
	m.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestConfirmBookingHandler(t *testing.T) {
	app, m := newTestApplication(t)

	now := time.Now()
	checkoutID := "cs_123"
	booking := &domain.Booking{
		ID:         42,
		UserID:     7,
		SessionID:  3,
		Status:     domain.BookingStatusAwaitingPayment,
		TotalPrice: decimal.NewFromInt(100),
		CheckoutID: &checkoutID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.bookings.On("GetByIDAndUserID", mock.Anything, int64(42), int64(7)).Return(booking, nil)
	m.provider.On("QueryStatus", mock.Anything, "cs_123").Return(&domain.PaymentInfo{
		CheckoutID:      "cs_123",
		CheckoutStatus:  domain.CheckoutStatusCompleted,
		PaymentIntentID: "pi_123",
		PaymentStatus:   domain.PaymentStateSucceeded,
	}, nil)
	m.bookings.On("Update", mock.Anything, booking).Return(nil)

	rr := doRequest(t, app, http.MethodPost, "/bookings/42/confirm", makeAuthToken(t, 7), nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.BookingResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, string(domain.BookingStatusPaymentConfirmed), resp.Status)
}

func TestGetBookingHandlerNotFound(t *testing.T) {
	app, m := newTestApplication(t)

	m.bookings.On("GetByIDAndUserID", mock.Anything, int64(42), int64(7)).
		Return(nil, domain.ErrRecordNotFound)

	rr := doRequest(t, app, http.MethodGet, "/bookings/42/", makeAuthToken(t, 7), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app, _ := newTestApplication(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStripeEventRoutesPaymentSucceeded(t *testing.T) {
	app, m := newTestApplication(t)

	now := time.Now()
	paymentIntentID := "pi_123"
	booking := &domain.Booking{
		ID:              42,
		UserID:          7,
		SessionID:       3,
		Status:          domain.BookingStatusAwaitingPayment,
		TotalPrice:      decimal.NewFromInt(100),
		PaymentIntentID: &paymentIntentID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	m.bookings.On("GetByID", mock.Anything, int64(42)).Return(booking, nil)
	m.bookings.On("Update", mock.Anything, booking).Return(nil)

	event := stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"pi_123","metadata":{"booking_id":"42"}}`)},
	}

	err := app.handleStripeEvent(httptest.NewRequest(http.MethodPost, "/webhook/", nil), event)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPaymentConfirmed, booking.Status)
	m.bookings.AssertExpectations(t)
}

func TestStripeEventRoutesIntentByMetadataBeforeCheckoutCompleted(t *testing.T) {
	app, m := newTestApplication(t)

	now := time.Now()
	booking := &domain.Booking{
		ID:         42,
		UserID:     7,
		SessionID:  3,
		Status:     domain.BookingStatusAwaitingPayment,
		TotalPrice: decimal.NewFromInt(100),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.bookings.On("GetByID", mock.Anything, int64(42)).Return(booking, nil)
	m.bookings.On("Update", mock.Anything, booking).Return(nil)

	event := stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"pi_777","metadata":{"booking_id":"42"}}`)},
	}

	err := app.handleStripeEvent(httptest.NewRequest(http.MethodPost, "/webhook/", nil), event)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPaymentConfirmed, booking.Status)
	require.NotNil(t, booking.PaymentIntentID)
	assert.Equal(t, "pi_777", *booking.PaymentIntentID)
}

func TestStripeEventWithoutBookingMetadata(t *testing.T) {
	app, m := newTestApplication(t)

	event := stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"pi_777"}`)},
	}

	err := app.handleStripeEvent(httptest.NewRequest(http.MethodPost, "/webhook/", nil), event)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	m.bookings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestStripeEventIgnoresUnknownTypes(t *testing.T) {
	app, m := newTestApplication(t)

	event := stripe.Event{
		Type: "customer.created",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	err := app.handleStripeEvent(httptest.NewRequest(http.MethodPost, "/webhook/", nil), event)

	require.NoError(t, err)
	m.bookings.AssertNotCalled(t, "GetByPaymentIntentID", mock.Anything, mock.Anything)
}
