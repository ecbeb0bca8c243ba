package app

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cinetix/cinema-booking/api"
	"github.com/cinetix/cinema-booking/internal/domain"
)

func bookingResponse(booking *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		ID:          booking.ID,
		SessionID:   booking.SessionID,
		Status:      string(booking.Status),
		TotalPrice:  booking.TotalPrice.StringFixed(2),
		SeatIDs:     booking.SeatIDs(),
		CheckoutURL: booking.CheckoutURL,
		ExpiresAt:   booking.ExpiresAt,
		CreatedAt:   booking.CreatedAt,
	}
}

func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CreateBookingRequest

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.validator.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			app.failedValidationResponse(w, r, validationErrs)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	booking, err := app.lifecycle.Create(r.Context(), userID, sessionID, input.SeatIDs, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, bookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	booking, err := app.lifecycle.GetForUser(r.Context(), bookingID, userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, bookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// confirmBookingHandler backs the payment success page: the user claims to
// have paid, so poll the provider and confirm if the payment went through
// before the webhook arrives.
func (app *application) confirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	booking, err := app.reconciler.TryConfirm(r.Context(), bookingID, userID, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, bookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	booking, err := app.reconciler.CancelAndRefund(r.Context(), bookingID, userID, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, bookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
