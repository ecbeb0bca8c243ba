package app

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cinetix/cinema-booking/api"
)

func (app *application) getTicketHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	token, err := app.tickets.IssueTicket(r.Context(), bookingID, userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.TicketResponse{Token: token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) redeemTicketHandler(w http.ResponseWriter, r *http.Request) {
	var input api.RedeemTicketRequest

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

	booking, err := app.tickets.Redeem(r.Context(), input.Token)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.RedeemTicketResponse{
		BookingID: booking.ID,
		SessionID: booking.SessionID,
		SeatIDs:   booking.SeatIDs(),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
