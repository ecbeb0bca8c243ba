package app

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cinetix/cinema-booking/api"
)

func (app *application) holdSeatHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.HoldSeatRequest

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

	err = app.holds.Hold(r.Context(), userID, sessionID, input.SeatID, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) releaseSeatHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatID, err := app.readIDParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	err = app.holds.Release(r.Context(), userID, sessionID, seatID, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) releaseAllHoldsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)

	err = app.holds.ReleaseAll(r.Context(), userID, sessionID, app.originID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
