package app

import (
	"net/http"

	"github.com/cinetix/cinema-booking/api"
)

func (app *application) getSessionSeatsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatMap, err := app.availability.SessionSeatMap(r.Context(), sessionID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.SeatMapResponse{
		SessionID: sessionID,
		Seats:     make([]api.SeatResponse, len(seatMap)),
	}

	for i, entry := range seatMap {
		resp.Seats[i] = api.SeatResponse{
			ID:     entry.Seat.ID,
			Row:    entry.Seat.Row,
			Number: entry.Seat.Number,
			Type:   string(entry.Seat.Type),
			Taken:  entry.Taken,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
