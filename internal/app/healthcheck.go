package app

import (
	"net/http"

	"github.com/cinetix/cinema-booking/api"
)

func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
