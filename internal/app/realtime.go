package app

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/cinetix/cinema-booking/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// sessionLiveHandler upgrades the connection and attaches the client to the
// session's seat update feed.
func (app *application) sessionLiveHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := app.readIDParam(r, "sessionId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := app.contextGetUserID(r)
	originID := app.originID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logError(r, err)
		return
	}

	client := realtime.NewClient(app.hub, conn, userID, sessionID, originID, app.logger)
	client.Start()
}
