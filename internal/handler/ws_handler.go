package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/metrics"
	"sniproom/internal/pkg/resp"
)

// HandleRoomSocket upgrades the request to a WebSocket subscription on the
// room. Browsers cannot set an Authorization header on the WebSocket
// handshake, so the token middleware on this route also accepts ?token=.
//
// The socket is downstream-only. All mutations go through the REST API; the
// subscription just delivers a fresh snapshot after each committed change and
// a terminal frame when the room ends.
func HandleRoomSocket(deps *AppDeps, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		payload, customErr := roomIdentity(r, roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		// Confirms the room still exists and is unexpired, and yields the
		// expiry instant that bounds the session lifetime.
		summary, customErr := deps.Rooms.Summary(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logx.Warn("WebSocket upgrade failed", "room_id", roomID, "error", err.Error())
			return
		}

		client, ok := deps.Hub.Subscribe(roomID, summary.ExpiresAt, conn, payload.UserID)
		if !ok {
			// The room's session ended between the summary check and
			// registration. The room is effectively gone.
			conn.Close()
			return
		}

		metrics.IncSubscribers()
		defer metrics.DecSubscribers()

		go client.WritePump()
		client.ReadPump()
	}
}
