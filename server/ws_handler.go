package server

import (
	"net/http"

	"Playdeck/core/nowplaying"
	"Playdeck/logger"
	"Playdeck/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PlaylistFeedHandler upgrades to a websocket that first receives a
// snapshot of the playlist and then every change as it happens.
func (h *APIHandler) PlaylistFeedHandler(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, codeInternal, "live feed disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := nowplaying.NewClient(h.hub, conn)
	joined := false
	// Under the session lock no event can slip between snapshot and join.
	h.session.View(func(tracks []model.Track, length, current int) {
		snapshot, err := nowplaying.Encode(nowplaying.MsgTypeSnapshot, nowplaying.SnapshotData{
			Songs:        tracks,
			Length:       length,
			CurrentIndex: current,
		})
		if err != nil {
			logger.Error("failed to encode snapshot", logger.ErrorField(err))
			return
		}
		joined = h.hub.Join(client, snapshot)
	})
	if !joined {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(r.Context())
}
