package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Playdeck/core/nowplaying"
	"Playdeck/core/playlist"
	"Playdeck/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, conn *websocket.Conn) nowplaying.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg nowplaying.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPlaylistFeed(t *testing.T) {
	hub := nowplaying.NewHub()
	t.Cleanup(hub.Stop)

	session := playlist.NewSession()
	session.Subscribe(hub.Publish)
	require.NoError(t, session.AppendEnd(model.Track{Title: "first", File: "first.mp3"}))

	dir := t.TempDir()
	h := NewAPIHandler(session, mustLocalStore(t, dir), stubExtractor{}, hub, 0)
	srv := httptest.NewServer(NewRouter(h, ""))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/playlist"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	msg := readMessage(t, conn)
	require.Equal(t, nowplaying.MsgTypeSnapshot, msg.Type)
	var snap nowplaying.SnapshotData
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 1, snap.Length)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Equal(t, "first", snap.Songs[0].Title)

	require.NoError(t, session.AppendEnd(model.Track{Title: "second", File: "second.mp3"}))
	msg = readMessage(t, conn)
	assert.Equal(t, nowplaying.MsgTypeAppended, msg.Type)
	var ev playlist.Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "second", ev.Track.Title)
	assert.Equal(t, 2, ev.Length)

	rec, err := http.Post(srv.URL+"/api/playlist/next", "application/json", nil)
	require.NoError(t, err)
	rec.Body.Close()
	require.Equal(t, http.StatusOK, rec.StatusCode)

	msg = readMessage(t, conn)
	assert.Equal(t, nowplaying.MsgTypeMoved, msg.Type)
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	require.NotNil(t, ev.Current)
	assert.Equal(t, "second", ev.Current.Title)

	require.NoError(t, conn.WriteJSON(nowplaying.Message{Type: nowplaying.MsgTypePing}))
	assert.Equal(t, nowplaying.MsgTypePong, readMessage(t, conn).Type)
}

func TestPlaylistFeed_DisabledWithoutHub(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/ws/playlist", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
