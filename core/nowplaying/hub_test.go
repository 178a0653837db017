package nowplaying

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"Playdeck/core/playlist"
	"Playdeck/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	t.Cleanup(h.Stop)
	return h
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	h := startHub(t)
	a := &Client{Hub: h, Send: make(chan []byte, 4)}
	b := &Client{Hub: h, Send: make(chan []byte, 4)}
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))

	cur := model.Track{Title: "One", File: "one.mp3"}
	h.Publish(playlist.Event{Type: playlist.EventAppended, Track: cur, Current: &cur, Length: 1})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, MsgTypeAppended, msg.Type)

		var ev playlist.Event
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "One", ev.Track.Title)
		assert.Equal(t, 1, ev.Length)
		require.NotNil(t, ev.Current)
		assert.Equal(t, "one.mp3", ev.Current.File)
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := &Client{Hub: h, Send: make(chan []byte, 1)}
	require.True(t, h.Register(c))

	h.Unregister(c)

	assert.Equal(t, 0, h.ClientCount())
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_DropsSlowClients(t *testing.T) {
	h := startHub(t)
	slow := &Client{Hub: h, Send: make(chan []byte)}
	fast := &Client{Hub: h, Send: make(chan []byte, 4)}
	require.True(t, h.Register(slow))
	require.True(t, h.Register(fast))

	h.Broadcast([]byte(`{"type":"moved"}`))

	receive(t, fast)
	assert.Equal(t, 1, h.ClientCount())
	_, ok := <-slow.Send
	assert.False(t, ok)
}

func TestHub_StopClosesClientsAndIsIdempotent(t *testing.T) {
	h := NewHub()
	c := &Client{Hub: h, Send: make(chan []byte, 1)}
	require.True(t, h.Register(c))

	h.Stop()
	h.Stop()

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after Stop")
	}
	assert.False(t, h.Register(&Client{Hub: h, Send: make(chan []byte)}))
	h.Unregister(c)
	h.Broadcast([]byte("ignored"))
}

func TestClient_PongAfterHubClosedSend(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil)
	require.True(t, h.Register(c))

	h.Stop()
	for range c.Send {
	}

	assert.NotPanics(t, c.queuePong)
	assert.NotPanics(t, c.queuePong)
	select {
	case <-c.pong:
	default:
		t.Fatal("pong not queued")
	}
}

func decodeEvent(t *testing.T, data []byte) (MessageType, playlist.Event) {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	var ev playlist.Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	return msg.Type, ev
}

func TestHub_ConcurrentMutationsArriveInOrder(t *testing.T) {
	const writers, perWriter = 8, 25
	h := startHub(t)
	c := &Client{Hub: h, Send: make(chan []byte, writers*perWriter)}
	require.True(t, h.Register(c))

	s := playlist.NewSession()
	s.Subscribe(h.Publish)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, s.AppendEnd(model.Track{Title: fmt.Sprintf("w%d-%d", w, i)}))
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, c.Send, writers*perWriter)
	for want := 1; want <= writers*perWriter; want++ {
		typ, ev := decodeEvent(t, <-c.Send)
		assert.Equal(t, MsgTypeAppended, typ)
		require.Equal(t, want, ev.Length)
	}
}

func TestHub_JoinInsideViewMissesNothing(t *testing.T) {
	const total = 200
	h := startHub(t)
	s := playlist.NewSession()
	s.Subscribe(h.Publish)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			assert.NoError(t, s.AppendEnd(model.Track{Title: fmt.Sprintf("t%d", i)}))
		}
	}()

	c := &Client{Hub: h, Send: make(chan []byte, total+1)}
	joined := false
	s.View(func(tracks []model.Track, length, current int) {
		snap, err := Encode(MsgTypeSnapshot, SnapshotData{Songs: tracks, Length: length, CurrentIndex: current})
		require.NoError(t, err)
		joined = h.Join(c, snap)
	})
	require.True(t, joined)
	<-done

	msg := receive(t, c)
	require.Equal(t, MsgTypeSnapshot, msg.Type)
	var snap SnapshotData
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	require.Len(t, snap.Songs, snap.Length)

	for want := snap.Length + 1; want <= total; want++ {
		_, ev := decodeEvent(t, <-c.Send)
		require.Equal(t, want, ev.Length)
	}
	assert.Empty(t, c.Send)
}

func TestHub_JoinAfterStop(t *testing.T) {
	h := NewHub()
	h.Stop()
	assert.False(t, h.Join(&Client{Hub: h, Send: make(chan []byte, 1)}, []byte("snapshot")))
}

func TestEncode(t *testing.T) {
	data, err := Encode(MsgTypeSnapshot, SnapshotData{Songs: []model.Track{{Title: "A"}}, Length: 1, CurrentIndex: 0})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgTypeSnapshot, msg.Type)
	assert.NotZero(t, msg.Timestamp)
	assert.JSONEq(t, `{"songs":[{"title":"A","file":""}],"length":1,"currentIndex":0}`, string(msg.Data))

	data, err = Encode(MsgTypePong, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
}
