package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	hub.Start()

	a := &Connection{Send: make(chan []byte, 1)}
	b := &Connection{Send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)

	require.NoError(t, hub.Broadcast("file_ingested", map[string]any{"filename": "sales.csv"}))

	for _, conn := range []*Connection{a, b} {
		select {
		case data := <-conn.Send:
			var event Event
			require.NoError(t, json.Unmarshal(data, &event))
			assert.Equal(t, "file_ingested", event.Type)
			assert.NotEmpty(t, event.ID)
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := &Connection{Send: make(chan []byte, 1)}
	hub.Register(conn)
	hub.Unregister(conn)

	// 等待 Hub 处理注销
	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-conn.Send
	assert.False(t, open)
}
