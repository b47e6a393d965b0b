package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logging.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	before := hub.ClientCount()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/records"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestPublishedIsPushedToClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv)

	hub.Published(context.Background(), pipeline.Publication{
		Title:       "כדורסל:08-10-2025 הפועל ירושלים נגד מכבי תל אביב - ליגת העל",
		Source:      "basket",
		Record:      game.Record{OwnScore: 80, OpponentScore: 70},
		PublishedAt: time.Unix(1700000000, 0),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type      string `json:"type"`
		Source    string `json:"source"`
		Timestamp int64  `json:"timestamp"`
		Data      struct {
			Title    string `json:"title"`
			OwnScore int    `json:"own_score"`
		} `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(data, &msg))
	assert.Equal(t, "record_published", msg.Type)
	assert.Equal(t, "basket", msg.Source)
	assert.Equal(t, int64(1700000000), msg.Timestamp)
	assert.Equal(t, 80, msg.Data.OwnScore)
}

func TestSubscribeFiltersBySource(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","sources":["euroleague"]}`)))
	// give the read pump a moment to apply the filter
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(Message{Type: "record_published", Source: "basket"})
	hub.Broadcast(Message{Type: "record_published", Source: "euroleague"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source":"euroleague"`)
}

func TestHealth(t *testing.T) {
	_, srv := startHub(t)

	resp, err := srv.Client().Get(srv.URL + "/ws/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
