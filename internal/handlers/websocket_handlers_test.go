package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiatere/internal/services"
	ws "kiatere/internal/websocket"
)

func newTestServer(t *testing.T, rps float64, origins ...string) *httptest.Server {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	hub := ws.NewHub(services.NewRoomService(services.DefaultRules()), ws.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h := NewWebSocketHandlers(hub, NewRateLimiter(rps), origins)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHandleWebSocketRoundTrip(t *testing.T) {
	srv := newTestServer(t, 20)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CREATE_ROOM","playerName":"Alice"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "ROOM_CREATED", got["type"])
	assert.Equal(t, []any{"Alice"}, got["players"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "ERROR", got["type"])
}

func TestHandleWebSocketRateLimitsUpgrades(t *testing.T) {
	srv := newTestServer(t, 0.5) // burst of 1

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer first.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	h := NewWebSocketHandlers(nil, NewRateLimiter(1), []string{"https://kiatere.example"})

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "game.local", true},
		{"https://kiatere.example", "game.local", true},
		{"https://evil.example", "game.local", false},
		{"http://game.local", "game.local", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, h.checkOrigin(r), "origin %q", tt.origin)
	}
}
