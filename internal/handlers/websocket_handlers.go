package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	ws "kiatere/internal/websocket"
	"kiatere/pkg/logger"
)

type WebSocketHandlers struct {
	hub            *ws.Hub
	limiter        *RateLimiter
	allowedOrigins map[string]bool
	allowAll       bool
	upgrader       websocket.Upgrader
}

func NewWebSocketHandlers(hub *ws.Hub, limiter *RateLimiter, allowedOrigins []string) *WebSocketHandlers {
	h := &WebSocketHandlers{
		hub:            hub,
		limiter:        limiter,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			h.allowAll = true
		}
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from a configured origin.
func (h *WebSocketHandlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAll {
		return true
	}
	if h.allowedOrigins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.limiter.Allow(ip) {
		logger.Warn("Rate limited websocket upgrade from %s", ip)
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	logger.Debug("Connection %s opened from %s", client.ID(), ip)

	go client.WritePump()
	go client.ReadPump()
}
