package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"kiatere/internal/config"
	"kiatere/internal/handlers"
	"kiatere/internal/services"
	"kiatere/internal/websocket"
	"kiatere/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	roomService := services.NewRoomService(services.Rules{
		DefaultTurnTime:  cfg.Game.DefaultTurnTime,
		MinTurnTime:      cfg.Game.MinTurnTime,
		MaxTurnTime:      cfg.Game.MaxTurnTime,
		WinsToEndGame:    cfg.Game.WinsToEndGame,
		EmptyRoomTimeout: cfg.Game.EmptyRoomTimeout,
		RoomTimeout:      cfg.Game.RoomTimeout,
	})

	// Initialize WebSocket hub
	hubOpts := websocket.DefaultOptions()
	hubOpts.CleanupInterval = cfg.Game.CleanupInterval
	hubOpts.MessageRate = cfg.Limits.MessageRate
	hubOpts.MessageBurst = cfg.Limits.MessageBurst
	hubOpts.MaxMessageSize = cfg.Limits.MaxMessageSize
	hub := websocket.NewHub(roomService, hubOpts)
	go hub.Run(ctx)

	limiter := handlers.NewRateLimiter(cfg.Limits.ConnRatePerIP)
	go limiter.Run(ctx)

	// Initialize handlers
	roomHandlers := handlers.NewRoomHandlers(roomService, hub)
	wsHandlers := handlers.NewWebSocketHandlers(hub, limiter, cfg.Server.AllowedOrigins)

	// Setup routes
	router := mux.NewRouter()
	setupRoutes(router, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

func setupRoutes(r *mux.Router, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// WebSocket routes
	r.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	r.HandleFunc("/", wsHandlers.HandleWebSocket)

	r.HandleFunc("/rooms/{code}", roomHandlers.GetRoom).Methods(http.MethodGet)
	r.HandleFunc("/health", roomHandlers.Health).Methods(http.MethodGet)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
