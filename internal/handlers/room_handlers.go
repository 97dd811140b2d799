package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"kiatere/internal/services"
	ws "kiatere/internal/websocket"
	"kiatere/pkg/logger"
)

type RoomHandlers struct {
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewRoomHandlers(roomService *services.RoomService, hub *ws.Hub) *RoomHandlers {
	return &RoomHandlers{
		roomService: roomService,
		hub:         hub,
	}
}

// RoomSummary is what the lobby needs to decide whether a code is joinable.
type RoomSummary struct {
	RoomCode         string   `json:"roomCode"`
	Host             string   `json:"host"`
	Players          []string `json:"players"`
	ConnectedPlayers []string `json:"connectedPlayers"`
	GameStarted      bool     `json:"gameStarted"`
	RoundActive      bool     `json:"roundActive"`
}

type HealthStatus struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func (h *RoomHandlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))

	room, err := h.roomService.GetRoom(code)
	if errors.Is(err, services.ErrRoomNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Get room error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, RoomSummary{
		RoomCode:         room.RoomCode,
		Host:             room.Host,
		Players:          room.Players,
		ConnectedPlayers: room.ConnectedPlayers,
		GameStarted:      room.GameState.GameStarted,
		RoundActive:      room.GameState.RoundActive,
	})
}

func (h *RoomHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:      "ok",
		Rooms:       h.roomService.RoomCount(),
		Connections: h.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error writing response: %v", err)
	}
}
