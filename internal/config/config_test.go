package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "READ_TIMEOUT", "ALLOWED_ORIGINS", "DEFAULT_TURN_TIME", "MIN_TURN_TIME",
		"MAX_TURN_TIME", "WINS_TO_END_GAME", "CLEANUP_INTERVAL", "ROOM_TIMEOUT", "MAX_MESSAGE_SIZE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":9191", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Game.DefaultTurnTime)
	assert.Equal(t, 5, cfg.Game.MinTurnTime)
	assert.Equal(t, 60, cfg.Game.MaxTurnTime)
	assert.Equal(t, 3, cfg.Game.WinsToEndGame)
	assert.Equal(t, 5*time.Minute, cfg.Game.CleanupInterval)
	assert.Equal(t, 30*time.Minute, cfg.Game.RoomTimeout)
	assert.Equal(t, int64(4096), cfg.Limits.MaxMessageSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", ":7000")
	t.Setenv("ALLOWED_ORIGINS", "https://kiatere.example, ,http://localhost:5173")
	t.Setenv("DEFAULT_TURN_TIME", "15")
	t.Setenv("EMPTY_ROOM_TIMEOUT", "90s")
	t.Setenv("MESSAGE_RATE", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ":7000", cfg.Server.Port)
	assert.Equal(t, []string{"https://kiatere.example", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15, cfg.Game.DefaultTurnTime)
	assert.Equal(t, 90*time.Second, cfg.Game.EmptyRoomTimeout)
	assert.Equal(t, 2.5, cfg.Limits.MessageRate)
	assert.Equal(t, "debug", cfg.LogLevel)
}
