package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"kiatere/pkg/logger"
)

type Config struct {
	Server   ServerConfig
	Game     GameConfig
	Limits   LimitsConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type GameConfig struct {
	DefaultTurnTime  int
	MinTurnTime      int
	MaxTurnTime      int
	WinsToEndGame    int
	CleanupInterval  time.Duration
	EmptyRoomTimeout time.Duration
	RoomTimeout      time.Duration
}

type LimitsConfig struct {
	ConnRatePerIP  float64
	MessageRate    float64
	MessageBurst   int
	MaxMessageSize int64
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", ":9191"),
			ReadTimeout:    getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout:   getDurationOrDefault("WRITE_TIMEOUT", "15s"),
			AllowedOrigins: getListOrDefault("ALLOWED_ORIGINS", "*"),
		},
		Game: GameConfig{
			DefaultTurnTime:  getIntOrDefault("DEFAULT_TURN_TIME", 10),
			MinTurnTime:      getIntOrDefault("MIN_TURN_TIME", 5),
			MaxTurnTime:      getIntOrDefault("MAX_TURN_TIME", 60),
			WinsToEndGame:    getIntOrDefault("WINS_TO_END_GAME", 3),
			CleanupInterval:  getDurationOrDefault("CLEANUP_INTERVAL", "5m"),
			EmptyRoomTimeout: getDurationOrDefault("EMPTY_ROOM_TIMEOUT", "5m"),
			RoomTimeout:      getDurationOrDefault("ROOM_TIMEOUT", "30m"),
		},
		Limits: LimitsConfig{
			ConnRatePerIP:  getFloatOrDefault("CONN_RATE_PER_IP", 20),
			MessageRate:    getFloatOrDefault("MESSAGE_RATE", 10),
			MessageBurst:   getIntOrDefault("MESSAGE_BURST", 20),
			MaxMessageSize: int64(getIntOrDefault("MAX_MESSAGE_SIZE", 4096)),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		logger.Fatal("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Fatal("Invalid integer for %s: %v", key, err)
	}
	return intValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Fatal("Invalid number for %s: %v", key, err)
	}
	return f
}

// getListOrDefault splits a comma separated value, dropping blanks.
func getListOrDefault(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnvOrDefault(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
