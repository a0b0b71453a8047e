package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the application-wide configuration, filled from the
// environment with sane defaults.
type Config struct {
	Server ServerConfig
	Game   GameConfig
	Evil   EvilConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	CORSOrigins []string
	LogLevel    string
}

type GameConfig struct {
	RoundDurationSec int
	WordChoicesCount int
	ChooseDuration   time.Duration
	RevealDuration   time.Duration
}

// EvilConfig gates the trusted admin override routes. An empty token
// disables them entirely.
type EvilConfig struct {
	Token string
}

// Load reads .env if present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnv("PORT", "5000"),
			CORSOrigins: []string{getEnv("CORS_ORIGINS", "*")},
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Game: GameConfig{
			RoundDurationSec: getEnvInt("ROUND_DURATION_SEC", 60),
			WordChoicesCount: getEnvInt("WORD_CHOICES_COUNT", 3),
			ChooseDuration:   time.Duration(getEnvInt("CHOOSE_DURATION_SEC", 12)) * time.Second,
			RevealDuration:   time.Duration(getEnvInt("REVEAL_DURATION_SEC", 6)) * time.Second,
		},
		Evil: EvilConfig{
			Token: getEnv("EVIL_TOKEN", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
