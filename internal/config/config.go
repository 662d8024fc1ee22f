package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port           string
	DatabasePath   string // SQLite database file path
	AllowedOrigins string

	// Generation backend configuration (OpenAI-compatible API)
	GenerationBaseURL      string
	GenerationAPIKey       string
	GenerationModel        string
	GenerationTimeout      time.Duration
	GenerationMaxPerMinute int // rate cap on backend calls

	// Optional persona file that customizes the assistant's tone.
	// Watched for changes and hot-reloaded when set.
	PersonaFile string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "daybook.db"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),

		GenerationBaseURL:      getEnv("GENERATION_BASE_URL", "https://api.openai.com/v1"),
		GenerationAPIKey:       getEnv("GENERATION_API_KEY", ""),
		GenerationModel:        getEnv("GENERATION_MODEL", "gpt-4o-mini"),
		GenerationTimeout:      time.Duration(getIntEnv("GENERATION_TIMEOUT_SECONDS", 60)) * time.Second,
		GenerationMaxPerMinute: getIntEnv("GENERATION_MAX_PER_MINUTE", 30),

		PersonaFile: getEnv("PERSONA_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
