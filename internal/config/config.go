package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Handoff store backends.
const (
	HandoffStoreRedis  = "redis"
	HandoffStoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// QuizAPIURL is the remote endpoint serving the quiz payload.
	QuizAPIURL string
	// QuizProxyURL, when set, is prefixed to the URL-encoded QuizAPIURL and
	// the response is unwrapped from its {"contents": ...} envelope.
	QuizProxyURL string
	FetchTimeout time.Duration

	HandoffStore string
	HandoffTTL   time.Duration
	RedisURL     string

	QuestionSeconds int
	MistakeLimit    int
	MaxSessions     int
	SessionIdle     time.Duration

	SessionSecret string
	CookieSecure  bool
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	// LoaderRatePerMinute caps quiz fetches per client IP.
	LoaderRatePerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "pretty"),

		QuizAPIURL:   getEnv("QUIZ_API_URL", ""),
		QuizProxyURL: getEnv("QUIZ_PROXY_URL", ""),
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		HandoffStore: strings.ToLower(getEnv("HANDOFF_STORE", HandoffStoreMemory)),
		HandoffTTL:   time.Duration(getEnvInt("HANDOFF_TTL_MINUTES", 30)) * time.Minute,
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		QuestionSeconds: getEnvInt("QUESTION_SECONDS", 90),
		MistakeLimit:    getEnvInt("MISTAKE_LIMIT", 9),
		MaxSessions:     getEnvInt("MAX_SESSIONS", 1000),
		SessionIdle:     time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,

		SessionSecret:       getEnv("SESSION_SECRET", "change-this-to-a-secure-random-string"),
		CookieSecure:        getEnvBool("COOKIE_SECURE", false),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		LoaderRatePerMinute: getEnvInt("LOADER_RATE_PER_MINUTE", 30),
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

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
