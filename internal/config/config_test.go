package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"QUIZ_API_URL", "HANDOFF_STORE", "QUESTION_SECONDS", "MISTAKE_LIMIT", "COOKIE_SECURE", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HandoffStore != HandoffStoreMemory {
		t.Errorf("HandoffStore = %q", cfg.HandoffStore)
	}
	if cfg.QuestionSeconds != 90 || cfg.MistakeLimit != 9 {
		t.Errorf("rules = %d/%d", cfg.QuestionSeconds, cfg.MistakeLimit)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUIZ_API_URL", "https://api.example.com/quiz")
	t.Setenv("QUIZ_PROXY_URL", "https://proxy.example.com/get?url=")
	t.Setenv("HANDOFF_STORE", "Redis")
	t.Setenv("HANDOFF_TTL_MINUTES", "5")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "3")
	t.Setenv("MISTAKE_LIMIT", "oops")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	if cfg.QuizAPIURL != "https://api.example.com/quiz" {
		t.Errorf("QuizAPIURL = %q", cfg.QuizAPIURL)
	}
	if cfg.HandoffStore != HandoffStoreRedis {
		t.Errorf("HandoffStore = %q", cfg.HandoffStore)
	}
	if cfg.HandoffTTL != 5*time.Minute || cfg.FetchTimeout != 3*time.Second {
		t.Errorf("durations = %v/%v", cfg.HandoffTTL, cfg.FetchTimeout)
	}
	if cfg.MistakeLimit != 9 {
		t.Errorf("invalid int should fall back, got %d", cfg.MistakeLimit)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure not parsed")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestHandoffKey(t *testing.T) {
	if got := CacheKey.HandoffKey("abc"); got != "quiz:handoff:abc" {
		t.Fatalf("HandoffKey = %q", got)
	}
}
