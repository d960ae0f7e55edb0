package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.DefaultQuestionCount != 5 {
		t.Fatalf("DefaultQuestionCount = %d, want 5", cfg.DefaultQuestionCount)
	}
	if cfg.AnswerListenTimeout != 45*time.Second {
		t.Fatalf("AnswerListenTimeout = %v, want 45s", cfg.AnswerListenTimeout)
	}
	if cfg.MaxAnswerAttempts != 3 {
		t.Fatalf("MaxAnswerAttempts = %d, want 3", cfg.MaxAnswerAttempts)
	}
	if cfg.QuestionGatewayURL != "" {
		t.Fatalf("QuestionGatewayURL = %q, want empty default", cfg.QuestionGatewayURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("INTERVIEW_ANSWER_LISTEN_TIMEOUT", "30s")
	t.Setenv("INTERVIEW_MAX_ANSWER_ATTEMPTS", "2")
	t.Setenv("QUESTION_GATEWAY_URL", "http://localhost:7777")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.AnswerListenTimeout != 30*time.Second {
		t.Fatalf("AnswerListenTimeout = %v, want 30s", cfg.AnswerListenTimeout)
	}
	if cfg.MaxAnswerAttempts != 2 {
		t.Fatalf("MaxAnswerAttempts = %d, want 2", cfg.MaxAnswerAttempts)
	}
	if cfg.QuestionGatewayURL != "http://localhost:7777" {
		t.Fatalf("QuestionGatewayURL = %q, want explicit value", cfg.QuestionGatewayURL)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatal("AllowAnyOrigin = false, want true")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric attempts", "INTERVIEW_MAX_ANSWER_ATTEMPTS", "lots"},
		{"zero attempts", "INTERVIEW_MAX_ANSWER_ATTEMPTS", "0"},
		{"bad duration", "INTERVIEW_ANSWER_LISTEN_TIMEOUT", "soon"},
		{"too-short timeout", "INTERVIEW_ANSWER_LISTEN_TIMEOUT", "10ms"},
		{"bad bool", "APP_ALLOW_ANY_ORIGIN", "maybe"},
		{"zero question count", "INTERVIEW_DEFAULT_QUESTION_COUNT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatal("Load() error = nil, want parse failure")
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_ALLOW_ANY_ORIGIN",
		"DATABASE_URL",
		"QUESTION_GATEWAY_URL",
		"INTERVIEW_DEFAULT_QUESTION_COUNT",
		"INTERVIEW_ANSWER_LISTEN_TIMEOUT",
		"INTERVIEW_INTER_QUESTION_PAUSE",
		"INTERVIEW_MAX_ANSWER_ATTEMPTS",
		"INTERVIEW_SESSION_RETENTION",
		"INTERVIEW_JANITOR_INTERVAL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
