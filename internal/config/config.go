package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the mock interview service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string

	AllowAnyOrigin bool

	DatabaseURL string

	QuestionGatewayURL string

	DefaultQuestionCount int
	AnswerListenTimeout  time.Duration
	InterQuestionPause   time.Duration
	MaxAnswerAttempts    int

	SessionRetention time.Duration
	JanitorInterval  time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:             envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:     envOrDefault("APP_METRICS_NAMESPACE", "mockmantra"),
		LogLevel:             envOrDefault("APP_LOG_LEVEL", "info"),
		AllowAnyOrigin:       false,
		DatabaseURL:          stringsTrimSpace("DATABASE_URL"),
		QuestionGatewayURL:   stringsTrimSpace("QUESTION_GATEWAY_URL"),
		DefaultQuestionCount: 5,
		AnswerListenTimeout:  45 * time.Second,
		InterQuestionPause:   2 * time.Second,
		MaxAnswerAttempts:    3,
		SessionRetention:     30 * time.Minute,
		JanitorInterval:      time.Minute,
		ShutdownTimeout:      15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AnswerListenTimeout, err = durationFromEnv("INTERVIEW_ANSWER_LISTEN_TIMEOUT", cfg.AnswerListenTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.InterQuestionPause, err = durationFromEnv("INTERVIEW_INTER_QUESTION_PAUSE", cfg.InterQuestionPause)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionRetention, err = durationFromEnv("INTERVIEW_SESSION_RETENTION", cfg.SessionRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("INTERVIEW_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultQuestionCount, err = intFromEnv("INTERVIEW_DEFAULT_QUESTION_COUNT", cfg.DefaultQuestionCount)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxAnswerAttempts, err = intFromEnv("INTERVIEW_MAX_ANSWER_ATTEMPTS", cfg.MaxAnswerAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.DefaultQuestionCount <= 0 {
		return Config{}, fmt.Errorf("INTERVIEW_DEFAULT_QUESTION_COUNT must be positive")
	}
	if cfg.MaxAnswerAttempts <= 0 {
		return Config{}, fmt.Errorf("INTERVIEW_MAX_ANSWER_ATTEMPTS must be positive")
	}
	if cfg.AnswerListenTimeout < time.Second {
		return Config{}, fmt.Errorf("INTERVIEW_ANSWER_LISTEN_TIMEOUT must be at least 1s")
	}
	if cfg.SessionRetention < time.Minute {
		return Config{}, fmt.Errorf("INTERVIEW_SESSION_RETENTION must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
