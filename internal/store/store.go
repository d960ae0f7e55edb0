package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("interview session not found")

// Session statuses as persisted.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// QuestionRecord is one asked question with its answer and analysis.
// Analysis is stored as the JSON form of the merged per-question analysis.
type QuestionRecord struct {
	SessionID       string          `json:"session_id"`
	Number          int             `json:"question_number"`
	Question        string          `json:"question_text"`
	Answer          string          `json:"user_answer"`
	Analysis        json.RawMessage `json:"analysis"`
	SentimentScore  float64         `json:"sentiment_score"`
	ConfidenceScore float64         `json:"confidence_score"`
	ResponseTime    float64         `json:"response_time"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SessionUpdate carries only the fields to change; nil means keep.
type SessionUpdate struct {
	DurationSeconds *float64
	Score           *float64
	Feedback        json.RawMessage
	Status          *string
	CompletedAt     *time.Time
}

// SessionSummary is one row of a user's interview history.
type SessionSummary struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	JobRole         string          `json:"job_role"`
	Difficulty      string          `json:"difficulty"`
	DurationSeconds float64         `json:"duration_seconds"`
	Score           float64         `json:"score"`
	Feedback        json.RawMessage `json:"feedback,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// UserStatistics aggregates a user's completed sessions.
type UserStatistics struct {
	TotalSessions   int     `json:"total_sessions"`
	AverageScore    float64 `json:"average_score"`
	AverageDuration float64 `json:"average_duration"`
	BestScore       float64 `json:"best_score"`
}

// Store persists interview sessions, per-question records, and metrics.
// Implementations must be safe for concurrent use across sessions.
type Store interface {
	CreateSession(ctx context.Context, id, userID, jobRole, difficulty string) error
	UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) error
	AddQuestionRecord(ctx context.Context, rec QuestionRecord) error
	AddPerformanceMetric(ctx context.Context, sessionID, name string, value float64) error
	SessionHistory(ctx context.Context, userID string, limit int) ([]SessionSummary, error)
	SessionQuestions(ctx context.Context, sessionID string) ([]QuestionRecord, error)
	UserStatistics(ctx context.Context, userID string) (UserStatistics, error)
	CleanupStaleSessions(ctx context.Context, olderThan time.Duration) (int, error)
	Close() error
}
