package interview

import (
	"errors"

	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
)

var (
	ErrAlreadyStarted  = errors.New("interview already started")
	ErrNotRunning      = errors.New("interview is not running")
	ErrNotPaused       = errors.New("interview is not paused")
	ErrReportNotReady  = errors.New("interview report not ready")
	ErrSessionStopped  = errors.New("interview session stopped")
	ErrSessionNotFound = errors.New("interview session not found")
)

// State is the lifecycle phase of one interview session.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// Question is one interview question; immutable once generated.
// Numbers are contiguous and 1-based.
type Question struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// PerQuestionAnalysis merges all analyzer outputs for one answer.
// Degraded marks a sentinel produced after an analyzer failure; it keeps
// record numbering aligned with the question list instead of dropping
// the record.
type PerQuestionAnalysis struct {
	Score         int                    `json:"score"`
	Strengths     string                 `json:"strengths"`
	Weaknesses    string                 `json:"weaknesses"`
	Suggestions   string                 `json:"suggestions"`
	Keywords      []string               `json:"keywords,omitempty"`
	Completeness  question.Completeness  `json:"completeness"`
	Sentiment     sentiment.Distribution `json:"sentiment"`
	Emotions      sentiment.Distribution `json:"emotions"`
	Confidence    float64                `json:"confidence"`
	Communication sentiment.Metrics      `json:"communication"`
	Degraded      bool                   `json:"degraded,omitempty"`
	// FailedAnalyzers names the components whose output was replaced by
	// sentinel values; empty unless Degraded.
	FailedAnalyzers []string `json:"failed_analyzers,omitempty"`
}

// AnswerRecord is created exactly once per processed question and never
// mutated afterwards. An empty Answer means the question was skipped or
// timed out.
type AnswerRecord struct {
	Number       int                 `json:"question_number"`
	Answer       string              `json:"answer"`
	ResponseTime float64             `json:"response_time"`
	Analysis     PerQuestionAnalysis `json:"analysis"`
}

// QuestionDetail is the per-question line of the final report.
type QuestionDetail struct {
	Number       int     `json:"question_number"`
	Score        int     `json:"score"`
	Confidence   float64 `json:"confidence"`
	ResponseTime float64 `json:"response_time"`
}

// Report is the final session report; built once at completion.
type Report struct {
	OverallScore        float64          `json:"overall_score"`
	ConfidenceLevel     float64          `json:"confidence_level"`
	AverageResponseTime float64          `json:"average_response_time"`
	DurationMinutes     float64          `json:"interview_duration"`
	ScoreTrend          Trend            `json:"score_trend"`
	ConfidenceTrend     Trend            `json:"confidence_trend"`
	Strengths           []string         `json:"strengths"`
	Weaknesses          []string         `json:"weaknesses"`
	Recommendations     []string         `json:"recommendations"`
	Details             []QuestionDetail `json:"detailed_scores"`
}

// Status is a point-in-time snapshot safe to expose to callers.
type Status struct {
	SessionID       string  `json:"session_id"`
	State           State   `json:"state"`
	CurrentQuestion int     `json:"current_question"`
	TotalQuestions  int     `json:"total_questions"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	CurrentScore    float64 `json:"current_score"`
}

// Feedback is the immediate spoken reaction to one answer.
type Feedback struct {
	Message string `json:"message"`
	Tone    string `json:"tone"`
	Score   int    `json:"score"`
}
