package interview

import "time"

// EventType identifies session lifecycle events.
type EventType string

const (
	EventStarted        EventType = "started"
	EventQuestion       EventType = "question"
	EventAnswerAnalyzed EventType = "answer_analyzed"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventStopped        EventType = "stopped"
	EventCompleted      EventType = "completed"
	EventError          EventType = "error"
)

// Event is one lifecycle notification. Only the fields relevant to the
// event type are populated. Events are emitted synchronously from the
// session worker, in order; sinks must not block.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`

	// EventStarted
	TotalQuestions   int `json:"total_questions,omitempty"`
	EstimatedMinutes int `json:"estimated_minutes,omitempty"`

	// EventQuestion
	Question *Question `json:"question,omitempty"`

	// EventAnswerAnalyzed
	QuestionNumber int       `json:"question_number,omitempty"`
	Score          int       `json:"score,omitempty"`
	Confidence     float64   `json:"confidence,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`

	// EventCompleted
	Report *Report `json:"report,omitempty"`

	// EventError
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// EventSink receives lifecycle events. Implementations must be safe for
// concurrent use and must return quickly; a slow sink stalls the interview.
type EventSink interface {
	Publish(ev Event)
}

// ProgressFunc receives (currentOrdinal, total) updates, delivered
// separately from the event stream.
type ProgressFunc func(current, total int)

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }
