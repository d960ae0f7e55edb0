package question

import (
	"context"
	"errors"
)

var (
	// ErrNoQuestions means the generator produced an empty question list.
	ErrNoQuestions = errors.New("no questions generated")
	// ErrScoreUnavailable means the scoring backend failed for one answer.
	ErrScoreUnavailable = errors.New("answer score unavailable")
)

// Completeness buckets how thorough an answer was.
type Completeness string

const (
	CompletenessPoor      Completeness = "Poor"
	CompletenessFair      Completeness = "Fair"
	CompletenessGood      Completeness = "Good"
	CompletenessExcellent Completeness = "Excellent"
)

// Evaluation is the scored assessment of one answer.
type Evaluation struct {
	Score        int          `json:"score"`
	Strengths    string       `json:"strengths"`
	Weaknesses   string       `json:"weaknesses"`
	Suggestions  string       `json:"suggestions"`
	Keywords     []string     `json:"keywords"`
	Completeness Completeness `json:"completeness"`
}

// Service generates interview questions and scores answers.
type Service interface {
	GenerateQuestions(ctx context.Context, role, difficulty string, count int) ([]string, error)
	ScoreAnswer(ctx context.Context, questionText, answer, role string) (Evaluation, error)
}

// DifficultyDescription expands a difficulty tier into generation guidance.
func DifficultyDescription(difficulty string) string {
	switch difficulty {
	case "Beginner":
		return "Entry-level questions focusing on fundamentals and basic concepts"
	case "Advanced":
		return "Senior-level questions involving complex problem-solving and leadership"
	case "Expert":
		return "Principal/Staff level questions requiring deep expertise and system design"
	default:
		return "Mid-level questions requiring 2-3 years experience and practical knowledge"
	}
}
