package question

import (
	"context"
	"sync"
)

// Mock is a scripted Service for tests.
type Mock struct {
	mu          sync.Mutex
	Questions   []string
	GenerateErr error
	Evaluations []Evaluation
	ScoreErr    error
	scoreCalls  int
}

func (m *Mock) GenerateQuestions(_ context.Context, _, _ string, count int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	if len(m.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	qs := m.Questions
	if count < len(qs) {
		qs = qs[:count]
	}
	out := make([]string, len(qs))
	copy(out, qs)
	return out, nil
}

func (m *Mock) ScoreAnswer(_ context.Context, _, _, _ string) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScoreErr != nil {
		return Evaluation{}, m.ScoreErr
	}
	ev := Evaluation{Score: 5, Strengths: "Response provided", Completeness: CompletenessFair}
	if len(m.Evaluations) > 0 {
		ev = m.Evaluations[m.scoreCalls%len(m.Evaluations)]
	}
	m.scoreCalls++
	return ev, nil
}

// ScoreCalls reports how many answers have been scored.
func (m *Mock) ScoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scoreCalls
}
