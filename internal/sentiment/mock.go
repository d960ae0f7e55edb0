package sentiment

import (
	"context"
	"sync"
)

// Mock is a scripted Analyzer for tests. Confidences cycles per call so a
// session can exercise trend logic.
type Mock struct {
	mu          sync.Mutex
	SentimentD  Distribution
	EmotionsD   Distribution
	Confidences []float64
	MetricsV    Metrics
	Err         error
	confCalls   int
}

func (m *Mock) Sentiment(_ context.Context, _ string) (Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SentimentD == nil {
		return Distribution{"positive": 0.5, "negative": 0.1, "neutral": 0.4}, nil
	}
	return m.SentimentD, nil
}

func (m *Mock) Emotions(_ context.Context, _ string) (Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.EmotionsD == nil {
		return Distribution{"neutral": 1}, nil
	}
	return m.EmotionsD, nil
}

func (m *Mock) Confidence(_ context.Context, _ string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if len(m.Confidences) == 0 {
		return 0.5, nil
	}
	c := m.Confidences[m.confCalls%len(m.Confidences)]
	m.confCalls++
	return c, nil
}

func (m *Mock) CommunicationMetrics(_ context.Context, _ string) (Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Metrics{}, m.Err
	}
	if m.MetricsV == (Metrics{}) {
		return Metrics{Clarity: 0.7, Structure: 0.7, Professionalism: 0.8}, nil
	}
	return m.MetricsV, nil
}
