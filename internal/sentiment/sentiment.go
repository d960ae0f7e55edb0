package sentiment

import "context"

// Distribution maps labels to scores that sum to roughly 1.
type Distribution map[string]float64

// Metrics is the communication-quality triple, each value in [0,1].
type Metrics struct {
	Clarity         float64 `json:"clarity"`
	Structure       float64 `json:"structure"`
	Professionalism float64 `json:"professionalism"`
}

// Analyzer derives affect and delivery signals from answer text.
type Analyzer interface {
	Sentiment(ctx context.Context, text string) (Distribution, error)
	Emotions(ctx context.Context, text string) (Distribution, error)
	Confidence(ctx context.Context, text string) (float64, error)
	CommunicationMetrics(ctx context.Context, text string) (Metrics, error)
}
