package speech

import (
	"context"
	"sync"
	"time"
)

// MockProvider is a local fallback provider used when no real speech
// backend is configured. Answers are served from a script; everything
// spoken is recorded for inspection.
type MockProvider struct {
	mu      sync.Mutex
	answers []string
	next    int
	spoken  []Utterance

	// ListenDelay simulates capture time before each scripted answer.
	ListenDelay time.Duration
	// ListenErr, when set, is returned by every Listen call.
	ListenErr error
}

// Utterance is one synthesized line, kept in spoken order.
type Utterance struct {
	Text string
	Tone Tone
}

func NewMockProvider(answers ...string) *MockProvider {
	return &MockProvider{answers: answers}
}

func (p *MockProvider) Speak(_ context.Context, text string, tone Tone) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spoken = append(p.spoken, Utterance{Text: text, Tone: tone})
	return nil
}

func (p *MockProvider) Listen(ctx context.Context, _ time.Duration) (string, bool, error) {
	if p.ListenDelay > 0 {
		select {
		case <-ctx.Done():
			return "", false, nil
		case <-time.After(p.ListenDelay):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ListenErr != nil {
		return "", false, p.ListenErr
	}
	if p.next >= len(p.answers) {
		return "", false, nil
	}
	answer := p.answers[p.next]
	p.next++
	if answer == "" {
		return "", false, nil
	}
	return answer, true, nil
}

// Spoken returns a copy of everything synthesized so far.
func (p *MockProvider) Spoken() []Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Utterance, len(p.spoken))
	copy(out, p.spoken)
	return out
}
