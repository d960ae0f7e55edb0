package speech

import (
	"context"
	"time"
)

// Tone shapes how synthesized feedback is delivered.
type Tone string

const (
	TonePositive     Tone = "positive"
	ToneNeutral      Tone = "neutral"
	ToneConstructive Tone = "constructive"
)

// Synthesizer speaks text to the candidate. Synthesis failures are
// reported but never abort an interview.
type Synthesizer interface {
	Speak(ctx context.Context, text string, tone Tone) error
}

// Recognizer captures one spoken answer. The boolean reports whether any
// speech was heard before the timeout; an error means a device or I/O
// failure, not silence.
type Recognizer interface {
	Listen(ctx context.Context, timeout time.Duration) (string, bool, error)
}

// Provider bundles both directions of the speech channel.
type Provider interface {
	Synthesizer
	Recognizer
}
