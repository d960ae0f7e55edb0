package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/speech"
)

const (
	defaultListenTimeout = 45 * time.Second
	defaultMaxAttempts   = 3
	// Answers at or under this trimmed length trigger an elaboration prompt.
	minAnswerLength = 10
)

// Collector obtains one spoken answer per question under the bounded
// retry policy: up to maxAttempts rounds of listening, elaboration
// prompts for too-short answers, and try-again prompts after silence.
type Collector struct {
	provider      speech.Provider
	gate          *pauseGate
	listenTimeout time.Duration
	maxAttempts   int
	log           *logrus.Entry
}

func newCollector(provider speech.Provider, gate *pauseGate, listenTimeout time.Duration, maxAttempts int, log *logrus.Entry) *Collector {
	if listenTimeout <= 0 {
		listenTimeout = defaultListenTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Collector{
		provider:      provider,
		gate:          gate,
		listenTimeout: listenTimeout,
		maxAttempts:   maxAttempts,
		log:           log,
	}
}

// Collect runs the retry loop for one question. askedAt is the moment the
// question finished being asked; an accepted answer's latency is measured
// from it. When no qualifying answer arrives the latency equals the full
// listen timeout and answered is false. Cancellation returns immediately
// without further speech output.
func (c *Collector) Collect(ctx context.Context, askedAt time.Time) (answer string, responseTime float64, answered bool) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", time.Since(askedAt).Seconds(), false
		}

		// Pause blocks here without consuming the attempt or its
		// listen window. Playback already in flight is unaffected.
		if err := c.gate.Wait(ctx); err != nil {
			return "", time.Since(askedAt).Seconds(), false
		}

		text, heard, err := c.provider.Listen(ctx, c.listenTimeout)
		if err != nil {
			// Capture I/O failure counts as silence for this attempt.
			c.log.WithError(err).Warn("speech capture failed")
			heard = false
		}

		trimmed := strings.TrimSpace(text)
		switch {
		case heard && len(trimmed) > minAnswerLength:
			return text, time.Since(askedAt).Seconds(), true

		case heard && trimmed != "":
			c.speak(ctx, "Your answer seems brief. Could you provide more details?")

		default:
			if attempt < c.maxAttempts {
				c.speak(ctx, fmt.Sprintf("I didn't catch that. Let's try again. Attempt %d of %d.", attempt+1, c.maxAttempts))
			}
		}
	}

	return "", c.listenTimeout.Seconds(), false
}

func (c *Collector) speak(ctx context.Context, text string) {
	if ctx.Err() != nil {
		return
	}
	if err := c.provider.Speak(ctx, text, speech.ToneNeutral); err != nil {
		c.log.WithError(err).Warn("speech synthesis failed")
	}
}
