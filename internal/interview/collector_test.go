package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mockmantra/mockmantra/internal/speech"
)

func newTestCollector(provider speech.Provider) *Collector {
	return newCollector(provider, newPauseGate(), 45*time.Second, 3, nil)
}

func TestCollectAcceptsFirstAnswer(t *testing.T) {
	provider := speech.NewMockProvider("I designed a sharded queue to absorb traffic spikes.")
	c := newTestCollector(provider)

	answer, _, answered := c.Collect(context.Background(), time.Now())
	if !answered {
		t.Fatal("Collect() answered = false, want true")
	}
	if !strings.Contains(answer, "sharded queue") {
		t.Fatalf("unexpected answer %q", answer)
	}
	if spoken := provider.Spoken(); len(spoken) != 0 {
		t.Fatalf("no prompts expected, got %v", spoken)
	}
}

func TestCollectPromptsForElaboration(t *testing.T) {
	provider := speech.NewMockProvider(
		"Um, yes.",
		"We rebuilt the ingestion path and cut latency by forty percent.",
	)
	c := newTestCollector(provider)

	answer, _, answered := c.Collect(context.Background(), time.Now())
	if !answered {
		t.Fatal("Collect() answered = false, want true")
	}
	if !strings.Contains(answer, "ingestion path") {
		t.Fatalf("short answer was accepted: %q", answer)
	}

	spoken := provider.Spoken()
	if len(spoken) != 1 || !strings.Contains(spoken[0].Text, "more details") {
		t.Fatalf("want one elaboration prompt, got %v", spoken)
	}
}

func TestCollectRetriesAfterSilence(t *testing.T) {
	provider := speech.NewMockProvider(
		"",
		"I led the migration of our billing system to event sourcing.",
	)
	c := newTestCollector(provider)

	_, _, answered := c.Collect(context.Background(), time.Now())
	if !answered {
		t.Fatal("Collect() answered = false, want true")
	}

	spoken := provider.Spoken()
	if len(spoken) != 1 {
		t.Fatalf("want one retry prompt, got %v", spoken)
	}
	if !strings.Contains(spoken[0].Text, "Attempt 2 of 3") {
		t.Fatalf("retry prompt = %q", spoken[0].Text)
	}
}

func TestCollectExhaustsAttempts(t *testing.T) {
	provider := speech.NewMockProvider() // silence on every attempt
	c := newTestCollector(provider)

	answer, responseTime, answered := c.Collect(context.Background(), time.Now())
	if answered || answer != "" {
		t.Fatalf("Collect() = (%q, %v), want no answer", answer, answered)
	}
	if responseTime != 45.0 {
		t.Fatalf("responseTime = %v, want full listen timeout 45.0", responseTime)
	}

	// Two retry prompts; no prompt after the final attempt.
	spoken := provider.Spoken()
	if len(spoken) != 2 {
		t.Fatalf("want 2 retry prompts, got %d: %v", len(spoken), spoken)
	}
	if !strings.Contains(spoken[1].Text, "Attempt 3 of 3") {
		t.Fatalf("last prompt = %q", spoken[1].Text)
	}
}

func TestCollectTreatsCaptureErrorAsSilence(t *testing.T) {
	provider := speech.NewMockProvider()
	provider.ListenErr = errors.New("microphone unavailable")
	c := newTestCollector(provider)

	_, responseTime, answered := c.Collect(context.Background(), time.Now())
	if answered {
		t.Fatal("Collect() answered = true, want false")
	}
	if responseTime != 45.0 {
		t.Fatalf("responseTime = %v, want 45.0", responseTime)
	}
}

func TestCollectStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := speech.NewMockProvider("A perfectly good answer about distributed systems.")
	c := newTestCollector(provider)

	_, _, answered := c.Collect(ctx, time.Now())
	if answered {
		t.Fatal("Collect() answered = true after cancellation")
	}
	if spoken := provider.Spoken(); len(spoken) != 0 {
		t.Fatalf("no speech expected after cancellation, got %v", spoken)
	}
}

func TestCollectBlocksWhilePaused(t *testing.T) {
	provider := speech.NewMockProvider("An answer that is long enough to accept right away.")
	gate := newPauseGate()
	c := newCollector(provider, gate, 45*time.Second, 3, nil)

	gate.Pause()

	done := make(chan bool, 1)
	go func() {
		_, _, answered := c.Collect(context.Background(), time.Now())
		done <- answered
	}()

	select {
	case <-done:
		t.Fatal("Collect() returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Resume()
	select {
	case answered := <-done:
		if !answered {
			t.Fatal("Collect() answered = false after resume")
		}
	case <-time.After(time.Second):
		t.Fatal("Collect() did not return after resume")
	}
}
