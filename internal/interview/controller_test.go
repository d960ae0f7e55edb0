package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
	"github.com/mockmantra/mockmantra/internal/speech"
	"github.com/mockmantra/mockmantra/internal/store"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) count(typ EventType) int {
	n := 0
	for _, ev := range s.all() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

var testQuestions = []string{
	"Tell me about a challenging project you worked on.",
	"How do you approach debugging a production incident?",
	"Describe a time you disagreed with a teammate.",
}

func testCollaborators(answers ...string) (Collaborators, *recordingSink, *speech.MockProvider, *store.InMemoryStore) {
	sink := &recordingSink{}
	provider := speech.NewMockProvider(answers...)
	st := store.NewInMemoryStore()
	collab := Collaborators{
		Questions: &question.Mock{Questions: testQuestions},
		Sentiment: &sentiment.Mock{Confidences: []float64{0.6, 0.7, 0.8}},
		Speech:    provider,
		Store:     st,
		Sink:      sink,
	}
	return collab, sink, provider, st
}

func fastOptions() Options {
	return Options{InterQuestionPause: time.Millisecond}
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish")
	}
}

func TestControllerFullInterview(t *testing.T) {
	collab, sink, provider, st := testCollaborators(
		"I rebuilt our deployment pipeline and halved release time.",
		"I start from the logs and narrow down with recent changes.",
		"We disagreed on schema design and prototyped both options.",
	)
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, c)

	status := c.Status()
	if status.State != StateCompleted {
		t.Fatalf("state = %q, want %q", status.State, StateCompleted)
	}
	if status.TotalQuestions != 3 {
		t.Fatalf("total questions = %d, want 3", status.TotalQuestions)
	}

	records := c.Records()
	if len(records) != 3 {
		t.Fatalf("records = %d, want one per question", len(records))
	}
	for i, r := range records {
		if r.Number != i+1 {
			t.Fatalf("record %d has number %d", i, r.Number)
		}
	}

	report, err := c.Report()
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(report.Details) != 3 {
		t.Fatalf("report details = %d, want 3", len(report.Details))
	}

	events := sink.all()
	if events[0].Type != EventStarted || events[len(events)-1].Type != EventCompleted {
		t.Fatalf("event order wrong: first %q last %q", events[0].Type, events[len(events)-1].Type)
	}
	if got := sink.count(EventQuestion); got != 3 {
		t.Fatalf("question events = %d, want 3", got)
	}
	if got := sink.count(EventAnswerAnalyzed); got != 3 {
		t.Fatalf("answer events = %d, want 3", got)
	}

	if spoken := provider.Spoken(); len(spoken) == 0 {
		t.Fatal("no speech delivered")
	}

	history, err := st.SessionHistory(context.Background(), "u1", 10)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %v, err %v", history, err)
	}
	if history[0].Status != store.StatusCompleted {
		t.Fatalf("persisted status = %q", history[0].Status)
	}
	if _, ok := st.Metric(c.ID(), "overall_score"); !ok {
		t.Fatal("overall_score metric not persisted")
	}
}

func TestControllerProgressMonotonic(t *testing.T) {
	collab, _, _, _ := testCollaborators(
		"First answer with enough substance to be accepted.",
		"Second answer with enough substance to be accepted.",
		"Third answer with enough substance to be accepted.",
	)
	var mu sync.Mutex
	var seen []int
	collab.Progress = func(current, total int) {
		mu.Lock()
		seen = append(seen, current)
		mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}

	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("progress calls = %v, want 3", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("progress not monotonic: %v", seen)
		}
	}
}

func TestControllerStartTwice(t *testing.T) {
	collab, _, _, _ := testCollaborators("An answer long enough for the first question.")
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Cleanup()

	if err := c.Start(context.Background(), 3); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestControllerGenerationFailure(t *testing.T) {
	collab, sink, _, st := testCollaborators()
	collab.Questions = &question.Mock{GenerateErr: errors.New("model overloaded")}

	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	err := c.Start(context.Background(), 3)
	if err == nil {
		t.Fatal("Start() error = nil, want generation failure")
	}
	if got := c.Status().State; got != StateFailed {
		t.Fatalf("state = %q, want %q", got, StateFailed)
	}

	events := sink.all()
	if len(events) != 1 || events[0].Type != EventError || events[0].Code != "generation_failed" {
		t.Fatalf("events = %+v", events)
	}

	history, _ := st.SessionHistory(context.Background(), "u1", 10)
	if len(history) != 1 || history[0].Status != store.StatusFailed {
		t.Fatalf("persisted history = %+v", history)
	}
}

// gatedQuestions blocks generation until released so tests can interleave
// other calls with a Start still in flight.
type gatedQuestions struct {
	question.Service
	entered chan struct{}
	release chan struct{}
}

func (g *gatedQuestions) GenerateQuestions(ctx context.Context, role, difficulty string, count int) ([]string, error) {
	close(g.entered)
	<-g.release
	return g.Service.GenerateQuestions(ctx, role, difficulty, count)
}

func TestControllerStopDuringStartStaysCancelled(t *testing.T) {
	collab, sink, _, _ := testCollaborators(
		"An answer long enough for the first question.",
	)
	gate := &gatedQuestions{
		Service: collab.Questions,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	collab.Questions = gate

	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	startErr := make(chan error, 1)
	go func() { startErr <- c.Start(context.Background(), 3) }()

	<-gate.entered
	c.Stop()
	if got := c.Status().State; got != StateCancelled {
		t.Fatalf("state after Stop = %q, want %q", got, StateCancelled)
	}
	close(gate.release)

	select {
	case err := <-startErr:
		if !errors.Is(err, ErrSessionStopped) {
			t.Fatalf("Start() error = %v, want ErrSessionStopped", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
	}

	if got := c.Status().State; got != StateCancelled {
		t.Fatalf("state after Start returned = %q, want %q", got, StateCancelled)
	}
	if got := sink.count(EventStarted); got != 0 {
		t.Fatalf("started events = %d, want 0", got)
	}
	if got := sink.count(EventQuestion); got != 0 {
		t.Fatalf("question events = %d, want 0", got)
	}
	if got := sink.count(EventStopped); got != 1 {
		t.Fatalf("stopped events = %d, want 1", got)
	}

	if err := c.Start(context.Background(), 3); !errors.Is(err, ErrSessionStopped) {
		t.Fatalf("Start() after stop error = %v, want ErrSessionStopped", err)
	}
}

func TestControllerEmitsErrorEventOnDegradedAnalysis(t *testing.T) {
	collab, sink, _, _ := testCollaborators(
		"An answer long enough for the only question asked here.",
	)
	collab.Sentiment = &sentiment.Mock{Err: errors.New("analyzer offline")}
	collab.Questions = &question.Mock{Questions: testQuestions[:1]}

	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	if err := c.Start(context.Background(), 1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, c)

	if got := c.Status().State; got != StateCompleted {
		t.Fatalf("state = %q, want %q", got, StateCompleted)
	}
	records := c.Records()
	if len(records) != 1 || !records[0].Analysis.Degraded {
		t.Fatalf("records = %+v, want one degraded record", records)
	}

	var errs []Event
	for _, ev := range sink.all() {
		if ev.Type == EventError {
			errs = append(errs, ev)
		}
	}
	if len(errs) != 1 {
		t.Fatalf("error events = %+v, want exactly one", errs)
	}
	if errs[0].Code != "analysis_degraded" || errs[0].QuestionNumber != 1 {
		t.Fatalf("error event = %+v", errs[0])
	}
	if !strings.Contains(errs[0].Detail, "sentiment") {
		t.Fatalf("error detail = %q, want failed analyzer names", errs[0].Detail)
	}
}

type failingStore struct {
	*store.InMemoryStore
}

func (f failingStore) CreateSession(context.Context, string, string, string, string) error {
	return errors.New("database unavailable")
}

func TestControllerStorageFailureAtStart(t *testing.T) {
	collab, sink, _, st := testCollaborators()
	collab.Store = failingStore{st}

	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	if err := c.Start(context.Background(), 3); err == nil {
		t.Fatal("Start() error = nil, want storage failure")
	}
	if got := c.Status().State; got != StateFailed {
		t.Fatalf("state = %q, want %q", got, StateFailed)
	}
	events := sink.all()
	if len(events) != 1 || events[0].Code != "storage_unavailable" {
		t.Fatalf("events = %+v", events)
	}
}

func TestControllerStopIsIdempotent(t *testing.T) {
	collab, sink, provider, st := testCollaborators()
	provider.ListenDelay = time.Minute // park the worker in Listen
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c.Stop()
	c.Stop()
	waitDone(t, c)

	if got := c.Status().State; got != StateCancelled {
		t.Fatalf("state = %q, want %q", got, StateCancelled)
	}
	if got := sink.count(EventStopped); got != 1 {
		t.Fatalf("stopped events = %d, want 1", got)
	}
	if _, err := c.Report(); !errors.Is(err, ErrReportNotReady) {
		t.Fatalf("Report() error = %v, want ErrReportNotReady", err)
	}

	history, _ := st.SessionHistory(context.Background(), "u1", 10)
	if len(history) != 1 || history[0].Status != store.StatusCancelled {
		t.Fatalf("persisted history = %+v", history)
	}
}

func TestControllerPauseResume(t *testing.T) {
	collab, sink, provider, _ := testCollaborators(
		"An acceptable answer for the only question asked here.",
	)
	provider.ListenDelay = 200 * time.Millisecond
	collab.Questions = &question.Mock{Questions: testQuestions[:1]}
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	if err := c.Start(context.Background(), 1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got := c.Status().State; got != StatePaused {
		t.Fatalf("state = %q, want %q", got, StatePaused)
	}
	if err := c.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("double Pause() error = %v, want ErrNotRunning", err)
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if err := c.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("double Resume() error = %v, want ErrNotPaused", err)
	}

	waitDone(t, c)
	if got := c.Status().State; got != StateCompleted {
		t.Fatalf("state = %q, want %q", got, StateCompleted)
	}
	if sink.count(EventPaused) != 1 || sink.count(EventResumed) != 1 {
		t.Fatalf("pause/resume events = %d/%d", sink.count(EventPaused), sink.count(EventResumed))
	}
}

func TestControllerStopWhilePaused(t *testing.T) {
	collab, _, provider, _ := testCollaborators()
	provider.ListenDelay = time.Minute
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	c.Stop()
	waitDone(t, c)

	if got := c.Status().State; got != StateCancelled {
		t.Fatalf("state = %q, want %q", got, StateCancelled)
	}
}

func TestControllerCleanupBeforeStart(t *testing.T) {
	collab, sink, _, _ := testCollaborators()
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	c.Cleanup()

	if got := c.Status().State; got != StateCancelled {
		t.Fatalf("state = %q, want %q", got, StateCancelled)
	}
	if got := sink.count(EventStopped); got != 1 {
		t.Fatalf("stopped events = %d, want 1", got)
	}
}

func TestControllerStatusBeforeStart(t *testing.T) {
	collab, _, _, _ := testCollaborators()
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())

	status := c.Status()
	if status.State != StateCreated {
		t.Fatalf("state = %q, want %q", status.State, StateCreated)
	}
	if status.CurrentQuestion != 0 || status.TotalQuestions != 0 {
		t.Fatalf("question counter = %d/%d, want 0/0", status.CurrentQuestion, status.TotalQuestions)
	}

	collab2, _, _, _ := testCollaborators()
	collab2.Questions = &question.Mock{GenerateErr: errors.New("model overloaded")}
	c2 := NewController("u1", "Software Engineer", "Intermediate", collab2, fastOptions())
	_ = c2.Start(context.Background(), 3)
	if got := c2.Status().CurrentQuestion; got != 0 {
		t.Fatalf("failed session current question = %d, want 0", got)
	}
}

func TestControllerStatusSnapshot(t *testing.T) {
	collab, _, _, _ := testCollaborators(
		"First answer with enough substance to be accepted.",
		"Second answer with enough substance to be accepted.",
		"Third answer with enough substance to be accepted.",
	)
	c := NewController("u1", "Software Engineer", "Intermediate", collab, fastOptions())
	if err := c.Start(context.Background(), 3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, c)

	status := c.Status()
	if status.SessionID != c.ID() {
		t.Fatalf("session id = %q, want %q", status.SessionID, c.ID())
	}
	if status.CurrentScore <= 0 {
		t.Fatalf("current score = %v, want > 0", status.CurrentScore)
	}
	if status.ElapsedSeconds < 0 {
		t.Fatalf("elapsed = %v", status.ElapsedSeconds)
	}
}
