package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/observability"
	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
	"github.com/mockmantra/mockmantra/internal/speech"
	"github.com/mockmantra/mockmantra/internal/store"
)

const (
	defaultInterQuestionPause = 2 * time.Second
	workerJoinTimeout         = 5 * time.Second
	// Rough per-question estimate surfaced in the started event.
	estimatedMinutesPerQuestion = 3
)

// Collaborators are the external services one session depends on.
type Collaborators struct {
	Questions question.Service
	Sentiment sentiment.Analyzer
	Speech    speech.Provider
	Store     store.Store
	Metrics   *observability.Metrics
	Sink      EventSink
	Progress  ProgressFunc
	Log       *logrus.Entry
}

// Options tune per-session timing. Zero values pick the defaults.
type Options struct {
	ListenTimeout      time.Duration
	InterQuestionPause time.Duration
	MaxAttempts        int
}

// Controller owns one interview session's lifecycle: it drives the
// per-question loop on a dedicated worker goroutine and is the only
// writer of session state. Callers interact through Start, Pause,
// Resume, Stop, Status, and Cleanup.
type Controller struct {
	id         string
	userID     string
	jobRole    string
	difficulty string
	opts       Options

	collab     Collaborators
	collector  *Collector
	aggregator *Aggregator
	gate       *pauseGate
	log        *logrus.Entry

	mu        sync.Mutex
	state     State
	questions []Question
	current   int
	records   []AnswerRecord
	report    *Report
	startedAt time.Time
	endedAt   time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewController builds a session in the Created state. Nothing runs
// until Start.
func NewController(userID, jobRole, difficulty string, collab Collaborators, opts Options) *Controller {
	if opts.InterQuestionPause <= 0 {
		opts.InterQuestionPause = defaultInterQuestionPause
	}

	id := uuid.NewString()
	log := collab.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("session_id", id)

	gate := newPauseGate()
	return &Controller{
		id:         id,
		userID:     userID,
		jobRole:    jobRole,
		difficulty: difficulty,
		opts:       opts,
		collab:     collab,
		gate:       gate,
		log:        log,
		state:      StateCreated,
		collector:  newCollector(collab.Speech, gate, opts.ListenTimeout, opts.MaxAttempts, log),
		aggregator: newAggregator(collab.Questions, collab.Sentiment, collab.Speech, collab.Store, collab.Metrics, log),
		done:       make(chan struct{}),
	}
}

func (c *Controller) ID() string      { return c.id }
func (c *Controller) UserID() string  { return c.userID }
func (c *Controller) JobRole() string { return c.jobRole }

// Start generates questions and launches the worker. The returned error
// reflects synchronous failures only; the interview itself proceeds
// asynchronously. Generation producing zero questions moves the session
// to Failed.
func (c *Controller) Start(ctx context.Context, questionCount int) error {
	c.mu.Lock()
	switch {
	case c.state.Terminal():
		c.mu.Unlock()
		return ErrSessionStopped
	case c.state != StateCreated:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.mu.Unlock()

	if c.collab.Store != nil {
		if err := c.collab.Store.CreateSession(ctx, c.id, c.userID, c.jobRole, c.difficulty); err != nil {
			c.fail()
			c.emit(Event{Type: EventError, Code: "storage_unavailable", Detail: err.Error()})
			return fmt.Errorf("create session record: %w", err)
		}
	}

	texts, err := c.collab.Questions.GenerateQuestions(ctx, c.jobRole, c.difficulty, questionCount)
	if err != nil || len(texts) == 0 {
		if err == nil {
			err = question.ErrNoQuestions
		}
		c.fail()
		c.emit(Event{Type: EventError, Code: "generation_failed", Detail: err.Error()})
		c.markStatus(store.StatusFailed)
		return fmt.Errorf("generate questions: %w", err)
	}

	questions := make([]Question, len(texts))
	for i, t := range texts {
		questions[i] = Question{Number: i + 1, Text: t}
	}

	workerCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.state != StateCreated {
		// Stop landed while questions were being generated; the session
		// stays cancelled and no worker runs.
		c.mu.Unlock()
		cancel()
		c.markStatus(store.StatusCancelled)
		return ErrSessionStopped
	}
	c.questions = questions
	c.startedAt = time.Now().UTC()
	c.state = StateRunning
	c.cancel = cancel
	c.mu.Unlock()

	if c.collab.Metrics != nil {
		c.collab.Metrics.ActiveSessions.Inc()
	}
	c.emit(Event{
		Type:             EventStarted,
		TotalQuestions:   len(questions),
		EstimatedMinutes: len(questions) * estimatedMinutesPerQuestion,
	})

	go c.run(workerCtx)
	return nil
}

// fail moves the session to Failed unless a Stop already ended it.
func (c *Controller) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		return
	}
	c.state = StateFailed
	c.endedAt = time.Now().UTC()
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	defer func() {
		if c.collab.Metrics != nil {
			c.collab.Metrics.ActiveSessions.Dec()
		}
	}()

	c.speak(ctx, fmt.Sprintf("Welcome to your %s interview at %s level. Let's begin!", c.jobRole, c.difficulty), speech.ToneNeutral)

	c.mu.Lock()
	questions := c.questions
	c.mu.Unlock()
	total := len(questions)

	for i, q := range questions {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		c.current = i
		c.mu.Unlock()

		if c.collab.Progress != nil {
			c.collab.Progress(i, total)
		}
		c.emit(Event{Type: EventQuestion, Question: &questions[i]})
		if c.collab.Metrics != nil {
			c.collab.Metrics.QuestionsAsked.Inc()
		}

		c.speak(ctx, fmt.Sprintf("Question %d of %d: %s", q.Number, total, q.Text), speech.ToneNeutral)
		askedAt := time.Now()

		answer, responseTime, answered := c.collector.Collect(ctx, askedAt)
		if ctx.Err() != nil {
			return
		}
		if !answered {
			answer = ""
		}

		record, feedback := c.aggregator.Analyze(ctx, c.id, c.jobRole, q, answer, responseTime)

		c.mu.Lock()
		c.records = append(c.records, record)
		c.mu.Unlock()

		c.emit(Event{
			Type:           EventAnswerAnalyzed,
			QuestionNumber: q.Number,
			Score:          record.Analysis.Score,
			Confidence:     record.Analysis.Confidence,
			Feedback:       &feedback,
		})
		if record.Analysis.Degraded {
			c.emit(Event{
				Type:           EventError,
				Code:           "analysis_degraded",
				Detail:         strings.Join(record.Analysis.FailedAnalyzers, ", "),
				QuestionNumber: q.Number,
			})
		}

		if i < total-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.InterQuestionPause):
			}
		}
	}

	if ctx.Err() == nil {
		c.complete(ctx)
	}
}

func (c *Controller) complete(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	duration := time.Since(c.startedAt)
	records := make([]AnswerRecord, len(c.records))
	copy(records, c.records)
	c.mu.Unlock()

	report := BuildReport(c.jobRole, records, duration)

	c.persistReport(ctx, report, duration, records)
	c.deliverSummary(ctx, report)

	now := time.Now().UTC()
	c.mu.Lock()
	if c.state.Terminal() {
		// Stop won the race; keep the cancelled state.
		c.mu.Unlock()
		return
	}
	c.state = StateCompleted
	c.report = &report
	c.endedAt = now
	c.mu.Unlock()

	c.emit(Event{Type: EventCompleted, Report: &report})
}

func (c *Controller) persistReport(ctx context.Context, report Report, duration time.Duration, records []AnswerRecord) {
	if c.collab.Store == nil {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	feedback, err := json.Marshal(report)
	if err != nil {
		c.log.WithError(err).Error("marshal report")
	}

	durationSeconds := duration.Seconds()
	status := store.StatusCompleted
	completedAt := time.Now().UTC()
	err = c.collab.Store.UpdateSession(persistCtx, c.id, store.SessionUpdate{
		DurationSeconds: &durationSeconds,
		Score:           &report.OverallScore,
		Feedback:        feedback,
		Status:          &status,
		CompletedAt:     &completedAt,
	})
	if err != nil {
		c.log.WithError(err).Warn("persist completed session failed")
	}

	metrics := map[string]float64{
		"overall_score":         report.OverallScore,
		"interview_duration":    durationSeconds,
		"average_response_time": report.AverageResponseTime,
		"questions_completed":   float64(len(records)),
		"average_confidence":    report.ConfidenceLevel,
	}
	for name, value := range metrics {
		if err := c.collab.Store.AddPerformanceMetric(persistCtx, c.id, name, value); err != nil {
			c.log.WithError(err).WithField("metric", name).Warn("persist performance metric failed")
		}
	}
}

func (c *Controller) deliverSummary(ctx context.Context, report Report) {
	overall, strengths := SpokenSummary(report)
	c.speak(ctx, overall, speech.ToneNeutral)
	if strengths != "" {
		c.speak(ctx, strengths, speech.TonePositive)
	}
}

// Pause suspends answer collection. Speech already playing is not cut
// off; the worker parks at the next collection attempt.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.state = StatePaused
	c.mu.Unlock()

	c.gate.Pause()
	c.emit(Event{Type: EventPaused})
	return nil
}

// Resume reopens the collection gate.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return ErrNotPaused
	}
	c.state = StateRunning
	c.mu.Unlock()

	c.gate.Resume()
	c.emit(Event{Type: EventResumed})
	return nil
}

// Stop requests cancellation. The worker observes it at the next
// checkpoint; there is no forced preemption. Stopping a session that is
// already terminal is a no-op with no duplicate event.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	started := c.state != StateCreated
	c.state = StateCancelled
	c.endedAt = time.Now().UTC()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Unblock a paused worker so it can observe the cancellation.
	c.gate.Resume()

	if started {
		c.markStatus(store.StatusCancelled)
	}
	c.emit(Event{Type: EventStopped})
}

func (c *Controller) markStatus(status string) {
	if c.collab.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.collab.Store.UpdateSession(ctx, c.id, store.SessionUpdate{Status: &status}); err != nil {
		c.log.WithError(err).WithField("status", status).Warn("persist session status failed")
	}
}

// Status returns a snapshot; safe to call concurrently with the worker.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	var elapsed float64
	if !c.startedAt.IsZero() {
		if c.endedAt.IsZero() {
			elapsed = time.Since(c.startedAt).Seconds()
		} else {
			elapsed = c.endedAt.Sub(c.startedAt).Seconds()
		}
	}

	var meanScore float64
	if len(c.records) > 0 {
		var sum float64
		for _, r := range c.records {
			sum += float64(r.Analysis.Score)
		}
		meanScore = sum / float64(len(c.records))
	}

	// The question counter is 1-based once the worker has started; a
	// session that never ran reports question zero.
	currentQuestion := 0
	if !c.startedAt.IsZero() {
		currentQuestion = c.current + 1
	}

	return Status{
		SessionID:       c.id,
		State:           c.state,
		CurrentQuestion: currentQuestion,
		TotalQuestions:  len(c.questions),
		ElapsedSeconds:  elapsed,
		CurrentScore:    meanScore,
	}
}

// Report returns the final report once the session has completed.
func (c *Controller) Report() (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return Report{}, ErrReportNotReady
	}
	return *c.report, nil
}

// Records returns a copy of the accumulated answer records.
func (c *Controller) Records() []AnswerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AnswerRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Cleanup stops the session and waits (bounded) for the worker to exit.
// Safe to call multiple times.
func (c *Controller) Cleanup() {
	c.Stop()

	c.mu.Lock()
	started := c.cancel != nil
	c.mu.Unlock()
	if !started {
		return
	}

	select {
	case <-c.done:
	case <-time.After(workerJoinTimeout):
		c.log.Warn("worker did not exit before join timeout")
	}
}

// Done is closed when the worker goroutine has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) emit(ev Event) {
	ev.SessionID = c.id
	ev.At = time.Now().UTC()
	if c.collab.Metrics != nil {
		c.collab.Metrics.SessionEvents.WithLabelValues(string(ev.Type)).Inc()
	}
	if c.collab.Sink != nil {
		c.collab.Sink.Publish(ev)
	}
}

func (c *Controller) speak(ctx context.Context, text string, tone speech.Tone) {
	if ctx.Err() != nil {
		return
	}
	if err := c.collab.Speech.Speak(ctx, text, tone); err != nil {
		c.log.WithError(err).Warn("speech synthesis failed")
	}
}
