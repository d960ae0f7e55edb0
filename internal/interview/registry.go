package interview

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/observability"
	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
	"github.com/mockmantra/mockmantra/internal/speech"
	"github.com/mockmantra/mockmantra/internal/store"
)

const (
	defaultEventHistoryLimit = 512
	defaultRetention         = 30 * time.Minute
)

// Progress is one progress update: currentOrdinal of total questions.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Dependencies are the shared services every session draws on.
type Dependencies struct {
	Questions question.Service
	Sentiment sentiment.Analyzer
	Speech    speech.Provider
	Store     store.Store
	Metrics   *observability.Metrics
	Log       *logrus.Entry

	// Options applies to every session the registry creates.
	Options Options
	// Retention keeps finished sessions queryable before the janitor
	// removes them. Zero picks the default.
	Retention time.Duration
	// EventHistoryLimit bounds the per-session replay buffer.
	EventHistoryLimit int
}

// Registry owns all live interview sessions. It brokers their event
// streams to subscribers, replaying buffered history so late-connecting
// clients see the full session, and reaps finished sessions after the
// retention window.
type Registry struct {
	deps Dependencies
	log  *logrus.Entry

	mu              sync.RWMutex
	sessions        map[string]*Controller
	eventsBySession map[string][]Event
	finishedAt      map[string]time.Time

	eventSubs    map[string]map[int]chan Event
	progressSubs map[string]map[int]chan Progress
	nextSubID    int
}

func NewRegistry(deps Dependencies) *Registry {
	if deps.Retention <= 0 {
		deps.Retention = defaultRetention
	}
	if deps.EventHistoryLimit <= 0 {
		deps.EventHistoryLimit = defaultEventHistoryLimit
	}
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		deps:            deps,
		log:             log,
		sessions:        make(map[string]*Controller),
		eventsBySession: make(map[string][]Event),
		finishedAt:      make(map[string]time.Time),
		eventSubs:       make(map[string]map[int]chan Event),
		progressSubs:    make(map[string]map[int]chan Progress),
	}
}

// Create builds a new session wired into the registry's broker. The
// session is in the Created state; the caller starts it.
func (r *Registry) Create(userID, jobRole, difficulty string) *Controller {
	collab := Collaborators{
		Questions: r.deps.Questions,
		Sentiment: r.deps.Sentiment,
		Speech:    r.deps.Speech,
		Store:     r.deps.Store,
		Metrics:   r.deps.Metrics,
		Log:       r.deps.Log,
		Sink:      SinkFunc(func(ev Event) { r.publish(ev.SessionID, ev) }),
	}

	ctrl := NewController(userID, jobRole, difficulty, collab, r.deps.Options)
	id := ctrl.ID()
	ctrl.collab.Progress = func(current, total int) { r.publishProgress(id, Progress{Current: current, Total: total}) }

	r.mu.Lock()
	r.sessions[id] = ctrl
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"session_id": id,
		"user_id":    userID,
		"job_role":   jobRole,
	}).Info("interview session created")
	return ctrl
}

// Get returns the live session with the given id.
func (r *Registry) Get(sessionID string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// ActiveCount reports sessions that have not reached a terminal state.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, ctrl := range r.sessions {
		if !ctrl.Status().State.Terminal() {
			count++
		}
	}
	return count
}

// Subscribe returns the session's buffered event history plus a channel
// of subsequent events. The cancel func must be called exactly once.
func (r *Registry) Subscribe(sessionID string) ([]Event, <-chan Event, func(), error) {
	r.mu.Lock()
	if _, ok := r.sessions[sessionID]; !ok {
		r.mu.Unlock()
		return nil, nil, nil, ErrSessionNotFound
	}

	history := append([]Event(nil), r.eventsBySession[sessionID]...)

	ch := make(chan Event, 256)
	r.nextSubID++
	id := r.nextSubID
	if _, ok := r.eventSubs[sessionID]; !ok {
		r.eventSubs[sessionID] = make(map[int]chan Event)
	}
	r.eventSubs[sessionID][id] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.eventSubs[sessionID]
		if c, ok := subs[id]; ok {
			delete(subs, id)
			close(c)
		}
		if len(subs) == 0 {
			delete(r.eventSubs, sessionID)
		}
	}
	return history, ch, cancel, nil
}

// SubscribeProgress delivers progress updates on a stream separate from
// lifecycle events.
func (r *Registry) SubscribeProgress(sessionID string) (<-chan Progress, func(), error) {
	r.mu.Lock()
	if _, ok := r.sessions[sessionID]; !ok {
		r.mu.Unlock()
		return nil, nil, ErrSessionNotFound
	}

	ch := make(chan Progress, 64)
	r.nextSubID++
	id := r.nextSubID
	if _, ok := r.progressSubs[sessionID]; !ok {
		r.progressSubs[sessionID] = make(map[int]chan Progress)
	}
	r.progressSubs[sessionID][id] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.progressSubs[sessionID]
		if c, ok := subs[id]; ok {
			delete(subs, id)
			close(c)
		}
		if len(subs) == 0 {
			delete(r.progressSubs, sessionID)
		}
	}
	return ch, cancel, nil
}

func (r *Registry) publish(sessionID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := append(r.eventsBySession[sessionID], ev)
	if max := r.deps.EventHistoryLimit; len(buf) > max {
		buf = append([]Event(nil), buf[len(buf)-max:]...)
	}
	r.eventsBySession[sessionID] = buf

	if ev.Type == EventCompleted || ev.Type == EventStopped || ev.Type == EventError {
		if _, ok := r.finishedAt[sessionID]; !ok {
			r.finishedAt[sessionID] = time.Now().UTC()
		}
	}

	// Slow subscribers drop events rather than stalling the session.
	for _, ch := range r.eventSubs[sessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *Registry) publishProgress(sessionID string, p Progress) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.progressSubs[sessionID] {
		select {
		case ch <- p:
		default:
		}
	}
}

// StartJanitor reaps finished sessions after the retention window.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reapFinished()
			}
		}
	}()
}

func (r *Registry) reapFinished() {
	cutoff := time.Now().UTC().Add(-r.deps.Retention)

	r.mu.Lock()
	var reaped []*Controller
	for id, finished := range r.finishedAt {
		if finished.After(cutoff) {
			continue
		}
		if ctrl, ok := r.sessions[id]; ok {
			reaped = append(reaped, ctrl)
		}
		delete(r.sessions, id)
		delete(r.eventsBySession, id)
		delete(r.finishedAt, id)
		for subID, ch := range r.eventSubs[id] {
			delete(r.eventSubs[id], subID)
			close(ch)
		}
		delete(r.eventSubs, id)
		for subID, ch := range r.progressSubs[id] {
			delete(r.progressSubs[id], subID)
			close(ch)
		}
		delete(r.progressSubs, id)
	}
	r.mu.Unlock()

	for _, ctrl := range reaped {
		ctrl.Cleanup()
		r.log.WithField("session_id", ctrl.ID()).Debug("reaped finished session")
	}
}

// Shutdown stops every live session and waits for their workers.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sessions))
	for _, ctrl := range r.sessions {
		ctrls = append(ctrls, ctrl)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, ctrl := range ctrls {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			c.Cleanup()
		}(ctrl)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.log.Warn("shutdown deadline reached with sessions still draining")
	}
}
