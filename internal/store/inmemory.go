package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use.
type InMemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*SessionSummary
	questions map[string][]QuestionRecord
	metrics   map[string]map[string]float64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:  make(map[string]*SessionSummary),
		questions: make(map[string][]QuestionRecord),
		metrics:   make(map[string]map[string]float64),
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context, id, userID, jobRole, difficulty string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	s.sessions[id] = &SessionSummary{
		ID:         id,
		UserID:     userID,
		JobRole:    jobRole,
		Difficulty: difficulty,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

func (s *InMemoryStore) UpdateSession(_ context.Context, sessionID string, update SessionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if update.DurationSeconds != nil {
		sess.DurationSeconds = *update.DurationSeconds
	}
	if update.Score != nil {
		sess.Score = *update.Score
	}
	if update.Feedback != nil {
		sess.Feedback = update.Feedback
	}
	if update.Status != nil {
		sess.Status = *update.Status
	}
	if update.CompletedAt != nil {
		at := *update.CompletedAt
		sess.CompletedAt = &at
	}
	return nil
}

func (s *InMemoryStore) AddQuestionRecord(_ context.Context, rec QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.SessionID]; !ok {
		return ErrSessionNotFound
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.questions[rec.SessionID] = append(s.questions[rec.SessionID], rec)
	return nil
}

func (s *InMemoryStore) AddPerformanceMetric(_ context.Context, sessionID, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	if s.metrics[sessionID] == nil {
		s.metrics[sessionID] = make(map[string]float64)
	}
	s.metrics[sessionID][name] = value
	return nil
}

func (s *InMemoryStore) SessionHistory(_ context.Context, userID string, limit int) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SessionSummary
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) SessionQuestions(_ context.Context, sessionID string) ([]QuestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.questions[sessionID]
	out := make([]QuestionRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemoryStore) UserStatistics(_ context.Context, userID string) (UserStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats UserStatistics
	var scoreSum, durationSum float64
	for _, sess := range s.sessions {
		if sess.UserID != userID || sess.Status != StatusCompleted {
			continue
		}
		stats.TotalSessions++
		scoreSum += sess.Score
		durationSum += sess.DurationSeconds
		if sess.Score > stats.BestScore {
			stats.BestScore = sess.Score
		}
	}
	if stats.TotalSessions > 0 {
		stats.AverageScore = scoreSum / float64(stats.TotalSessions)
		stats.AverageDuration = durationSum / float64(stats.TotalSessions)
	}
	return stats, nil
}

func (s *InMemoryStore) CleanupStaleSessions(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	removed := 0
	for id, sess := range s.sessions {
		if sess.Status == StatusPending && sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.questions, id)
			delete(s.metrics, id)
			removed++
		}
	}
	return removed, nil
}

// Metric reads back a stored performance metric, for tests.
func (s *InMemoryStore) Metric(sessionID, name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.metrics[sessionID][name]
	return v, ok
}

func (s *InMemoryStore) Close() error { return nil }
