package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists interview data in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interview_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			job_role TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			duration_seconds DOUBLE PRECISION,
			score DOUBLE PRECISION,
			feedback JSONB,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS interview_questions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES interview_sessions (id),
			question_number INTEGER NOT NULL,
			question_text TEXT NOT NULL,
			user_answer TEXT,
			analysis JSONB,
			sentiment_score DOUBLE PRECISION,
			confidence_score DOUBLE PRECISION,
			response_time DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS performance_metrics (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES interview_sessions (id),
			metric_name TEXT NOT NULL,
			metric_value DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON interview_sessions (user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_session_number ON interview_questions (session_id, question_number);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, id, userID, jobRole, difficulty string) error {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, user_id, job_role, difficulty, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, userID, jobRole, difficulty, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.DurationSeconds != nil {
		add("duration_seconds", *update.DurationSeconds)
	}
	if update.Score != nil {
		add("score", *update.Score)
	}
	if update.Feedback != nil {
		add("feedback", update.Feedback)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.CompletedAt != nil {
		add("completed_at", *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, sessionID)
	query := fmt.Sprintf("UPDATE interview_sessions SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) AddQuestionRecord(ctx context.Context, rec QuestionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO interview_questions
		 (id, session_id, question_number, question_text, user_answer, analysis,
		  sentiment_score, confidence_score, response_time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(), rec.SessionID, rec.Number, rec.Question, rec.Answer, rec.Analysis,
		rec.SentimentScore, rec.ConfidenceScore, rec.ResponseTime, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add question record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddPerformanceMetric(ctx context.Context, sessionID, name string, value float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO performance_metrics (id, session_id, metric_name, metric_value)
		 VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), sessionID, name, value,
	)
	if err != nil {
		return fmt.Errorf("add performance metric: %w", err)
	}
	return nil
}

func (s *PostgresStore) SessionHistory(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, job_role, difficulty,
		        COALESCE(duration_seconds, 0), COALESCE(score, 0),
		        feedback, status, created_at, completed_at
		 FROM interview_sessions WHERE user_id=$1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	sessions := make([]SessionSummary, 0, limit)
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.JobRole, &s.Difficulty,
			&s.DurationSeconds, &s.Score, &s.Feedback, &s.Status,
			&s.CreatedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return sessions, nil
}

func (s *PostgresStore) SessionQuestions(ctx context.Context, sessionID string) ([]QuestionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, question_number, question_text, COALESCE(user_answer, ''),
		        analysis, COALESCE(sentiment_score, 0), COALESCE(confidence_score, 0),
		        COALESCE(response_time, 0), created_at
		 FROM interview_questions WHERE session_id=$1
		 ORDER BY question_number`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session questions: %w", err)
	}
	defer rows.Close()

	var records []QuestionRecord
	for rows.Next() {
		var r QuestionRecord
		if err := rows.Scan(&r.SessionID, &r.Number, &r.Question, &r.Answer,
			&r.Analysis, &r.SentimentScore, &r.ConfidenceScore, &r.ResponseTime,
			&r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) UserStatistics(ctx context.Context, userID string) (UserStatistics, error) {
	var stats UserStatistics
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(AVG(duration_seconds), 0), COALESCE(MAX(score), 0)
		 FROM interview_sessions WHERE user_id=$1 AND status=$2`,
		userID, StatusCompleted,
	).Scan(&stats.TotalSessions, &stats.AverageScore, &stats.AverageDuration, &stats.BestScore)
	if err != nil {
		return UserStatistics{}, fmt.Errorf("query user statistics: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) CleanupStaleSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	// Child rows first so the FK constraints hold.
	for _, table := range []string{"interview_questions", "performance_metrics"} {
		_, err := s.pool.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE session_id IN
			 (SELECT id FROM interview_sessions WHERE status=$1 AND created_at < $2)`, table),
			StatusPending, cutoff,
		)
		if err != nil {
			return 0, fmt.Errorf("cleanup stale %s: %w", table, err)
		}
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM interview_sessions WHERE status=$1 AND created_at < $2`,
		StatusPending, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup stale sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
