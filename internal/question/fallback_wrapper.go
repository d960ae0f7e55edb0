package question

import (
	"context"

	"github.com/sirupsen/logrus"
)

// fallbackService tries the primary service and falls back to the local
// bank when it fails. The interview keeps moving even with the gateway
// down.
type fallbackService struct {
	primary  Service
	fallback Service
	log      *logrus.Entry
}

// WithFallback wraps primary so failures degrade to fallback instead of
// surfacing to the caller.
func WithFallback(primary, fallback Service, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &fallbackService{primary: primary, fallback: fallback, log: log}
}

func (s *fallbackService) GenerateQuestions(ctx context.Context, role, difficulty string, count int) ([]string, error) {
	questions, err := s.primary.GenerateQuestions(ctx, role, difficulty, count)
	if err == nil && len(questions) > 0 {
		return questions, nil
	}
	if err != nil {
		s.log.WithError(err).Warn("primary question generation failed, using local bank")
	}
	return s.fallback.GenerateQuestions(ctx, role, difficulty, count)
}

func (s *fallbackService) ScoreAnswer(ctx context.Context, questionText, answer, role string) (Evaluation, error) {
	ev, err := s.primary.ScoreAnswer(ctx, questionText, answer, role)
	if err == nil {
		return ev, nil
	}
	s.log.WithError(err).Warn("primary answer scoring failed, using length heuristic")
	return s.fallback.ScoreAnswer(ctx, questionText, answer, role)
}
