package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/observability"
	"github.com/mockmantra/mockmantra/internal/policy"
	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
	"github.com/mockmantra/mockmantra/internal/speech"
	"github.com/mockmantra/mockmantra/internal/store"
)

const persistTimeout = 5 * time.Second

// Aggregator fans one answer out to the independent analyzers, merges
// their results into a single PerQuestionAnalysis, persists the record,
// and delivers immediate spoken feedback.
type Aggregator struct {
	questions   question.Service
	sentiment   sentiment.Analyzer
	synthesizer speech.Synthesizer
	store       store.Store
	metrics     *observability.Metrics
	log         *logrus.Entry
}

func newAggregator(
	questions question.Service,
	analyzer sentiment.Analyzer,
	synthesizer speech.Synthesizer,
	st store.Store,
	metrics *observability.Metrics,
	log *logrus.Entry,
) *Aggregator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Aggregator{
		questions:   questions,
		sentiment:   analyzer,
		synthesizer: synthesizer,
		store:       st,
		metrics:     metrics,
		log:         log,
	}
}

// Analyze always produces an AnswerRecord for the question, even when
// analyzers fail: failed components fall back to sentinel values and the
// record is marked degraded. This keeps record numbering aligned with
// the question list.
func (a *Aggregator) Analyze(ctx context.Context, sessionID, role string, q Question, answer string, responseTime float64) (AnswerRecord, Feedback) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string

		eval       question.Evaluation
		sentiments sentiment.Distribution
		emotions   sentiment.Distribution
		confidence float64
		comm       sentiment.Metrics
	)

	fail := func(analyzer string, err error) {
		mu.Lock()
		failed = append(failed, analyzer)
		mu.Unlock()
		a.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"question":   q.Number,
			"analyzer":   analyzer,
		}).Error("answer analysis failed")
		if a.metrics != nil {
			a.metrics.AnalyzerErrors.WithLabelValues(analyzer).Inc()
		}
	}

	// The four analyzer calls share no mutable state and are joined here.
	wg.Add(4)
	go func() {
		defer wg.Done()
		ev, err := a.questions.ScoreAnswer(ctx, q.Text, answer, role)
		if err != nil {
			fail("content", err)
			return
		}
		eval = ev
	}()
	go func() {
		defer wg.Done()
		s, err := a.sentiment.Sentiment(ctx, answer)
		if err != nil {
			fail("sentiment", err)
			return
		}
		sentiments = s
	}()
	go func() {
		defer wg.Done()
		e, err := a.sentiment.Emotions(ctx, answer)
		if err != nil {
			fail("emotions", err)
			return
		}
		emotions = e
	}()
	go func() {
		defer wg.Done()
		c, err := a.sentiment.Confidence(ctx, answer)
		if err != nil {
			fail("confidence", err)
			return
		}
		confidence = c
		m, err := a.sentiment.CommunicationMetrics(ctx, answer)
		if err != nil {
			fail("communication", err)
			return
		}
		comm = m
	}()
	wg.Wait()

	degraded := len(failed) > 0
	sort.Strings(failed)
	if degraded && eval.Score == 0 {
		// Content scoring failed: grade by length so the report still
		// has a defensible number for this question.
		eval, _ = question.NewFallbackBank().ScoreAnswer(ctx, q.Text, answer, role)
	}

	analysis := PerQuestionAnalysis{
		Score:           eval.Score,
		Strengths:       eval.Strengths,
		Weaknesses:      eval.Weaknesses,
		Suggestions:     eval.Suggestions,
		Keywords:        eval.Keywords,
		Completeness:    eval.Completeness,
		Sentiment:       sentiments,
		Emotions:        emotions,
		Confidence:      confidence,
		Communication:   comm,
		Degraded:        degraded,
		FailedAnalyzers: failed,
	}

	record := AnswerRecord{
		Number:       q.Number,
		Answer:       answer,
		ResponseTime: responseTime,
		Analysis:     analysis,
	}

	a.persist(ctx, sessionID, q, record)
	if a.metrics != nil {
		a.metrics.AnswerScores.Observe(float64(analysis.Score))
		a.metrics.ObserveAnswerLatency(time.Duration(responseTime * float64(time.Second)))
	}

	feedback := selectFeedback(analysis)
	a.speakFeedback(ctx, feedback)

	return record, feedback
}

func (a *Aggregator) persist(ctx context.Context, sessionID string, q Question, record AnswerRecord) {
	if a.store == nil {
		return
	}

	payload, err := json.Marshal(record.Analysis)
	if err != nil {
		a.log.WithError(err).Error("marshal analysis")
		payload = nil
	}
	redacted, _ := policy.RedactPII(record.Answer)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err = a.store.AddQuestionRecord(persistCtx, store.QuestionRecord{
		SessionID:       sessionID,
		Number:          q.Number,
		Question:        q.Text,
		Answer:          redacted,
		Analysis:        payload,
		SentimentScore:  record.Analysis.Sentiment["positive"],
		ConfidenceScore: record.Analysis.Confidence,
		ResponseTime:    record.ResponseTime,
	})
	if err != nil {
		// Partial-session persistence is best effort; the in-memory
		// record remains authoritative for the final report.
		a.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"question":   q.Number,
		}).Warn("persist question record failed")
		if a.metrics != nil {
			a.metrics.GatewayErrors.WithLabelValues("store").Inc()
		}
	}
}

func selectFeedback(analysis PerQuestionAnalysis) Feedback {
	score := analysis.Score
	switch {
	case score >= 8:
		return Feedback{
			Message: fmt.Sprintf("Excellent answer! %s", analysis.Strengths),
			Tone:    string(speech.TonePositive),
			Score:   score,
		}
	case score >= 6:
		return Feedback{
			Message: fmt.Sprintf("Good response. %s", analysis.Strengths),
			Tone:    string(speech.TonePositive),
			Score:   score,
		}
	case score >= 4:
		return Feedback{
			Message: fmt.Sprintf("That's a start. %s", analysis.Strengths),
			Tone:    string(speech.ToneNeutral),
			Score:   score,
		}
	default:
		return Feedback{
			Message: "Let's work on providing more detailed examples.",
			Tone:    string(speech.ToneConstructive),
			Score:   score,
		}
	}
}

func (a *Aggregator) speakFeedback(ctx context.Context, fb Feedback) {
	if ctx.Err() != nil {
		return
	}
	if err := a.synthesizer.Speak(ctx, fb.Message, speech.Tone(fb.Tone)); err != nil {
		a.log.WithError(err).Warn("feedback synthesis failed")
	}
}
