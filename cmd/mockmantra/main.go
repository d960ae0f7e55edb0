package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/config"
	"github.com/mockmantra/mockmantra/internal/httpapi"
	"github.com/mockmantra/mockmantra/internal/interview"
	"github.com/mockmantra/mockmantra/internal/observability"
	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/sentiment"
	"github.com/mockmantra/mockmantra/internal/speech"
	"github.com/mockmantra/mockmantra/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("invalid APP_LOG_LEVEL: %v", err)
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "main")

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()
	if cfg.DatabaseURL == "" {
		log.Info("store: in-memory (DATABASE_URL not set)")
	} else {
		log.Info("store: postgres")
	}

	var questions question.Service
	if cfg.QuestionGatewayURL != "" {
		gateway := question.NewGatewayClient(cfg.QuestionGatewayURL, logrus.WithField("component", "question"))
		questions = question.WithFallback(gateway, question.NewFallbackBank(), logrus.WithField("component", "question"))
		log.Info("question service: gateway with local fallback")
	} else {
		questions = question.NewFallbackBank()
		log.Info("question service: local bank (QUESTION_GATEWAY_URL not set)")
	}

	registry := interview.NewRegistry(interview.Dependencies{
		Questions: questions,
		Sentiment: sentiment.NewLexicalAnalyzer(),
		Speech:    speech.NewMockProvider(),
		Store:     st,
		Metrics:   metrics,
		Log:       logrus.WithField("component", "interview"),
		Options: interview.Options{
			ListenTimeout:      cfg.AnswerListenTimeout,
			InterQuestionPause: cfg.InterQuestionPause,
			MaxAttempts:        cfg.MaxAnswerAttempts,
		},
		Retention: cfg.SessionRetention,
	})

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartJanitor(runCtx, cfg.JanitorInterval)
	go reapStaleRows(runCtx, st, log)

	api := httpapi.New(cfg, registry, st, metrics, logrus.WithField("component", "httpapi"))
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Infof("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}
	registry.Shutdown(shutdownCtx)

	log.Info("shutdown complete")
}

// reapStaleRows removes abandoned pending sessions from storage on a
// slow cadence; live sessions are reaped by the registry janitor.
func reapStaleRows(ctx context.Context, st store.Store, log *logrus.Entry) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := st.CleanupStaleSessions(ctx, 24*time.Hour)
			if err != nil {
				log.WithError(err).Warn("stale session cleanup failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("cleaned up stale sessions")
			}
		}
	}
}
