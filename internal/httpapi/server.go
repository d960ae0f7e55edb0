package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/config"
	"github.com/mockmantra/mockmantra/internal/interview"
	"github.com/mockmantra/mockmantra/internal/observability"
	"github.com/mockmantra/mockmantra/internal/protocol"
	"github.com/mockmantra/mockmantra/internal/question"
	"github.com/mockmantra/mockmantra/internal/store"
)

type Server struct {
	cfg      config.Config
	registry *interview.Registry
	store    store.Store
	metrics  *observability.Metrics
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func New(cfg config.Config, registry *interview.Registry, st store.Store, metrics *observability.Metrics, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		store:    st,
		metrics:  metrics,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive an interview if
				// the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/interviews", s.handleCreateInterview)
	r.Get("/v1/interviews/{id}", s.handleInterviewStatus)
	r.Post("/v1/interviews/{id}/pause", s.handlePauseInterview)
	r.Post("/v1/interviews/{id}/resume", s.handleResumeInterview)
	r.Post("/v1/interviews/{id}/stop", s.handleStopInterview)
	r.Get("/v1/interviews/{id}/report", s.handleInterviewReport)
	r.Get("/v1/interviews/{id}/events", s.handleInterviewWS)
	r.Get("/v1/users/{id}/history", s.handleUserHistory)
	r.Get("/v1/users/{id}/statistics", s.handleUserStatistics)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.registry.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type createInterviewRequest struct {
	UserID        string `json:"user_id"`
	JobRole       string `json:"job_role"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

type createInterviewResponse struct {
	SessionID      string          `json:"session_id"`
	State          interview.State `json:"state"`
	JobRole        string          `json:"job_role"`
	Difficulty     string          `json:"difficulty"`
	TotalQuestions int             `json:"total_questions"`
}

func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	var req createInterviewRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	if strings.TrimSpace(req.JobRole) == "" {
		req.JobRole = "Software Engineer"
	}
	if strings.TrimSpace(req.Difficulty) == "" {
		req.Difficulty = "Intermediate"
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = s.cfg.DefaultQuestionCount
	}

	ctrl := s.registry.Create(req.UserID, req.JobRole, req.Difficulty)
	if err := ctrl.Start(r.Context(), req.QuestionCount); err != nil {
		code := "start_failed"
		status := http.StatusBadGateway
		if errors.Is(err, question.ErrNoQuestions) {
			code = "no_questions"
		}
		respondError(w, status, code, err.Error())
		return
	}

	status := ctrl.Status()
	respondJSON(w, http.StatusCreated, createInterviewResponse{
		SessionID:      ctrl.ID(),
		State:          status.State,
		JobRole:        req.JobRole,
		Difficulty:     req.Difficulty,
		TotalQuestions: status.TotalQuestions,
	})
}

func (s *Server) handleInterviewStatus(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handlePauseInterview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := ctrl.Pause(); err != nil {
		respondError(w, http.StatusConflict, "not_running", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleResumeInterview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := ctrl.Resume(); err != nil {
		respondError(w, http.StatusConflict, "not_paused", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleStopInterview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctrl.Stop()
	respondJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleInterviewReport(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	report, err := ctrl.Report()
	if err != nil {
		respondError(w, http.StatusConflict, "report_not_ready", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if strings.TrimSpace(userID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}
	history, err := s.store.SessionHistory(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": history})
}

func (s *Server) handleUserStatistics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if strings.TrimSpace(userID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	stats, err := s.store.UserStatistics(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleInterviewWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctrl, err := s.registry.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	history, events, cancelEvents, err := s.registry.Subscribe(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	progress, cancelProgress, err := s.registry.SubscribeProgress(id)
	if err != nil {
		cancelEvents()
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancelEvents()
		cancelProgress()
		return
	}
	defer conn.Close()
	defer cancelEvents()
	defer cancelProgress()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Keep websocket writes single-threaded: every outbound frame goes
	// through this queue, including error frames raised by the read loop.
	outbound := make(chan any, 256)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		// Replay buffered history so late-connecting clients see the
		// whole session before live frames.
		for _, ev := range history {
			if !s.writeJSON(conn, protocol.NewSessionEvent(ev)) {
				cancel()
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				if !s.writeJSON(conn, msg) {
					cancel()
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !s.writeJSON(conn, protocol.NewSessionEvent(ev)) {
					cancel()
					return
				}
			case p, ok := <-progress:
				if !ok {
					return
				}
				if !s.writeJSON(conn, protocol.NewProgressUpdate(id, p)) {
					cancel()
					return
				}
			}
		}
	}()

	sendError := func(code, detail string) {
		select {
		case outbound <- protocol.NewErrorEvent(code, detail):
		default:
			// Drop if the outbound queue is saturated.
		}
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		control, err := protocol.ParseClientMessage(data)
		if err != nil {
			sendError("invalid_client_message", err.Error())
			continue
		}

		switch control.Action {
		case protocol.ActionPause:
			if err := ctrl.Pause(); err != nil {
				sendError("not_running", err.Error())
			}
		case protocol.ActionResume:
			if err := ctrl.Resume(); err != nil {
				sendError("not_paused", err.Error())
			}
		case protocol.ActionStop:
			ctrl.Stop()
		}
	}

	cancel()
	<-writerDone
}

// writeJSON serializes under a write deadline; only the connection's
// writer goroutine calls it.
func (s *Server) writeJSON(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(v); err != nil {
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*interview.Controller, bool) {
	id := chi.URLParam(r, "id")
	ctrl, err := s.registry.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return ctrl, true
}
