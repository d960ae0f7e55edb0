package question

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestGatewayGenerateQuestionsFromText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/questions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"text": "1. First question?\n2. Second question?\n3. Third question?",
		})
	}))
	defer ts.Close()

	c := NewGatewayClient(ts.URL, nil)
	qs, err := c.GenerateQuestions(context.Background(), "Software Engineer", "Intermediate", 2)
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2 (truncated to count)", len(qs))
	}
}

func TestGatewayRetriesRetryableStatus(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"questions": []string{"Only question?"}})
	}))
	defer ts.Close()

	c := NewGatewayClient(ts.URL, nil)
	qs, err := c.GenerateQuestions(context.Background(), "role", "Intermediate", 1)
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if len(qs) != 1 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("questions=%v calls=%d, want one question after a retry", qs, calls)
	}
}

func TestGatewayScoreAnswerParsesText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "SCORE: 9\nSTRENGTHS: Solid depth"})
	}))
	defer ts.Close()

	c := NewGatewayClient(ts.URL, nil)
	ev, err := c.ScoreAnswer(context.Background(), "q", "a", "role")
	if err != nil {
		t.Fatalf("ScoreAnswer() error = %v", err)
	}
	if ev.Score != 9 || ev.Strengths != "Solid depth" {
		t.Fatalf("unexpected evaluation: %+v", ev)
	}
}

func TestGatewayScoreAnswerWrapsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewGatewayClient(ts.URL, nil)
	_, err := c.ScoreAnswer(context.Background(), "q", "a", "role")
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
}
