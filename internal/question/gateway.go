package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mockmantra/mockmantra/internal/reliability"
)

const (
	gatewayRequestTimeout = 60 * time.Second
	gatewayMaxAttempts    = 3
	gatewayBackoffBase    = 250 * time.Millisecond
	gatewayBackoffCap     = 2 * time.Second
)

// GatewayClient talks to an LLM gateway that generates questions and
// scores answers. Responses may be structured JSON or free text; free
// text goes through the same parsers used for structured fallbacks.
type GatewayClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Entry
}

func NewGatewayClient(baseURL string, log *logrus.Entry) *GatewayClient {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: gatewayRequestTimeout},
		log:     log.WithField("component", "question_gateway"),
	}
}

type generateRequest struct {
	Role       string `json:"role"`
	Difficulty string `json:"difficulty"`
	Guidance   string `json:"guidance"`
	Count      int    `json:"count"`
}

type generateResponse struct {
	Questions []string `json:"questions"`
	Text      string   `json:"text"`
}

type scoreRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Role     string `json:"role"`
}

type scoreResponse struct {
	Evaluation *Evaluation `json:"evaluation"`
	Text       string      `json:"text"`
}

func (c *GatewayClient) GenerateQuestions(ctx context.Context, role, difficulty string, count int) ([]string, error) {
	req := generateRequest{
		Role:       role,
		Difficulty: difficulty,
		Guidance:   DifficultyDescription(difficulty),
		Count:      count,
	}

	var res generateResponse
	if err := c.post(ctx, "/v1/questions", req, &res); err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := res.Questions
	if len(questions) == 0 && res.Text != "" {
		questions = ParseQuestionList(res.Text)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func (c *GatewayClient) ScoreAnswer(ctx context.Context, questionText, answer, role string) (Evaluation, error) {
	req := scoreRequest{Question: questionText, Answer: answer, Role: role}

	var res scoreResponse
	if err := c.post(ctx, "/v1/score", req, &res); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrScoreUnavailable, err)
	}
	if res.Evaluation != nil {
		ev := *res.Evaluation
		ev.Score = clampScore(ev.Score)
		return ev, nil
	}
	if strings.TrimSpace(res.Text) == "" {
		return Evaluation{}, ErrScoreUnavailable
	}
	return ParseEvaluation(res.Text), nil
}

func (c *GatewayClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < gatewayMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt-1, gatewayBackoffBase, gatewayBackoffCap)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.postOnce(ctx, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		c.log.WithError(lastErr).WithField("attempt", attempt+1).Warn("gateway call failed, retrying")
	}
	return lastErr
}

func (c *GatewayClient) postOnce(ctx context.Context, path string, payload []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return &gatewayError{retryable: true, err: fmt.Errorf("send request: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &gatewayError{
			retryable: reliability.IsRetryableHTTPStatus(res.StatusCode),
			err:       fmt.Errorf("gateway http status %d: %s", res.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type gatewayError struct {
	retryable bool
	err       error
}

func (e *gatewayError) Error() string { return e.err.Error() }
func (e *gatewayError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	ge, ok := err.(*gatewayError)
	return ok && ge.retryable
}
