package grading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/audit-rank/auditrank/internal/ai"
)

// Request is one answer to score. ID is the caller's position key for the
// submission; it round-trips through the scoring prompt and response.
type Request struct {
	ID          int
	Question    string
	Answer      string
	ModelAnswer string
	Keywords    []string
	Reference   string
}

// Result is the outcome for one request. Score is on a 0 to 10 scale.
// Failed marks synthetic results from scorer breakdowns; gate rejections are
// deterministic outcomes, not failures.
type Result struct {
	Score      float64 `json:"score"`
	Evaluation string  `json:"evaluation"`
	Failed     bool    `json:"failed,omitempty"`
}

// GateFailure builds the terminal result for an answer that matched fewer
// keywords than required. The external scorer is never consulted for these.
func GateFailure(matched, required int) Result {
	return Result{
		Score:      0.0,
		Evaluation: fmt.Sprintf("핵심 키워드 부족 (%d개 미만 감지됨: %d개). 조금 더 구체적으로 작성해 주세요.", required, matched),
	}
}

// Completer is the outbound scoring dependency, satisfied by ai.Router and
// any single ai.Provider.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Engine grades answer batches through an external scorer. Every request put
// in gets exactly one result out; scorer failures become synthetic results,
// never errors.
type Engine struct {
	completer  Completer
	maxBatch   int
	maxRetries int
	backoff    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxBatchSize caps how many requests share one outbound call.
func WithMaxBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBatch = n
		}
	}
}

// WithMaxRetries sets how many additional attempts a failed call gets.
// Only transport-level failures are retried.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the pause between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(e *Engine) { e.backoff = d }
}

// NewEngine creates an engine over the given scorer.
func NewEngine(completer Completer, opts ...Option) *Engine {
	e := &Engine{
		completer:  completer,
		maxBatch:   10,
		maxRetries: 1,
		backoff:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GradeBatch scores the requests and returns a result per request ID.
// Requests are chunked so no single outbound call exceeds the batch cap.
func (e *Engine) GradeBatch(ctx context.Context, requests []Request) map[int]Result {
	results := make(map[int]Result, len(requests))
	if len(requests) == 0 {
		return results
	}

	for start := 0; start < len(requests); start += e.maxBatch {
		end := start + e.maxBatch
		if end > len(requests) {
			end = len(requests)
		}
		e.gradeChunk(ctx, requests[start:end], results)
	}

	return results
}

func (e *Engine) gradeChunk(ctx context.Context, chunk []Request, results map[int]Result) {
	resp, err := e.completeWithRetry(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: buildPrompt(chunk)}},
		Temperature: 0.1,
		JSONOnly:    true,
	})
	if err != nil {
		slog.Error("scoring call failed", "batch_size", len(chunk), "error", err)
		fillFailure(chunk, results, failureMessage(err))
		return
	}

	items, err := parseResults(resp.Content)
	if err != nil {
		slog.Warn("scoring response unparseable", "batch_size", len(chunk), "error", err)
		fillFailure(chunk, results, fmt.Sprintf("채점 형식 오류: %v", err))
		return
	}

	byID := make(map[int]resultItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for _, req := range chunk {
		item, ok := byID[req.ID]
		if !ok {
			results[req.ID] = Result{Score: 0.0, Evaluation: "채점 결과가 누락되었습니다. 다시 시도해 주세요.", Failed: true}
			continue
		}
		results[req.ID] = Result{
			Score:      clampScore(item.Score),
			Evaluation: feedbackOrDefault(item.Feedback),
		}
	}
}

func (e *Engine) completeWithRetry(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ai.CompletionResponse{}, ctx.Err()
			case <-time.After(e.backoff):
			}
		}

		resp, err := e.completer.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ai.Classify(err) != ai.KindTransport {
			break
		}
	}
	return ai.CompletionResponse{}, lastErr
}

func fillFailure(chunk []Request, results map[int]Result, evaluation string) {
	for _, req := range chunk {
		results[req.ID] = Result{Score: 0.0, Evaluation: evaluation, Failed: true}
	}
}

func failureMessage(err error) string {
	switch ai.Classify(err) {
	case ai.KindRateLimited:
		return "⚠️ 요청량 초과 (잠시 후 시도)"
	case ai.KindTimeout:
		return "⚠️ 응답 시간 초과 (잠시 후 시도)"
	default:
		return fmt.Sprintf("오류: %v", err)
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func feedbackOrDefault(feedback string) string {
	if feedback == "" {
		return "피드백 없음"
	}
	return feedback
}
