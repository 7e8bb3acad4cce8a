package feasibility

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
)

const (
	llmRetryBaseDelay = 300 * time.Millisecond
	llmMaxRetries     = 1
)

// retryingLLM retries transient provider failures with jittered exponential
// backoff. Everything else is returned on the first attempt.
type retryingLLM struct {
	base       llm.Client
	requestID  string
	jobID      string
	delay      time.Duration
	maxRetries uint64
}

func newRetryingLLM(base llm.Client, jobID, requestID string, delay time.Duration) llm.Client {
	if base == nil {
		return nil
	}
	if delay <= 0 {
		delay = llmRetryBaseDelay
	}
	return retryingLLM{
		base:       base,
		requestID:  requestID,
		jobID:      jobID,
		delay:      delay,
		maxRetries: llmMaxRetries,
	}
}

func (r retryingLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(r.delay)))
	var (
		out     string
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := r.base.Complete(ctx, req)
		if err == nil {
			out = resp
			return nil
		}
		if !shouldRetryLLM(err) {
			return err
		}
		metrics.IncLLMRetries()
		telemetry.Warn("llm.retry", map[string]any{
			"attempt":    attempt,
			"request_id": r.requestID,
			"job_id":     r.jobID,
			"purpose":    req.Purpose,
			"error":      sanitizeError(err),
		})
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrNotImplemented) {
		return false
	}
	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		return perr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
