package feasibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"sourcing-backend/internal/llm"
)

func fastRetry(base llm.Client, maxRetries uint64) retryingLLM {
	return retryingLLM{base: base, jobID: "job-1", delay: time.Millisecond, maxRetries: maxRetries}
}

func TestRetryingLLMGivesUpAfterMaxRetries(t *testing.T) {
	overloaded := errors.New("openai http status 429: rate limited")
	client := &fakeLLM{errs: []error{overloaded, overloaded, overloaded, overloaded}}

	_, err := fastRetry(client, 2).Complete(context.Background(), llm.Request{Purpose: "feasibility_report"})
	if !errors.Is(err, overloaded) {
		t.Fatalf("expected last provider error, got %v", err)
	}
	if got := len(client.calls()); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestRetryingLLMDoesNotRetryPermanentErrors(t *testing.T) {
	badKey := errors.New("openai http status 401: invalid api key")
	client := &fakeLLM{errs: []error{badKey}}

	if _, err := fastRetry(client, 2).Complete(context.Background(), llm.Request{}); !errors.Is(err, badKey) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if got := len(client.calls()); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestShouldRetryLLM(t *testing.T) {
	cases := map[string]bool{
		"openai http status 503: overloaded": true,
		"openai http status 400: bad schema": false,
		"read tcp: connection reset by peer": true,
	}
	for msg, want := range cases {
		if got := shouldRetryLLM(errors.New(msg)); got != want {
			t.Fatalf("shouldRetryLLM(%q) = %v, want %v", msg, got, want)
		}
	}
	if !shouldRetryLLM(context.DeadlineExceeded) {
		t.Fatal("expected deadline exceeded to be retried")
	}
	if !shouldRetryLLM(&llm.ProviderError{Provider: "openai", Status: 500}) {
		t.Fatal("expected provider 500 to be retried")
	}
	if shouldRetryLLM(&llm.ProviderError{Provider: "openai", Status: 400, Message: "timeout in schema"}) {
		t.Fatal("expected provider 400 to be final")
	}
	if shouldRetryLLM(llm.ErrNotImplemented) {
		t.Fatal("expected ErrNotImplemented to be final")
	}
}
