package llm

import (
	"context"
	"errors"
	"testing"
)

func TestProviderError(t *testing.T) {
	cases := []struct {
		err       *ProviderError
		msg       string
		retryable bool
	}{
		{&ProviderError{Provider: "openai", Status: 429, Message: "slow down", Type: "rate_limit_exceeded"}, "openai http status 429: slow down (rate_limit_exceeded)", true},
		{&ProviderError{Provider: "openai", Status: 503, Message: "overloaded"}, "openai http status 503: overloaded", true},
		{&ProviderError{Provider: "openai", Status: 401, Message: "bad key"}, "openai http status 401: bad key", false},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.msg {
			t.Fatalf("Error() = %q, want %q", got, tc.msg)
		}
		if got := tc.err.Retryable(); got != tc.retryable {
			t.Fatalf("%d Retryable() = %v, want %v", tc.err.Status, got, tc.retryable)
		}
	}
}

func TestConfigured(t *testing.T) {
	if Configured(nil) || Configured(PlaceholderClient{}) {
		t.Fatal("expected nil and placeholder clients to be unconfigured")
	}
	if _, err := (PlaceholderClient{}).Complete(context.Background(), Request{}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
