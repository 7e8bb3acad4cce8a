package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client abstracts text-generation providers that answer with a JSON document.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single system + user exchange.
type Request struct {
	System string
	User   string
	// Purpose tags the call in logs, e.g. "feasibility_report".
	Purpose string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// ProviderError is a non-2xx answer from a provider.
type ProviderError struct {
	Provider   string
	Status     int
	Type       string
	Message    string
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, e.Message)
	if e.Type != "" {
		msg += " (" + e.Type + ")"
	}
	return msg
}

// Retryable reports whether the same request may succeed later: rate
// limits and server-side failures.
func (e *ProviderError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// PlaceholderClient is used when no provider credentials are configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(context.Context, Request) (string, error) {
	return "", ErrNotImplemented
}

// Configured reports whether the client can reach a real provider.
func Configured(c Client) bool {
	if c == nil {
		return false
	}
	_, placeholder := c.(PlaceholderClient)
	return !placeholder
}
