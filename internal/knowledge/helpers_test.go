package knowledge

import (
	"context"
	"sync"
	"time"

	"sourcing-backend/internal/llm"
)

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return `{"entries":[]}`, nil
}

func (f *fakeLLM) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

func newTestService(client llm.Client) *Service {
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	return &Service{
		Repo: NewMemoryRepo(),
		LLM:  client,
		now: func() time.Time {
			n++
			return start.Add(time.Duration(n) * time.Second)
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
