package usage

import "context"

// Store persists per-buyer quota windows. Every method rolls an expired
// window over before acting on it.
type Store interface {
	EnsurePeriod(ctx context.Context, userID string) (Usage, error)
	Consume(ctx context.Context, userID string, n int) (Usage, error)
	Refund(ctx context.Context, userID string, n int) (Usage, error)
	Reset(ctx context.Context, userID string) (Usage, error)
}

// Service meters deep feasibility reports per buyer per week.
type Service struct {
	store Store
}

// NewService returns a Service over an in-memory store, for dev and tests.
func NewService(limit int) *Service {
	return &Service{store: newMemoryStore(limit)}
}

// NewStoreService returns a Service over st, usually NewPGStore.
func NewStoreService(st Store) *Service {
	return &Service{store: st}
}

// Get returns the buyer's current window.
func (s *Service) Get(ctx context.Context, userID string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, userID)
}

// Consume takes n units atomically or fails with ErrLimitReached, leaving
// the window untouched.
func (s *Service) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	return s.store.Consume(ctx, userID, n)
}

// Refund gives back n units, never dropping below zero.
func (s *Service) Refund(ctx context.Context, userID string, n int) (Usage, error) {
	return s.store.Refund(ctx, userID, n)
}

// Reset zeroes usage and starts a new window. Exposed under /dev only.
func (s *Service) Reset(ctx context.Context, userID string) (Usage, error) {
	return s.store.Reset(ctx, userID)
}
