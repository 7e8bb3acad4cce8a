package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	limit int
	data  map[string]Usage
}

func newMemoryStore(limit int) *memoryStore {
	return &memoryStore{
		limit: limit,
		data:  make(map[string]Usage),
	}
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentLocked(userID, time.Now().UTC())
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.EnsurePeriod(ctx, userID)
	}
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentLocked(userID, time.Now().UTC())
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Refund(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.EnsurePeriod(ctx, userID)
	}
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentLocked(userID, time.Now().UTC())
	u.Used -= n
	if u.Used < 0 {
		u.Used = 0
	}
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(s.limit)
	}
	u.Used = 0
	u.ResetsAt = now.Add(periodLength)
	s.data[userID] = u
	return u, nil
}

// currentLocked returns the usage row for userID with an expired window rolled over.
func (s *memoryStore) currentLocked(userID string, now time.Time) Usage {
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(s.limit)
	}
	u.rollover(now)
	return u
}

var _ Store = (*memoryStore)(nil)
