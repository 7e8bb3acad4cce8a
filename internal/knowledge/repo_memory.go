package knowledge

import (
	"context"
	"sync"
)

// MemoryRepo keeps entries in insertion order.
type MemoryRepo struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: make(map[string]Entry)}
}

func (r *MemoryRepo) Create(ctx context.Context, entries ...Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if _, exists := r.entries[e.ID]; !exists {
			r.order = append(r.order, e.ID)
		}
		e.Metadata = copyMetadata(e.Metadata)
		r.entries[e.ID] = e
	}
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Metadata = copyMetadata(e.Metadata)
	return e, nil
}

func (r *MemoryRepo) Update(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return ErrNotFound
	}
	e.Metadata = copyMetadata(e.Metadata)
	r.entries[e.ID] = e
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return ErrNotFound
	}
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		if filter.Matches(e) {
			e.Metadata = copyMetadata(e.Metadata)
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}
