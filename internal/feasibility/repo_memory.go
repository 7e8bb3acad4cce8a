package feasibility

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores report jobs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Job
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Job),
		byUser: make(map[string][]string),
	}
}

// Create stores the job.
func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	r.byUser[job.UserID] = append(r.byUser[job.UserID], job.ID)
	return nil
}

// GetByID returns a job by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// UpdateStatus applies a status transition to an existing job.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, jobID string, update StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = update.Status
	if update.Report != nil {
		job.Report = update.Report
	}
	if update.ErrorCode != nil {
		job.ErrorCode = update.ErrorCode
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = update.ErrorMessage
	}
	if update.StartedAt != nil {
		job.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return nil
}

// ListByUser returns jobs for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	ids := r.byUser[userID]
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, r.byID[id])
	}
	r.mu.RUnlock()

	if len(jobs) == 0 || offset >= len(jobs) {
		return []Job{}, nil
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	end := len(jobs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return jobs[offset:end], nil
}

// ClaimGuest moves a guest's jobs to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byUser[guestUserID]
	for _, id := range ids {
		job := r.byID[id]
		job.UserID = authedUserID
		r.byID[id] = job
	}
	r.byUser[authedUserID] = append(r.byUser[authedUserID], ids...)
	delete(r.byUser, guestUserID)
	return len(ids), nil
}
