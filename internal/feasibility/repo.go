package feasibility

import "context"

// Repo defines persistence operations for report jobs.
type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	UpdateStatus(ctx context.Context, jobID string, update StatusUpdate) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error)
}
