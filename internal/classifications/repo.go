package classifications

import "context"

// Repo persists classification records.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
}
