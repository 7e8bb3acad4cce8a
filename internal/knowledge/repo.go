package knowledge

import "context"

// Repo persists knowledge entries.
type Repo interface {
	Create(ctx context.Context, entries ...Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	Update(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id string) error
	// List returns entries matching filter, oldest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}
