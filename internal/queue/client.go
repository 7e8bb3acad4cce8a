package queue

import "context"

// Client enqueues feasibility report jobs for the worker. Services treat a
// nil Client as "run the report in-process".
type Client interface {
	Send(ctx context.Context, msg Message) error
}
