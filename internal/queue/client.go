package queue

import "context"

// Client sends analysis jobs to a queue backend. The service falls back to
// in-process dispatch when no client is configured.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
