package worker

import (
	"context"
)

// Worker is the lifecycle contract for all background workers.
type Worker interface {
	// Start runs the worker loop until stopped or the context is cancelled.
	Start(ctx context.Context) error

	// Stop signals the worker to finish.
	Stop() error

	// Name identifies the worker in logs.
	Name() string
}
