// Package checkpoint persists opaque monitoring state keyed by run id so a
// supervisor can resume a run after a restart.
package checkpoint

import "context"

// Store persists checkpoint payloads. Payloads are opaque to the store; the
// supervisor owns the encoding.
type Store interface {
	// Save writes or replaces the checkpoint for a run.
	Save(ctx context.Context, runID string, state []byte) error

	// Load returns the checkpoint for a run, or core.ErrCheckpointNotFound.
	Load(ctx context.Context, runID string) ([]byte, error)

	// Delete removes the checkpoint for a run. Deleting a missing
	// checkpoint is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the run ids with a stored checkpoint.
	List(ctx context.Context) ([]string, error)
}
