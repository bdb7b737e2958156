package ports

import (
	"context"
)

// SnapshotSink receives the latest snapshot of every mirrored relay.
// It is an observer hook for processes outside the pipeline (dashboards,
// other services), not a persistence layer: only the latest value per key is
// kept and nothing is ever replayed into the pipeline.
type SnapshotSink interface {
	// Publish stores snapshot as the latest value for key.
	Publish(ctx context.Context, key string, snapshot any) error

	// Load returns the JSON encoding of the latest snapshot for key.
	// Returns domain.ErrSnapshotNotFound if nothing was published under key.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete forgets key.
	Delete(ctx context.Context, key string) error

	// Keys lists every key with a published snapshot.
	Keys(ctx context.Context) ([]string, error)
}
