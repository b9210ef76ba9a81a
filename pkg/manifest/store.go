package manifest

import "context"

// Store persists and retrieves manifests, keyed by job ID, with the
// same real-backend-plus-fallback shape as pkg/cache's
// FileCache/NullCache pair: a MongoStore for production use, a
// FileStore for environments without Mongo available.
type Store interface {
	Save(ctx context.Context, m Manifest) error
	Get(ctx context.Context, jobID string) (Manifest, bool, error)
	Close(ctx context.Context) error
}
