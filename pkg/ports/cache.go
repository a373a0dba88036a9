package ports

import "context"

// CacheStore persists dependency state between runs, keyed by the
// deterministic cache key (lockfile hash + OS class).
//
// Both operations are best-effort from the pipeline's point of view: a miss
// or an error degrades latency, never correctness. Callers log failures and
// proceed.
type CacheStore interface {
	// Restore materializes the cached entry into dest.
	// Returns false (and no error) on a miss.
	Restore(ctx context.Context, key, dest string) (bool, error)

	// Save captures src under key, replacing any previous entry.
	Save(ctx context.Context, key, src string) error
}
