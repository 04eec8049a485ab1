package cache

import "context"

// Cache is a small read-through cache for rendered loan statements. Keys
// embed the loan version, so entries never need invalidation; they just
// stop being asked for.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}
