package metadata

import "context"

// Repository stores sync bookkeeping as single-row-per-key string pairs
// (last sync time, aggregate counts). Values are always overwritten.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) (map[string]string, error)
}
