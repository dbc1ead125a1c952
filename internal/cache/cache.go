// Package cache holds code to URL lookups in front of the link store.
//
// Entries are filled only when absent, and invalidation leaves a tombstone
// for one TTL. A lookup that read the store before an update or delete
// committed therefore cannot put the old destination back.
package cache

import "context"

// tombstone marks an invalidated code. No valid URL contains a NUL byte.
const tombstone = "\x00"

// Cache maps codes to original URLs. Implementations treat backend failures
// as misses; the store remains the source of truth.
type Cache interface {
	// Get returns the cached URL. Tombstones are reported as misses.
	Get(ctx context.Context, code string) (string, bool)
	// Add stores originalURL unless code already has an entry or a tombstone.
	Add(ctx context.Context, code, originalURL string) bool
	// Invalidate replaces any entry for code with a tombstone.
	Invalidate(ctx context.Context, code string)
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool) { return "", false }
func (Noop) Add(context.Context, string, string) bool   { return false }
func (Noop) Invalidate(context.Context, string)         {}
