package store

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the
	// given generation
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a versioned, named key-value cache of response snapshots.
// Each generation is an independent namespace; deleting a generation
// removes every entry it owns.
//
// Writes are single atomic puts with per-key last-write-wins semantics.
// A lost update merely causes an extra network fetch on the next
// request, so callers need no locking around Put/Match.
type Store interface {
	// Put stores an entry under key in the named generation,
	// overwriting any existing entry for that key.
	Put(ctx context.Context, generation string, key Key, entry *Entry) error

	// Match looks up the entry for key in the named generation.
	// Returns ErrCacheMiss if absent.
	Match(ctx context.Context, generation string, key Key) (*Entry, error)

	// Generations enumerates the names of all generations that
	// currently hold at least one entry.
	Generations(ctx context.Context) ([]string, error)

	// DeleteGeneration removes the named generation and all of its
	// entries. Deleting an absent generation is not an error.
	DeleteGeneration(ctx context.Context, generation string) error

	// Close releases backend resources.
	Close() error
}
