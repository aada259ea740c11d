package history

import (
	"context"

	"etiket/internal/core"
)

// DefaultKey is the key the history list is persisted under.
const DefaultKey = "daily-export-label-history"

// Ports for the label history.
type (
	// Repository is what the workstation needs from the history.
	Repository interface {
		// Load returns the entries, newest first.
		Load(ctx context.Context) []core.HistoryEntry
		// AppendAndSave prepends the entry and persists the whole list.
		AppendAndSave(ctx context.Context, e core.HistoryEntry) error
	}

	// KV is a minimal key-value persistence backend.
	KV interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Put(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
		// Update replaces the value of key with fn's result atomically with
		// respect to every other writer of the backend. A nil result deletes
		// the key. When fn fails nothing is written.
		Update(ctx context.Context, key string, fn UpdateFunc) error
	}
)

// UpdateFunc computes the next value of a key from its current one.
type UpdateFunc func(old []byte, found bool) ([]byte, error)
