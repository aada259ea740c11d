package backend

import (
	"context"

	"etiket/internal/history"
	"etiket/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is the wired history stack.
type BackendResult struct {
	// History is what the workstation and the CLI write through.
	History *services.HistoryService
	// Store is the underlying list, for processes that only read it.
	Store *history.Store
	// Ready reports whether the persistence backend is reachable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// HistoryKey is the key the history list is stored under.
	HistoryKey string

	// SQLite specific
	SQLiteDBPath string

	// AMQP publishing of label-printed events; empty URL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
