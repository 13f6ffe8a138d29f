package backend

import (
	"context"
	"time"

	"wealthwarriors/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc checks that the backing store is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult carries the stores a backend offers. States and Ledger are
// nil when the backend cannot provide them.
type BackendResult struct {
	Families storage.FamilyStore
	States   storage.StateStore
	Ledger   storage.LedgerSource
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs Cleanup if one was set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	StateFilePath string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Read cache in front of relational backends; zero disables it
	CacheTTL time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
