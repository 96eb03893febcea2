// Package backend selects and constructs the estimate history store.
package backend

import (
	"fmt"
	"log/slog"

	"bilancio/internal/storage"
)

// Type identifies a history store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a store.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// Result contains the store instance and an optional cleanup function.
type Result struct {
	Store   storage.HistoryStore
	Cleanup CleanupFunc
}

// Factory creates history stores based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the store named by config.
func (f *Factory) Create(config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid history backend: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteHistory(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite history: %w", err)
		}
		f.logger.Info("Initialized SQLite history backend", "db_path", config.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		store := storage.NewMemoryHistory()
		f.logger.Info("Initialized memory history backend")
		return &Result{Store: store, Cleanup: nil}, nil
	}
}
