package backend

import (
	"context"

	"orcamento/internal/core"
	"orcamento/internal/report"
	"orcamento/internal/services"
)

// Store is everything the API and the export worker need from persistence.
// *storage.Repository satisfies it on both dialects.
type Store interface {
	services.ExpenseStore
	services.BudgetStore
	report.Store

	AllExpenses(ctx context.Context) ([]core.Expense, error)
	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened store, the optional change event
// publisher and a cleanup function releasing both.
type BackendResult struct {
	Store     Store
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens and migrates the store the config names
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// PostgreSQL connection URL
	PostgresDSN string

	// SQLite specific
	SQLiteDBPath string

	// Change events; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	PostgresBackend BackendType = "postgres"
	SQLiteBackend   BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case PostgresBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
