package backend

import (
	"context"
	"time"

	"moneytracker/internal/ledger"
	"moneytracker/internal/mail"
)

// Backend is a ledger the process can health-check.
type Backend interface {
	ledger.Ledger
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// DispatcherResult contains the mail dispatcher and optional cleanup function
type DispatcherResult struct {
	Dispatcher mail.Dispatcher
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateDispatcher creates the mail transport named in config
	CreateDispatcher(ctx context.Context, config MailConfig) (*DispatcherResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend specific; empty means start empty
	SeedFile string

	// UserCacheTTL caches user lookups in front of the backend; zero disables
	UserCacheTTL time.Duration
}

// MailConfig holds configuration for mail dispatcher creation
type MailConfig struct {
	Transport Transport
	From      string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	GmailCredentialsFile string
	GmailCredentialsJSON string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Transport names a mail delivery route.
type Transport string

const (
	LogTransport   Transport = "log"
	SMTPTransport  Transport = "smtp"
	GmailTransport Transport = "gmail"
	AMQPTransport  Transport = "amqp"
)

// IsValid returns true if the transport is known
func (t Transport) IsValid() bool {
	switch t {
	case LogTransport, SMTPTransport, GmailTransport, AMQPTransport:
		return true
	default:
		return false
	}
}

// Direct reports whether the transport delivers mail itself rather than
// queueing it.
func (t Transport) Direct() bool {
	return t != AMQPTransport
}
