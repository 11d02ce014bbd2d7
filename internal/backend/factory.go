package backend

import (
	"context"
	"fmt"

	"moneytracker/internal/amqp"
	"moneytracker/internal/ledger/memory"
	"moneytracker/internal/log"
	"moneytracker/internal/mail"
	"moneytracker/internal/storage"
	"moneytracker/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.UserCacheTTL > 0 {
		result.Backend = NewCachedBackend(result.Backend, userCacheSize, config.UserCacheTTL)
		f.logger.Info("User lookups cached", "ttl", config.UserCacheTTL)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.Connect(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	if config.SeedFile != "" {
		seeded, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		store = seeded
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Backend: store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// CreateDispatcher implements Factory.CreateDispatcher
func (f *DefaultFactory) CreateDispatcher(ctx context.Context, config MailConfig) (*DispatcherResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Transport {
	case LogTransport:
		f.logger.Info("Using log mail transport; no email will leave the process")
		return &DispatcherResult{Dispatcher: mail.NewLogDispatcher(f.logger)}, nil

	case SMTPTransport:
		d, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUsername,
			Password: config.SMTPPassword,
			From:     config.From,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP transport: %w", err)
		}
		f.logger.Info("Initialized SMTP transport", "host", config.SMTPHost, "port", config.SMTPPort)
		return &DispatcherResult{Dispatcher: d}, nil

	case GmailTransport:
		d, err := mail.NewGmailDispatcher(ctx, config.GmailCredentialsJSON, config.GmailCredentialsFile, config.From)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gmail transport: %w", err)
		}
		f.logger.Info("Initialized Gmail transport", "from", config.From)
		return &DispatcherResult{Dispatcher: d}, nil

	case AMQPTransport:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Info("Initialized AMQP mail queue",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return &DispatcherResult{
			Dispatcher: mail.NewQueueDispatcher(client),
			Cleanup:    client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported mail transport: %s", config.Transport)
	}
}
