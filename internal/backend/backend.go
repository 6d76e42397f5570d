// Package backend builds the storage and event publishing stack selected by
// configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fanatitra/internal/amqp"
	"fanatitra/internal/config"
	"fanatitra/internal/log"
	"fanatitra/internal/ports"
	"fanatitra/internal/storage"
	"fanatitra/internal/storage/memory"
)

// Type names a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	}
	return false
}

// Config holds what the factory needs to assemble a backend.
type Config struct {
	Type Type

	SQLiteDBPath string
	SeedFile     string

	AMQPURL           string
	AMQPExchange      string
	AMQPRoutingPrefix string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", cfg.DataBackend)
	}
	return Config{
		Type:              t,
		SQLiteDBPath:      cfg.SQLiteDBPath,
		SeedFile:          cfg.SeedFile,
		AMQPURL:           cfg.AMQPURL,
		AMQPExchange:      cfg.AMQPExchange,
		AMQPRoutingPrefix: cfg.AMQPRoutingPrefix,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLite && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}

// Result is an assembled backend. Publisher is nil when change events are
// disabled.
type Result struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Cleanup   func() error
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the store and, when an AMQP URL is configured, the change
// event publisher. A broker that cannot be reached at startup is logged
// and skipped; the ledger keeps working without events.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store ports.Store
	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		if cfg.SeedFile != "" {
			store = memory.NewFromFile(cfg.SeedFile, f.logger)
		} else {
			store = memory.New()
		}
		f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	}

	res := &Result{Store: store}
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(ctx, amqp.Config{
			URL:             cfg.AMQPURL,
			Exchange:        cfg.AMQPExchange,
			RoutingPrefix:   cfg.AMQPRoutingPrefix,
			ConnectAttempts: 3,
		}, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			client = c
			res.Publisher = c
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "routing_prefix", cfg.AMQPRoutingPrefix)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return res, nil
}
