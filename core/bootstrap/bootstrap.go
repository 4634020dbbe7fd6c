// Package bootstrap initializes infrastructure in dependency order: logger,
// persistence engine, and the in-memory ledger store loaded from it.
package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/mehradnfi/shadwbot/core/config"
	coredatabase "github.com/mehradnfi/shadwbot/core/database"
	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"github.com/mehradnfi/shadwbot/core/storage"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Engine storage.Engine
	Store  *ledger.Store
}

// Run initializes the logger, opens the configured persistence engine, and
// loads the ledger document into a store.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	engine, err := buildEngine(cfg, opts)
	if err != nil {
		return nil, err
	}

	doc, err := engine.Load()
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("bootstrap: ledger load failed: %w", err)
	}

	return &Result{
		Engine: engine,
		Store:  ledger.NewStore(engine, doc),
	}, nil
}

func buildEngine(cfg *coreconfig.Config, opts Options) (storage.Engine, error) {
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		dbCfg := databaseConfig(cfg)

		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(dbCfg); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return storage.NewPostgresEngine(db), nil

	case coreconfig.StorageFile:
		engine, err := storage.NewFileEngine(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: file engine init failed: %w", err)
		}
		return engine, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown storage driver %q", cfg.Storage.Driver)
	}
}

// databaseConfig maps the application config section onto the database
// package's own settings type.
func databaseConfig(cfg *coreconfig.Config) coredatabase.Config {
	return coredatabase.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Name:           cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: cfg.Database.MaxConnections,
	}
}
