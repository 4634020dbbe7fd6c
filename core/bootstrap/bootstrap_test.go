package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/mehradnfi/shadwbot/core/config"
	coredatabase "github.com/mehradnfi/shadwbot/core/database"
)

func fileConfig(path string) *coreconfig.Config {
	return &coreconfig.Config{
		Storage: coreconfig.StorageConfig{
			Driver: coreconfig.StorageFile,
			Path:   path,
		},
	}
}

func TestRunLoadsFileEngine(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "ledger.json"))
	res, err := Run(Options{
		Config:     cfg,
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Engine.Close()
	if res.Store == nil {
		t.Fatal("store must be initialized")
	}
	if got := res.Store.Len(); got != 0 {
		t.Fatalf("fresh ledger has %d users, want 0", got)
	}
}

func TestBuildEnginePostgresUsesConfigSection(t *testing.T) {
	cfg := fileConfig("")
	cfg.Storage.Driver = coreconfig.StoragePostgres
	cfg.Database = coreconfig.DatabaseConfig{
		Host:           "db.internal",
		Port:           "5433",
		User:           "bot",
		Password:       "secret",
		Name:           "shadwbot",
		SSLMode:        "disable",
		MaxConnections: 8,
	}

	var connected, migrated coredatabase.Config
	engine, err := buildEngine(cfg, Options{
		Connect: func(c coredatabase.Config) (*sqlx.DB, error) {
			connected = c
			return nil, nil
		},
		Migrate: func(c coredatabase.Config) error {
			migrated = c
			return nil
		},
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	if engine == nil {
		t.Fatal("want a postgres engine")
	}

	want := coredatabase.Config{
		Host:           "db.internal",
		Port:           "5433",
		User:           "bot",
		Password:       "secret",
		Name:           "shadwbot",
		SSLMode:        "disable",
		MaxConnections: 8,
	}
	if connected != want {
		t.Fatalf("connect settings = %+v, want %+v", connected, want)
	}
	if migrated != want {
		t.Fatalf("migrate settings = %+v, want %+v", migrated, want)
	}
}
