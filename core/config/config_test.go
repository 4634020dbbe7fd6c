package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:   "123:abc",
			AdminID: 1,
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, want longpoll default", cfg.Telegram.RunMode)
	}
	if cfg.Storage.Driver != StorageFile {
		t.Fatalf("storage driver = %q, want file default", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "data/ledger.json" {
		t.Fatalf("storage path = %q, want default", cfg.Storage.Path)
	}
	if cfg.Broadcast.Workers != 4 || cfg.Broadcast.SendTimeoutMS != 5000 {
		t.Fatalf("broadcast defaults = %+v", cfg.Broadcast)
	}
}

func TestNormalizeRequiresAdmin(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.AdminID = 0
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing admin_id must fail")
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, polling alias must map to longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("webhook mode without url must fail")
	}
}

func TestNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown storage driver must fail")
	}
}

func TestNormalizePostgresRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = StoragePostgres
	if err := Normalize(cfg); err == nil {
		t.Fatal("postgres driver without host must fail")
	}
}

func TestNormalizeRejectsBadExclusion(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown exclusion kind must fail")
	}
}

func TestLoadParsesDatabaseSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
telegram:
  token: "123:abc"
  admin_id: 7
storage:
  driver: postgres
database:
  host: db.internal
  port: "5433"
  user: bot
  password: secret
  name: shadwbot
  sslmode: disable
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StoragePostgres {
		t.Fatalf("storage driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != "5433" {
		t.Fatalf("database endpoint = %s:%s", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Name != "shadwbot" || cfg.Database.SSLMode != "disable" {
		t.Fatalf("database settings = %+v", cfg.Database)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Fatalf("max_connections = %d, want normalized default 4", cfg.Database.MaxConnections)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
telegram:
  token: "123:abc"
  admin_id: 42
  username: examplebot
storage:
  driver: file
  path: /tmp/ledger.json
referral:
  reward_per_invite: 10
broadcast:
  workers: 8
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.AdminID != 42 {
		t.Fatalf("admin_id = %d, want 42", cfg.Telegram.AdminID)
	}
	if cfg.Telegram.Username != "examplebot" {
		t.Fatalf("username = %q", cfg.Telegram.Username)
	}
	if cfg.Storage.Path != "/tmp/ledger.json" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Referral.RewardPerInvite != 10 {
		t.Fatalf("reward = %d, want 10", cfg.Referral.RewardPerInvite)
	}
	if cfg.Broadcast.Workers != 8 {
		t.Fatalf("workers = %d, want 8", cfg.Broadcast.Workers)
	}
}
