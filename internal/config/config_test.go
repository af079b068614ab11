package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range []string{"PORT", "JWT_SECRET", "DATABASE_URL", "SQLITE_PATH", "STORAGE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
auth:
  secret: s3cret
  token_ttl: 24h
storage:
  driver: sqlite
sqlite:
  path: /tmp/practice.db
questions:
  ttl: 5m
leaderboard:
  size: 5
  refresh_interval: 30s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Auth.Secret != "s3cret" {
		t.Fatalf("unexpected server/auth: %+v", cfg)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.SQLite.Path != "/tmp/practice.db" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Leaderboard.Size != 5 {
		t.Fatalf("expected leaderboard size 5, got %d", cfg.Leaderboard.Size)
	}
	if got := TTLDuration(cfg.Questions.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", got)
	}
	if cfg.Auth.Issuer == "" {
		t.Fatalf("expected default issuer")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: from-file\n")
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://localhost/practice")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Auth.Secret != "from-env" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver inferred from DATABASE_URL, got %s", cfg.Storage.Driver)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected redis addr from env, got %q", cfg.Redis.Addr)
	}
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	dir := filepath.Dir(writeConfig(t, ""))
	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Driver != DriverMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: s\nstorage:\n  driver: mongo\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	path = writeConfig(t, "storage:\n  driver: memory\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %s", got)
	}
	if got := TTLDuration("0", time.Minute); got != 0 {
		t.Fatalf("expected explicit zero to disable caching, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
