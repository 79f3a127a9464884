package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

type testConfig struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
}

func TestDecodeMergesEnvironmentAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
  shutdown_timeout: 30s
db:
  host: localhost
  port: 5432
  user: app
  password: ${DB_SECRET}
  name: tasks
redis:
  cache_ttl: 1m
`)
	writeFile(t, dir, "production.yaml", `
db:
  host: db.internal
`)
	writeFile(t, dir, "secrets.env", `
# comment
DB_SECRET="s3cret"
`)

	var cfg testConfig
	if err := Decode("production", dir, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Fatalf("expected env overlay to win, got %q", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 || cfg.DB.User != "app" {
		t.Fatalf("expected base values to survive merge, got %+v", cfg.DB)
	}
	if cfg.DB.Password != "s3cret" {
		t.Fatalf("expected secret substitution, got %q", cfg.DB.Password)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second || cfg.Redis.CacheTTL != time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.Server.ShutdownTimeout, cfg.Redis.CacheTTL)
	}
}

func TestDecodeMissingEnvFileFallsBackToBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":9000\"\n")

	var cfg testConfig
	if err := Decode("staging", dir, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Server.Port != ":9000" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
}

func TestDecodeSystemEnvPlaceholder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "redis:\n  addr: ${TASKBOARD_TEST_REDIS}\n")
	t.Setenv("TASKBOARD_TEST_REDIS", "cache:6379")

	var cfg testConfig
	if err := Decode("", dir, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("expected system env substitution, got %q", cfg.Redis.Addr)
	}
}

func TestLoadConfigRequiresBase(t *testing.T) {
	if _, err := LoadConfig("local", t.TempDir()); err == nil {
		t.Fatal("expected error without base.yaml")
	}
}

func TestOverrideDBFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_SSLMODE", "")

	cfg := DBConfig{Host: "localhost", Port: 5432, Name: "tasks"}
	OverrideDBFromEnv(&cfg)
	if cfg.Host != "pg" || cfg.Port != 6543 || cfg.Name != "tasks" {
		t.Fatalf("unexpected override result: %+v", cfg)
	}
	if got := cfg.DSN(); got != "postgres://:@pg:6543/tasks?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}
}
