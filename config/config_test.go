package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadShippedLocalConfig(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SEED_ENABLED", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load("local", ".")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Fatalf("expected local overlay to select memory storage, got %q", cfg.Storage.Driver)
	}
	if cfg.Log.Level != "debug" || !cfg.Seed.Enabled {
		t.Fatalf("unexpected log/seed config: %+v %+v", cfg.Log, cfg.Seed)
	}
	if cfg.Server.Port != ":8080" || cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.DB.MaxConns != 10 || cfg.Redis.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected db/redis config: %+v %+v", cfg.DB, cfg.Redis)
	}
	if cfg.MQ.Exchange != "taskboard.events" || cfg.OTel.ServiceName != "taskboard" {
		t.Fatalf("unexpected mq/otel config: %+v %+v", cfg.MQ, cfg.OTel)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "storage:\n  driver: memory\nseed:\n  enabled: true\n")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load("", dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StoragePostgres || cfg.Seed.Enabled {
		t.Fatalf("expected env overrides, got %+v %+v", cfg.Storage, cfg.Seed)
	}
	if cfg.Server.Port != ":9999" || !cfg.OTel.Enabled {
		t.Fatalf("expected env overrides, got %+v %+v", cfg.Server, cfg.OTel)
	}
}

func TestLoadDefaultsAndUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")

	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "log:\n  level: warn\n")
	cfg, err := Load("", dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StorageMemory || cfg.Server.Port != ":8080" {
		t.Fatalf("expected defaults, got %+v %+v", cfg.Storage, cfg.Server)
	}

	writeConfig(t, dir, "base.yaml", "storage:\n  driver: sqlite\n")
	if _, err := Load("", dir); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
