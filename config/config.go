package config

import (
	"fmt"
	"os"
	"strconv"

	"taskboard/pkg/config"
	"taskboard/pkg/otel"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | postgres
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Config taskboard 服务配置
type Config struct {
	Server  config.ServerConfig `yaml:"server"`
	Storage StorageConfig       `yaml:"storage"`
	DB      config.DBConfig     `yaml:"db"`
	Redis   config.RedisConfig  `yaml:"redis"`
	MQ      config.MQConfig     `yaml:"mq"`
	OTel    otel.Config         `yaml:"otel"`
	Seed    SeedConfig          `yaml:"seed"`
	Log     LogConfig           `yaml:"log"`
}

// Load 使用统一配置中心加载 base.yaml + <env>.yaml，再用环境变量覆盖（优先级最高）
func Load(env, configDir string) (*Config, error) {
	var cfg Config
	if err := config.Decode(env, configDir, &cfg); err != nil {
		return nil, err
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	overrideFromEnv(&cfg)

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Storage.Driver != StorageMemory && cfg.Storage.Driver != StoragePostgres {
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "taskboard"
	}

	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if seed := os.Getenv("SEED_ENABLED"); seed != "" {
		if v, err := strconv.ParseBool(seed); err == nil {
			cfg.Seed.Enabled = v
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.OTel.Endpoint = endpoint
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			cfg.OTel.Enabled = v
		}
	}
}
