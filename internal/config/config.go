// Package config loads server configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ExecutorConfig holds the execution pipeline settings.
type ExecutorConfig struct {
	ScratchDir        string        `mapstructure:"scratch_dir"`
	CompileTimeout    time.Duration `mapstructure:"compile_timeout"`
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
}

// SandboxConfig selects the toolchain runner.
type SandboxConfig struct {
	// Mode is "host" (direct execution, the reference behavior) or
	// "docker" (isolated containers).
	Mode string `mapstructure:"mode"`

	// Memory is the container memory limit, docker mode only.
	Memory string `mapstructure:"memory"`
}

// StorageConfig holds run history and transcript locations.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
	LogDir string `mapstructure:"log_dir"`
}

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// Load reads collabd.yaml from the working directory when present and
// applies COLLABD_* environment overrides. A missing config file is not an
// error; every setting has a default.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("collabd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COLLABD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("executor.scratch_dir", "temp_code_executions")
	v.SetDefault("executor.compile_timeout", "5s")
	v.SetDefault("executor.run_timeout", "10s")
	v.SetDefault("executor.max_concurrent_runs", 0)
	v.SetDefault("sandbox.mode", "host")
	v.SetDefault("sandbox.memory", "256m")
	v.SetDefault("storage.db_path", "data/runs.db")
	v.SetDefault("storage.log_dir", "data/transcripts")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// The reference deployment configures the port through a bare PORT
	// variable; keep honoring it.
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Sandbox.Mode != "host" && c.Sandbox.Mode != "docker" {
		return fmt.Errorf("invalid sandbox mode %q (want host or docker)", c.Sandbox.Mode)
	}
	if c.Executor.CompileTimeout <= 0 || c.Executor.RunTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
