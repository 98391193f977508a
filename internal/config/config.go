package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/deskvisor/internal/logger"
	"github.com/loykin/deskvisor/internal/worker"
)

// EnvPrefix namespaces environment overrides, e.g. DESKVISOR_SERVER_LISTEN.
const EnvPrefix = "DESKVISOR"

// Config represents the top-level TOML structure.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     logger.Config `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AppConfig struct {
	Name          string        `mapstructure:"name"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// WorkerConfig overrides the built-in launch of the backend worker.
type WorkerConfig struct {
	Name      string            `mapstructure:"name"`
	Script    string            `mapstructure:"script"`
	Args      []string          `mapstructure:"args"`
	WorkDir   string            `mapstructure:"work_dir"`
	Env       []string          `mapstructure:"env"`
	EnvFiles  []string          `mapstructure:"env_files"`
	Launchers map[string]string `mapstructure:"launchers"`
}

type ServerConfig struct {
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "deskvisor")
	v.SetDefault("app.shutdown_grace", "3s")
	v.SetDefault("worker.name", "backend")
	v.SetDefault("worker.script", "")
	v.SetDefault("worker.work_dir", "")
	v.SetDefault("server.listen", "127.0.0.1:1430")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("log.level", string(logger.LevelInfo))
	v.SetDefault("log.format", string(logger.FormatText))
	v.SetDefault("log.color", true)
	v.SetDefault("log.timestamps", true)
	v.SetDefault("log.source", false)
	v.SetDefault("log.file.dir", "")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("metrics.enabled", true)
}

// Load reads the TOML file at path over the defaults. An empty path
// yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.App.ShutdownGrace < 0 {
		errs = append(errs, fmt.Errorf("app.shutdown_grace must not be negative"))
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		errs = append(errs, fmt.Errorf("server.listen is required"))
	}
	if _, err := logger.ParseLevel(string(c.Log.Slog.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Slog.Format {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Slog.Format))
	}
	if c.History.Enabled && strings.TrimSpace(c.History.DSN) == "" {
		errs = append(errs, fmt.Errorf("history.dsn is required when history is enabled"))
	}
	for k, v := range c.Worker.Launchers {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("worker.launchers.%s must not be empty", k))
		}
	}
	return errors.Join(errs...)
}

// Launch resolves the worker invocation for the running platform. Env
// files are applied in order, then the inline env list overrides them.
func (c *Config) Launch() (worker.Launch, error) {
	env, err := c.Worker.ResolveEnv()
	if err != nil {
		return worker.Launch{}, err
	}
	return worker.ResolveHost(worker.Overrides{
		Name:      c.Worker.Name,
		Launchers: c.Worker.Launchers,
		Script:    c.Worker.Script,
		Args:      c.Worker.Args,
		WorkDir:   c.Worker.WorkDir,
		Env:       env,
	}), nil
}

// ResolveEnv merges env_files contents and the env list into KEY=VALUE
// entries sorted by key. The result is layered over the host environment
// when the worker is spawned.
func (w WorkerConfig) ResolveEnv() ([]string, error) {
	if len(w.EnvFiles) == 0 && len(w.Env) == 0 {
		return nil, nil
	}
	m := make(map[string]string)
	for _, p := range w.EnvFiles {
		pairs, err := loadEnvFile(p)
		if err != nil {
			return nil, fmt.Errorf("worker.env_files: %w", err)
		}
		for k, v := range pairs {
			m[k] = v
		}
	}
	for _, kv := range w.Env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(m))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out, nil
}

// loadEnvFile parses a simple .env file with KEY=VALUE lines (no export, no quotes). Lines starting with # are ignored.
func loadEnvFile(path string) (map[string]string, error) {
	// Mitigate G304: sanitize user-provided path by cleaning it before use.
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}
