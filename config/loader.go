// Package config provides unified configuration loading for the memory
// engine: defaults, an optional YAML file, and environment variable
// overrides, in that order of precedence.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("memoripy.yaml").
//	    WithEnvPrefix("MEMORIPY").
//	    Load()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ethanturk-incycle/memoripy/memory"
	"github.com/ethanturk-incycle/memoripy/persistence"
)

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is json or console.
	Format string `yaml:"format" json:"format"`
}

// Config is the complete configuration of the memory engine.
type Config struct {
	// Memory is the per-set engine configuration.
	Memory memory.Config `yaml:"memory" json:"memory"`

	// Context configures prompt-context assembly.
	Context memory.ContextBuilderConfig `yaml:"context" json:"context"`

	// Persistence selects and configures the snapshot backend.
	Persistence persistence.Config `yaml:"persistence" json:"persistence"`

	// Log configures logging.
	Log LogConfig `yaml:"log" json:"log"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Memory:      memory.DefaultConfig(),
		Context:     memory.DefaultContextBuilderConfig(),
		Persistence: persistence.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Loader loads configuration with defaults → YAML file → env overrides.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{envPrefix: "MEMORIPY"}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults and env overrides still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix (default MEMORIPY).
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the effective configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides the settings commonly tuned per deployment.
func (l *Loader) applyEnv(cfg *Config) error {
	var err error

	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_FORMAT", &cfg.Log.Format)

	if e := l.envInt("SHORT_TERM_CAPACITY", &cfg.Memory.ShortTermCapacity); e != nil {
		err = e
	}
	if e := l.envFloat("PROMOTION_THRESHOLD", &cfg.Memory.Scoring.PromotionThreshold); e != nil {
		err = e
	}
	if e := l.envDuration("DECAY_HALF_LIFE", &cfg.Memory.Scoring.HalfLife); e != nil {
		err = e
	}
	if e := l.envInt("CONTEXT_TOKEN_BUDGET", &cfg.Context.TokenBudget); e != nil {
		err = e
	}

	var gatewayType string
	l.envString("PERSISTENCE_TYPE", &gatewayType)
	if gatewayType != "" {
		cfg.Persistence.Type = persistence.GatewayType(gatewayType)
	}
	l.envString("PERSISTENCE_BASE_DIR", &cfg.Persistence.BaseDir)
	l.envString("PERSISTENCE_PATH", &cfg.Persistence.Path)
	l.envString("REDIS_HOST", &cfg.Persistence.Redis.Host)
	if e := l.envInt("REDIS_PORT", &cfg.Persistence.Redis.Port); e != nil {
		err = e
	}
	l.envString("REDIS_PASSWORD", &cfg.Persistence.Redis.Password)
	l.envString("MONGO_URI", &cfg.Persistence.Mongo.URI)
	l.envString("MONGO_DATABASE", &cfg.Persistence.Mongo.Database)

	return err
}

func (l *Loader) envName(key string) string {
	return l.envPrefix + "_" + key
}

func (l *Loader) envString(key string, out *string) {
	if v, ok := os.LookupEnv(l.envName(key)); ok && v != "" {
		*out = v
	}
}

func (l *Loader) envInt(key string, out *int) error {
	v, ok := os.LookupEnv(l.envName(key))
	if !ok || v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", l.envName(key), err)
	}
	*out = parsed
	return nil
}

func (l *Loader) envFloat(key string, out *float64) error {
	v, ok := os.LookupEnv(l.envName(key))
	if !ok || v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", l.envName(key), err)
	}
	*out = parsed
	return nil
}

func (l *Loader) envDuration(key string, out *time.Duration) error {
	v, ok := os.LookupEnv(l.envName(key))
	if !ok || v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", l.envName(key), err)
	}
	*out = parsed
	return nil
}
