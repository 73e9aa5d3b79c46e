// Package persistence provides snapshot persistence gateways for tiered
// memory state.
//
// The memory core treats persistence as whole-state snapshot/restore: a
// gateway loads and saves the short-term and long-term record sequences of
// one memory set. Incremental sync strategy is the gateway's concern.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - File: JSON snapshots for single-node deployments
//   - Redis: for distributed deployments
//   - Mongo: document store, one document per record
//   - SQLite: embedded SQL storage via GORM
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ethanturk-incycle/memoripy/types"
)

// Common errors
var (
	ErrStoreClosed  = errors.New("gateway is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// GatewayType represents the type of persistence backend.
type GatewayType string

const (
	GatewayTypeMemory GatewayType = "memory"
	GatewayTypeFile   GatewayType = "file"
	GatewayTypeRedis  GatewayType = "redis"
	GatewayTypeMongo  GatewayType = "mongo"
	GatewayTypeSQLite GatewayType = "sqlite"
)

// Gateway is the persistence contract the memory core depends on. Load on a
// set with no prior history returns two empty sequences, never an error.
// Failures are surfaced to the caller as PERSISTENCE errors; retry/backoff
// policy belongs to the gateway or the orchestration layer, never the core.
type Gateway interface {
	// Load restores the full tiered state of one memory set.
	Load(ctx context.Context, setID string) (short, long []*types.MemoryRecord, err error)

	// Save persists the full tiered state of one memory set, replacing any
	// previously saved state.
	Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error

	// Ping checks if the gateway is healthy.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// RedisConfig configures the Redis gateway.
type RedisConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	PoolSize  int    `json:"pool_size" yaml:"pool_size"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// MongoConfig configures the Mongo gateway.
type MongoConfig struct {
	URI        string        `json:"uri" yaml:"uri"`
	Database   string        `json:"database" yaml:"database"`
	Collection string        `json:"collection" yaml:"collection"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// Config selects and configures a persistence backend.
type Config struct {
	// Type selects the backend (default: memory).
	Type GatewayType `json:"type" yaml:"type"`

	// BaseDir is the data directory for the file backend.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// Path is the database file for the sqlite backend.
	Path string `json:"path" yaml:"path"`

	Redis RedisConfig `json:"redis" yaml:"redis"`
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`
}

// DefaultConfig returns the default persistence configuration.
func DefaultConfig() Config {
	return Config{
		Type:    GatewayTypeMemory,
		BaseDir: "./data",
		Path:    "memoripy.db",
		Redis: RedisConfig{
			Host:      "localhost",
			Port:      6379,
			PoolSize:  10,
			KeyPrefix: "memoripy:",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "memoripy",
			Collection: "memory_store",
			Timeout:    5 * time.Second,
		},
	}
}
