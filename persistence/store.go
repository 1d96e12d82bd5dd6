// Package persistence provides checkpoint store backends for the workflow
// engine.
//
// A checkpoint is the {state, pending node} snapshot the engine persists when
// an instance suspends at an interrupt point; it must survive process
// restarts for true human-in-the-loop use.
//
// Supported backends:
// - Memory: for development and testing (default)
// - File: for single-node production deployments
// - SQLite: embedded durable storage for single-node deployments
// - Redis: for distributed production deployments (with per-instance leases)
package persistence

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
	ErrLeaseHeld    = errors.New("instance lease held by another owner")
)

// StoreType represents the type of storage backend
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeRedis  StoreType = "redis"
)

// StoreConfig is the base configuration for all store implementations
type StoreConfig struct {
	// Type is the storage backend type
	Type StoreType `json:"type" yaml:"type"`

	// BaseDir is the base directory for file-based storage
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	// Redis configuration (only used when Type is "redis")
	Redis RedisStoreConfig `json:"redis" yaml:"redis"`

	// LeaseTTL bounds how long a crashed process can hold an instance lease
	LeaseTTL time.Duration `json:"lease_ttl" yaml:"lease_ttl"`
}

// RedisStoreConfig contains Redis-specific configuration
type RedisStoreConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string `json:"addr" yaml:"addr"`

	// Password is the Redis password (optional)
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number
	DB int `json:"db" yaml:"db"`

	// PoolSize is the connection pool size
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// KeyPrefix is the prefix for all Redis keys
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// DefaultStoreConfig returns the default store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type:       StoreTypeMemory,
		BaseDir:    "./data/checkpoints",
		SQLitePath: "./data/insightflow.db",
		Redis: RedisStoreConfig{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "insightflow:",
		},
		LeaseTTL: 5 * time.Minute,
	}
}
