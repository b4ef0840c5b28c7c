// Package config loads jsonviz settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
//
// Environment variables use the JSONVIZ_ prefix and name the section first:
// JSONVIZ_SERVER_ADDR sets server.addr and JSONVIZ_WORKER_MAX_DOCUMENT_BYTES
// sets worker.max_document_bytes. Nested sections use a double underscore:
// JSONVIZ_CACHE_REDIS__URL sets cache.redis.url.
package config

import (
	"time"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/worker"
)

// Default values. Everything else defaults to the owning package's zero
// value handling.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 64 << 20
	DefaultCacheBackend    = cache.BackendFile
)

// Config is the complete jsonviz configuration.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	Cache  cache.Config `koanf:"cache"`
	Layout LayoutConfig `koanf:"layout"`
	Worker WorkerConfig `koanf:"worker"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json, logfmt
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	AllowedOrigins  []string      `koanf:"allowed_origins"` // websocket origins; empty allows same-origin only
}

// LayoutConfig holds layout defaults for the CLI and the HTTP API.
type LayoutConfig struct {
	Direction  string  `koanf:"direction"`
	Threshold  int     `koanf:"threshold"`
	EdgeStyle  string  `koanf:"edge_style"`
	NodeWidth  float64 `koanf:"node_width"`
	NodeHeight float64 `koanf:"node_height"`
}

// WorkerConfig tunes streaming workers.
type WorkerConfig struct {
	CheckpointEvery     int           `koanf:"checkpoint_every"`
	MinProgressInterval time.Duration `koanf:"min_progress_interval"`
	LargeDataLabelLimit int           `koanf:"large_data_label_limit"`
	MaxDocumentBytes    int           `koanf:"max_document_bytes"`
	History             int           `koanf:"history"`
}

// defaults returns the base layer loaded before any file, env or flag.
func defaults() map[string]any {
	return map[string]any{
		"log.level":                     DefaultLogLevel,
		"log.format":                    DefaultLogFormat,
		"server.addr":                   DefaultAddr,
		"server.read_timeout":           DefaultReadTimeout,
		"server.write_timeout":          DefaultWriteTimeout,
		"server.shutdown_timeout":       DefaultShutdownTimeout,
		"server.max_body_bytes":         DefaultMaxBodyBytes,
		"cache.backend":                 DefaultCacheBackend,
		"cache.size":                    cache.DefaultMemorySize,
		"cache.mongo.database":          cache.DefaultMongoDatabase,
		"cache.mongo.collection":        cache.DefaultMongoCollection,
		"layout.direction":              layout.TB.String(),
		"layout.threshold":              layout.DefaultThreshold,
		"layout.node_width":             layout.DefaultNodeSize.Width,
		"layout.node_height":            layout.DefaultNodeSize.Height,
		"worker.checkpoint_every":       worker.DefaultCheckpointEvery,
		"worker.min_progress_interval":  worker.DefaultMinProgressInterval,
		"worker.large_data_label_limit": worker.DefaultLargeDataLabelLimit,
		"worker.max_document_bytes":     DefaultMaxBodyBytes,
		"worker.history":                worker.DefaultHistory,
	}
}

// NodeSize returns the configured node box.
func (c LayoutConfig) NodeSize() layout.Size {
	return layout.Size{Width: c.NodeWidth, Height: c.NodeHeight}
}

// WorkerConfig converts the settings into a [worker.Config]. Zero fields
// keep the worker defaults.
func (c WorkerConfig) WorkerConfig() worker.Config {
	return worker.Config{
		CheckpointEvery:     c.CheckpointEvery,
		MinProgressInterval: c.MinProgressInterval,
		LargeDataLabelLimit: c.LargeDataLabelLimit,
		MaxDocumentBytes:    c.MaxDocumentBytes,
		History:             c.History,
	}
}
