package config

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/pipeline"
)

var (
	logFormats    = []string{"text", "json", "logfmt"}
	cacheBackends = []string{"", cache.BackendNone, cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendMongo}
)

// Validate checks the configuration for values no component would accept.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("log.format: %q is not one of text, json, logfmt", c.Log.Format)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend: %q is not one of none, file, memory, redis, mongo", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendMongo && c.Cache.Mongo.URI == "" {
		return fmt.Errorf("cache.mongo.uri is required for the mongo backend")
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.Redis.URL == "" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.url or cache.redis.addr is required for the redis backend")
	}
	if _, err := layout.ParseDirection(c.Layout.Direction); err != nil {
		return fmt.Errorf("layout.direction: %w", err)
	}
	if c.Layout.Threshold < 0 {
		return fmt.Errorf("layout.threshold must not be negative")
	}
	if err := pipeline.ValidateEdgeStyle(layout.EdgeStyle(c.Layout.EdgeStyle)); err != nil {
		return fmt.Errorf("layout.edge_style: %w", err)
	}
	if c.Layout.NodeWidth < 0 || c.Layout.NodeHeight < 0 {
		return fmt.Errorf("layout node size must not be negative")
	}
	if c.Worker.MaxDocumentBytes < 0 {
		return fmt.Errorf("worker.max_document_bytes must not be negative")
	}
	return nil
}

// ParsedDirection returns the layout direction. Call after Validate.
func (c LayoutConfig) ParsedDirection() layout.Direction {
	d, _ := layout.ParseDirection(c.Direction)
	return d
}

// PipelineOptions returns pipeline options seeded with the layout defaults.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Direction:        c.Layout.ParsedDirection(),
		Threshold:        c.Layout.Threshold,
		EdgeStyle:        layout.EdgeStyle(c.Layout.EdgeStyle),
		NodeSize:         c.Layout.NodeSize(),
		MaxDocumentBytes: c.Worker.MaxDocumentBytes,
	}
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	switch c.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter,
	})
}
