package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/layout"
)

// chdir switches into an empty directory so no stray jsonviz.yaml is found.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, cache.BackendFile, cfg.Cache.Backend)
	assert.Equal(t, cache.DefaultMemorySize, cfg.Cache.Size)
	assert.Equal(t, "TB", cfg.Layout.Direction)
	assert.Equal(t, layout.DefaultThreshold, cfg.Layout.Threshold)
	assert.Equal(t, layout.DefaultNodeSize, cfg.Layout.NodeSize())
	assert.Equal(t, 100*time.Millisecond, cfg.Worker.MinProgressInterval)
}

func TestLoad_Precedence(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "jsonviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
server:
  addr: ":9000"
  write_timeout: 5s
cache:
  backend: memory
  size: 16
layout:
  direction: LR
  threshold: 50
worker:
  min_progress_interval: 250ms
`), 0o644))

	t.Setenv("JSONVIZ_SERVER_ADDR", ":9100")
	t.Setenv("JSONVIZ_WORKER_MAX_DOCUMENT_BYTES", "1024")
	t.Setenv("JSONVIZ_CACHE_MONGO__DATABASE", "viz")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("direction", "TB", "")
	flags.Int("threshold", 0, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--direction", "RL", "--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "jsonviz.yaml", cfg.File)
	assert.Equal(t, "debug", cfg.Log.Level)                 // file
	assert.Equal(t, ":9100", cfg.Server.Addr)               // env over file
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout) // file duration
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, "viz", cfg.Cache.Mongo.Database) // nested env
	assert.Equal(t, "RL", cfg.Layout.Direction)      // flag over file
	assert.Equal(t, 50, cfg.Layout.Threshold)        // unset flag keeps file
	assert.Equal(t, 1024, cfg.Worker.MaxDocumentBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.MinProgressInterval)

	opts := cfg.PipelineOptions()
	assert.Equal(t, layout.RL, opts.Direction)
	assert.Equal(t, 50, opts.Threshold)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: none\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, cache.BackendNone, cfg.Cache.Backend)

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t)
	base, err := Load("", nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"backend", func(c *Config) { c.Cache.Backend = "s3" }, "cache.backend"},
		{"mongo uri", func(c *Config) { c.Cache.Backend = cache.BackendMongo }, "cache.mongo.uri"},
		{"redis addr", func(c *Config) { c.Cache.Backend = cache.BackendRedis }, "cache.redis"},
		{"direction", func(c *Config) { c.Layout.Direction = "up" }, "layout.direction"},
		{"threshold", func(c *Config) { c.Layout.Threshold = -1 }, "layout.threshold"},
		{"edge style", func(c *Config) { c.Layout.EdgeStyle = "wavy" }, "layout.edge_style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base.Config
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"JSONVIZ_SERVER_ADDR":               "server.addr",
		"JSONVIZ_WORKER_MAX_DOCUMENT_BYTES": "worker.max_document_bytes",
		"JSONVIZ_CACHE_REDIS__URL":          "cache.redis.url",
		"JSONVIZ_LOG_LEVEL":                 "log.level",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	l := LogConfig{Level: "warn", Format: "json"}.NewLogger(os.Stderr)
	require.NotNil(t, l)
	assert.Equal(t, "warn", l.GetLevel().String())
}
