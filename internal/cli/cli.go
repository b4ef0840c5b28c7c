// Package cli implements the jsonviz command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/internal/config"
	"github.com/jsonviz/jsonviz/pkg/buildinfo"
	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/httputil"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "jsonviz"

	// stdinName stands for standard input wherever a file name is expected.
	stdinName = "-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Loaded

	cfgFile string
	verbose bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI instance with a default logger. The logger is
// replaced by the configured one once a command starts.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetIO redirects the streams commands read from and write to.
func (c *CLI) SetIO(in io.Reader, out, errOut io.Writer) {
	c.stdin, c.stdout, c.stderr = in, out, errOut
	uiOut = errOut
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "jsonviz lays out JSON, YAML and TOML documents as node-link graphs",
		Long: `jsonviz turns structured documents into graphs: every object, array and
scalar becomes a node addressed by its JSON Pointer, and every parent/child
relation becomes an edge. Graphs can be laid out, rendered, streamed or
browsed interactively, and the same pipeline is served over HTTP.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: ./jsonviz.yaml, then the user config directory)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", config.DefaultLogFormat, "log format: text, json, logfmt")
	pf.String("cache", config.DefaultCacheBackend, "cache backend: none, file, memory, redis, mongo")
	pf.String("cache-dir", "", "file cache directory (default: user cache dir)")
	pf.String("redis-url", "", "redis URL for the redis cache backend")
	pf.String("mongo-uri", "", "MongoDB URI for the mongo cache backend")
	pf.String("direction", layout.TB.String(), "layout direction: TB, BT, LR, RL")
	pf.Int("threshold", layout.DefaultThreshold, "node count above which the linear layout is used")
	pf.String("edge-style", "", "edge style: default, straight, step, smoothstep")
	pf.Int("max-doc-bytes", config.DefaultMaxBodyBytes, "largest accepted document in bytes")

	// Register all subcommands
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.streamCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.pointerCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the configuration for the running command and
// installs the configured logger.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(c.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if c.verbose {
		loaded.Log.Level = "debug"
	}
	c.Config = loaded
	c.Logger = loaded.Log.NewLogger(c.stderr)
	if loaded.File != "" {
		c.Logger.Debug("loaded config", "file", loaded.File)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// config returns the loaded configuration, falling back to defaults when
// a command runs without the root pre-run.
func (c *CLI) config() *config.Config {
	if c.Config == nil {
		loaded, err := config.Load(c.cfgFile, nil)
		if err != nil {
			c.Logger.Warn("using default configuration", "err", err)
			return &config.Config{}
		}
		c.Config = loaded
	}
	return c.Config.Config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache opens the configured backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache {
		cfg.Backend = cache.BackendNone
	}
	cc, err := cache.Open(ctx, cfg)
	if err != nil {
		if cfg.Backend == cache.BackendFile {
			c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return cc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: the configured one, or the
// per-user default (~/.cache/jsonviz/ on Linux).
func (c *CLI) cacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Input and Output
// =============================================================================

// readInput reads a document from path, from stdin when path is empty or
// "-", or over HTTP when path is a URL. An empty format is detected from
// the file extension, or from the response Content-Type for URLs.
func (c *CLI) readInput(ctx context.Context, path, format string) ([]byte, document.Format, error) {
	var (
		data     []byte
		detected document.Format
		err      error
	)
	switch {
	case path == "" || path == stdinName:
		data, err = io.ReadAll(c.stdin)
		detected = document.FormatJSON
	case httputil.IsURL(path):
		var doc *httputil.Document
		fetcher := httputil.NewFetcher(nil, httputil.WithMaxBytes(int64(c.config().Worker.MaxDocumentBytes)))
		if doc, err = fetcher.Fetch(ctx, path); err == nil {
			data, detected = doc.Data, doc.Format
		}
	default:
		data, err = os.ReadFile(path)
		detected = document.DetectFormat(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", inputName(path), err)
	}

	if format == "" {
		return data, detected, nil
	}
	f, err := document.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}
	return data, f, nil
}

// openOutput opens path for writing. An empty path or "-" writes to stdout.
func (c *CLI) openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == stdinName {
		return nopCloser{c.stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func inputName(path string) string {
	if path == "" || path == stdinName {
		return "stdin"
	}
	return path
}

// basePath derives the base output path from the output and input file
// paths. Known format extensions on output are stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == stdinName {
			return appName
		}
		if httputil.IsURL(input) {
			input = urlBase(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// urlBase returns the last path segment of a document URL, or appName when
// the URL has no usable path.
func urlBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return appName
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return appName
	}
	return name
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the per-command layout options shared by layout, render
// and serve.
type layoutFlags struct {
	arrow         bool
	animated      bool
	collapsed     []string
	collapseDepth int
	noCache       bool
	refresh       bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.arrow, "arrow", false, "draw arrowheads on edges")
	cmd.Flags().BoolVar(&f.animated, "animated", false, "mark edges as animated")
	cmd.Flags().StringSliceVar(&f.collapsed, "collapse", nil, "collapse the node with this pointer (repeatable)")
	cmd.Flags().IntVar(&f.collapseDepth, "collapse-depth", 0, "collapse every container at this depth (0 disables)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// pipelineOptions builds pipeline options from the configuration and the
// command's flags.
func (c *CLI) pipelineOptions(input string, format document.Format, f layoutFlags) pipeline.Options {
	opts := c.config().PipelineOptions()
	opts.Format = format
	opts.Source = inputName(input)
	opts.Arrow = f.arrow
	opts.Animated = f.animated
	opts.Collapsed = f.collapsed
	opts.CollapseDepth = f.collapseDepth
	opts.Refresh = f.refresh
	opts.Logger = c.Logger
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
