package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/errors"
	jsonio "github.com/jsonviz/jsonviz/pkg/io"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/observability"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger: it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → tree → layout → render pipeline on
// data with caching.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Parse and build the tree map
	parseStart := time.Now()
	m, treeHit, err := r.TreeWithCacheInfo(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	result.Tree = m
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = m.Len()
	result.Stats.EdgeCount = max(m.Len()-1, 0)
	result.CacheInfo.TreeHit = treeHit

	treeData, err := jsonio.MarshalMap(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize tree map")
	}
	result.TreeHash = cache.Hash(treeData)

	r.Logger.Info("built tree",
		"source", opts.Source,
		"nodes", m.Len(),
		"cached", treeHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.layoutWithHash(ctx, m, result.TreeHash, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleNodes = len(res.Nodes)
	result.Stats.Algorithm = res.Algorithm
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"algorithm", res.Algorithm,
		"visible", len(res.Nodes),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// TreeWithCacheInfo parses data and builds its tree map with caching, and
// returns cache hit info.
func (r *Runner) TreeWithCacheInfo(ctx context.Context, data []byte, opts Options) (m *tree.Map, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, string(opts.Format), opts.Source)
	start := time.Now()
	defer func() {
		n := 0
		if m != nil {
			n = m.Len()
		}
		hooks.OnParseComplete(ctx, string(opts.Format), opts.Source, n, time.Since(start), err)
	}()

	cacheKey := r.Keyer.TreeKey(cache.Hash(data), opts.TreeKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.get(ctx, cacheKey); ok {
			if m, err := jsonio.UnmarshalMap(cached); err == nil {
				return m, true, nil
			}
			r.Logger.Debug("discarding unreadable cached tree", "key", cacheKey)
		}
	}

	doc, err := Parse(data, opts)
	if err != nil {
		return nil, false, err
	}
	m, err = BuildTree(doc, opts)
	if err != nil {
		return nil, false, err
	}

	if encoded, err := jsonio.MarshalMap(m); err == nil {
		r.set(ctx, cacheKey, encoded, cache.TTLTree)
	}
	return m, false, nil
}

// Tree is a convenience wrapper that calls TreeWithCacheInfo and discards the cache hit info.
func (r *Runner) Tree(ctx context.Context, data []byte, opts Options) (*tree.Map, error) {
	m, _, err := r.TreeWithCacheInfo(ctx, data, opts)
	return m, err
}

// LayoutWithCacheInfo computes the layout of m with caching and returns
// cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, m *tree.Map, opts Options) (layout.Result, bool, error) {
	treeData, err := jsonio.MarshalMap(m)
	if err != nil {
		return layout.Result{}, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize tree map")
	}
	return r.layoutWithHash(ctx, m, cache.Hash(treeData), opts)
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, m *tree.Map, opts Options) (layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, m, opts)
	return res, err
}

func (r *Runner) layoutWithHash(ctx context.Context, m *tree.Map, treeHash string, opts Options) (res layout.Result, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Direction.String(), m.Len())
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, string(res.Algorithm), time.Since(start), err)
	}()

	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.get(ctx, cacheKey); ok {
			if res, err := jsonio.UnmarshalLayout(cached); err == nil {
				return res, true, nil
			}
		}
	}

	res, err = ComputeLayout(m, opts)
	if err != nil {
		return layout.Result{}, false, err
	}

	if encoded, err := jsonio.MarshalLayout(res); err == nil {
		r.set(ctx, cacheKey, encoded, cache.TTLLayout)
	}
	return res, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res layout.Result, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := jsonio.MarshalLayout(res)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts = make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, ok := r.get(ctx, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)))
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := RenderFromLayout(ctx, res, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.set(ctx, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res layout.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads a cache entry. Cache failures are logged and count as misses.
func (r *Runner) get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

// set writes a cache entry. Cache failures are logged and otherwise ignored.
func (r *Runner) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
