// Package pipeline provides the document visualization pipeline for jsonviz.
//
// This package implements the complete parse → tree → layout → render
// pipeline shared by the CLI and the HTTP API. By centralizing this logic,
// every entry point lays out and caches documents the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: decode a JSON, YAML or TOML document
//  2. Tree: build the flat tree map keyed by JSON Pointer
//  3. Layout: position every node, then hide collapsed subtrees
//  4. Render: produce artifacts (layout JSON, DOT, SVG, PNG, PDF)
//
// Each stage can be run on its own or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Format:    document.FormatJSON,
//	    Direction: layout.LR,
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidEdgeStyles is the set of supported edge styles.
var ValidEdgeStyles = map[layout.EdgeStyle]bool{
	layout.EdgeStyleBezier:     true,
	layout.EdgeStyleStraight:   true,
	layout.EdgeStyleStep:       true,
	layout.EdgeStyleSmoothStep: true,
}

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = FormatJSON

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultMaxDocumentBytes bounds documents accepted by the pipeline.
	DefaultMaxDocumentBytes = 64 << 20
)

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Format           document.Format `json:"format,omitempty"`
	Source           string          `json:"source,omitempty"` // name used in logs and hooks
	SourceLines      bool            `json:"source_lines,omitempty"`
	MaxDocumentBytes int             `json:"-"`

	// Layout options
	Direction     layout.Direction `json:"direction"`
	Threshold     int              `json:"threshold,omitempty"`
	EdgeStyle     layout.EdgeStyle `json:"edge_style,omitempty"`
	Animated      bool             `json:"animated,omitempty"`
	Arrow         bool             `json:"arrow,omitempty"`
	NodeSize      layout.Size      `json:"node_size,omitempty"`
	Collapsed     []string         `json:"collapsed,omitempty"`
	CollapseDepth int              `json:"collapse_depth,omitempty"` // collapse every container at this depth; 0 disables

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Refresh bool        `json:"-"`
	Logger  *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the tree map built from the document.
	Tree *tree.Map

	// TreeHash is the content hash of the serialized tree map.
	TreeHash string

	// Layout is the positioned result after collapsed subtrees were hidden.
	Layout layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	VisibleNodes int
	Algorithm    layout.Algorithm
	ParseTime    time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TreeHit   bool // Whether the tree map came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEdgeStyle checks that an edge style is valid. The empty style is
// the default bezier curve.
func ValidateEdgeStyle(style layout.EdgeStyle) error {
	if style != "" && !ValidEdgeStyles[style] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid edge style: %q (must be one of: default, straight, step, smoothstep)", style)
	}
	return nil
}

// ValidateAndSetDefaults checks every field and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks the parse options and applies their defaults.
func (o *Options) ValidateForParse() error {
	f, err := document.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = f
	if o.MaxDocumentBytes == 0 {
		o.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	o.setLogger()
	return nil
}

// ValidateForLayout checks the layout options and applies their defaults.
func (o *Options) ValidateForLayout() error {
	if !slices.Contains(layout.Directions[:], o.Direction) {
		return errors.New(errors.ErrCodeInvalidDirection, "invalid direction %d", o.Direction)
	}
	if o.Threshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "threshold must not be negative")
	}
	if o.Threshold == 0 {
		o.Threshold = layout.DefaultThreshold
	}
	if o.CollapseDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "collapse depth must not be negative")
	}
	if o.NodeSize.Width < 0 || o.NodeSize.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "node size must not be negative")
	}
	if o.NodeSize.Width == 0 || o.NodeSize.Height == 0 {
		o.NodeSize = layout.DefaultNodeSize
	}
	o.setLogger()
	return ValidateEdgeStyle(o.EdgeStyle)
}

// ValidateForRender checks the render options and applies their defaults.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// EdgeSettings returns the settings copied onto every edge.
func (o *Options) EdgeSettings() layout.EdgeSettings {
	return layout.EdgeSettings{Style: o.EdgeStyle, Animated: o.Animated, Arrow: o.Arrow}
}

// TreeKeyOpts returns cache key options for building the tree map.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{Format: string(o.Format), SourceLines: o.SourceLines}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	collapsed := slices.Clone(o.Collapsed)
	slices.Sort(collapsed)
	if o.CollapseDepth > 0 {
		collapsed = append(collapsed, "depth="+strconv.Itoa(o.CollapseDepth))
	}
	return cache.LayoutKeyOpts{
		Direction:  o.Direction.String(),
		Threshold:  o.Threshold,
		EdgeStyle:  string(o.EdgeStyle),
		Animated:   o.Animated,
		Arrow:      o.Arrow,
		NodeWidth:  o.NodeSize.Width,
		NodeHeight: o.NodeSize.Height,
		Collapsed:  strings.Join(collapsed, ","),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}
