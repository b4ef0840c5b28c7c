package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	jsonio "github.com/jsonviz/jsonviz/pkg/io"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

const sample = `{"name": "jsonviz", "tags": ["go", "graphs"], "meta": {"stars": 3, "nested": {"deep": null}}}`

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateEdgeStyle(t *testing.T) {
	tests := []struct {
		style   layout.EdgeStyle
		wantErr bool
	}{
		{"", false},
		{layout.EdgeStyleBezier, false},
		{layout.EdgeStyleStraight, false},
		{layout.EdgeStyleStep, false},
		{layout.EdgeStyleSmoothStep, false},
		{"zigzag", true},
	}

	for _, tt := range tests {
		err := ValidateEdgeStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEdgeStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should be valid: %v", err)
	}
	if opts.Format != document.FormatJSON {
		t.Errorf("Format = %q, want json", opts.Format)
	}
	if opts.Threshold != layout.DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", opts.Threshold, layout.DefaultThreshold)
	}
	if opts.NodeSize != layout.DefaultNodeSize {
		t.Errorf("NodeSize = %+v, want %+v", opts.NodeSize, layout.DefaultNodeSize)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestValidateAndSetDefaults_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"format", Options{Format: "xml"}, errors.ErrCodeInvalidFormat},
		{"direction", Options{Direction: layout.Direction(9)}, errors.ErrCodeInvalidDirection},
		{"threshold", Options{Threshold: -1}, errors.ErrCodeInvalidInput},
		{"collapse depth", Options{CollapseDepth: -2}, errors.ErrCodeInvalidInput},
		{"edge style", Options{EdgeStyle: "zigzag"}, errors.ErrCodeInvalidInput},
		{"output format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{Collapsed: []string{"/b", "/a"}}
	b := Options{Collapsed: []string{"/a", "/b"}}
	if a.LayoutKeyOpts() != b.LayoutKeyOpts() {
		t.Error("collapsed order should not change the layout key")
	}
	c := Options{Collapsed: []string{"/a", "/b"}, CollapseDepth: 2}
	if c.LayoutKeyOpts() == b.LayoutKeyOpts() {
		t.Error("collapse depth should change the layout key")
	}
	d := Options{Direction: layout.LR}
	if d.LayoutKeyOpts() == (Options{}).LayoutKeyOpts() {
		t.Error("direction should change the layout key")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Scale: 3}
	if got := o.ArtifactKeyOpts(FormatSVG); got.Scale != 0 {
		t.Errorf("svg key should ignore scale, got %v", got.Scale)
	}
	if got := o.ArtifactKeyOpts(FormatPNG); got.Scale != 3 {
		t.Errorf("png key scale = %v, want 3", got.Scale)
	}
}

func TestComputeLayout_Collapsed(t *testing.T) {
	doc, err := document.ParseJSON([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	m, err := tree.Build(doc)
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	full, err := ComputeLayout(m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Nodes) != m.Len() {
		t.Fatalf("len(Nodes) = %d, want %d", len(full.Nodes), m.Len())
	}

	opts.Collapsed = []string{"/meta", "/missing"}
	collapsed, err := ComputeLayout(m, opts)
	if err != nil {
		t.Fatal(err)
	}
	// /meta hides /meta/stars, /meta/nested and /meta/nested/deep.
	if got, want := len(collapsed.Nodes), m.Len()-3; got != want {
		t.Errorf("len(Nodes) = %d, want %d", got, want)
	}
	for _, n := range collapsed.Nodes {
		if strings.HasPrefix(n.ID, "/meta/") {
			t.Errorf("hidden node %s present", n.ID)
		}
		want, _ := full.NodeByID(n.ID)
		if n.Position != want.Position {
			t.Errorf("%s moved from %+v to %+v", n.ID, want.Position, n.Position)
		}
	}
	for _, e := range collapsed.Edges {
		if strings.HasPrefix(e.Target, "/meta/") {
			t.Errorf("edge %s touches a hidden node", e.ID)
		}
	}
}

func TestCollapsedSet(t *testing.T) {
	doc, _ := document.ParseJSON([]byte(sample))
	m, _ := tree.Build(doc)

	s := CollapsedSet(m, tree.RootID, Options{CollapseDepth: 1, Collapsed: []string{"/meta/nested", "/nope"}})
	for _, id := range []string{"/tags", "/meta", "/meta/nested"} {
		if !s.Has(id) {
			t.Errorf("%s should be collapsed", id)
		}
	}
	if s.Has("/nope") {
		t.Error("unknown IDs should be ignored")
	}
}

func newMemoryRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestRunner_Execute(t *testing.T) {
	r := newMemoryRunner(t)
	defer r.Close()
	ctx := context.Background()
	opts := Options{Direction: layout.LR, Formats: []string{FormatJSON, FormatDOT}}

	res, err := r.Execute(ctx, []byte(sample), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.NodeCount != 9 || res.Stats.EdgeCount != 8 {
		t.Errorf("Stats = %+v, want 9 nodes and 8 edges", res.Stats)
	}
	if res.Stats.Algorithm != layout.AlgorithmRelational {
		t.Errorf("Algorithm = %q, want relational", res.Stats.Algorithm)
	}
	if res.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run CacheInfo = %+v, want all misses", res.CacheInfo)
	}
	if res.TreeHash == "" {
		t.Error("TreeHash should be set")
	}

	back, err := jsonio.UnmarshalLayout(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if back.Direction != layout.LR || len(back.Nodes) != 9 {
		t.Errorf("json artifact = %s with %d nodes", back.Direction, len(back.Nodes))
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph G {") {
		t.Errorf("dot artifact = %q", res.Artifacts[FormatDOT])
	}

	again, err := r.Execute(ctx, []byte(sample), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if again.CacheInfo != (CacheInfo{TreeHit: true, LayoutHit: true, RenderHit: true}) {
		t.Errorf("second run CacheInfo = %+v, want all hits", again.CacheInfo)
	}
	if again.TreeHash != res.TreeHash {
		t.Error("TreeHash changed between runs")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, []byte(sample), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fresh.CacheInfo != (CacheInfo{}) {
		t.Errorf("refresh CacheInfo = %+v, want all misses", fresh.CacheInfo)
	}
}

func TestRunner_OptionsChangeKeys(t *testing.T) {
	r := newMemoryRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, []byte(sample), Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, []byte(sample), Options{Direction: layout.BT})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.TreeHit || res.CacheInfo.LayoutHit {
		t.Errorf("CacheInfo = %+v, want a tree hit and a layout miss", res.CacheInfo)
	}
}

func TestRunner_Formats(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	yamlDoc := "name: jsonviz\ntags:\n  - go\n"
	res, err := r.Execute(ctx, []byte(yamlDoc), Options{Format: document.FormatYAML, SourceLines: true})
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	n, ok := res.Tree.Node("/tags/0")
	if !ok || n.Data.Line != 3 {
		t.Errorf("/tags/0 = %+v, want line 3", n)
	}

	_, err = r.Execute(ctx, []byte(`{"a": `), Options{})
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("malformed document error = %v, want PARSE_ERROR", err)
	}

	_, err = r.Execute(ctx, []byte(sample), Options{MaxDocumentBytes: 8})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("oversized document error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderFromLayout_SVG(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte(sample), Options{Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact missing <svg> tag")
	}
}
