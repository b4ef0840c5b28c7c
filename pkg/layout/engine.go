package layout

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsonviz/jsonviz/pkg/tree"
)

// DefaultThreshold is the largest node count laid out relationally.
const DefaultThreshold = 2000

var (
	// DefaultNodeSize is the box used for every node.
	DefaultNodeSize = Size{Width: 180, Height: 40}

	// DefaultSpacing is used when no [WithSpacing] option is given.
	DefaultSpacing = Spacing{
		FirstDegree:  20,
		SecondDegree: 40,
		Lateral:      24,
		SourceTarget: 60,
		Depth:        240,
		Sibling:      200,
	}
)

// Engine lays out tree maps. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	threshold int
	spacing   Spacing
	nodeSize  Size
	logger    *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithThreshold sets the largest node count laid out relationally.
// Non-positive values force the linear algorithm for every non-empty map.
func WithThreshold(n int) Option {
	return func(e *Engine) { e.threshold = n }
}

// WithSpacing replaces the default gaps.
func WithSpacing(s Spacing) Option {
	return func(e *Engine) { e.spacing = s }
}

// WithNodeSize replaces the default node box.
func WithNodeSize(s Size) Option {
	return func(e *Engine) { e.nodeSize = s }
}

// WithLogger sets the logger used for timing and degradation messages.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine with the given options applied over the defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold: DefaultThreshold,
		spacing:   DefaultSpacing,
		nodeSize:  DefaultNodeSize,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the relational node-count limit.
func (e *Engine) Threshold() int { return e.threshold }

var defaultEngine = New()

// Layout lays out m with the default engine.
func Layout(m *tree.Map, rootID string, dir Direction, es EdgeSettings) Result {
	return defaultEngine.Layout(m, rootID, dir, es)
}

// placement is the canonical (top-to-bottom) placement of one node.
// breadth and depth are coordinates along the row and column axes.
type placement struct {
	breadth float64
	depth   float64
	level   int
	role    Role
}

// Layout positions every node reachable from rootID and builds the edges
// between them. It never fails: an empty map, an unknown root or an
// internal panic all produce an empty result.
func (e *Engine) Layout(m *tree.Map, rootID string, dir Direction, es EdgeSettings) (res Result) {
	if m == nil || m.Len() == 0 || !m.Has(rootID) {
		return Result{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("layout failed, returning empty result", "root", rootID, "nodes", m.Len(), "panic", fmt.Sprint(r))
			res = Result{}
		}
	}()

	start := time.Now()
	var (
		placed map[string]placement
		algo   Algorithm
	)
	if m.Len() <= e.threshold {
		placed = e.relational(m, rootID, dir)
		algo = AlgorithmRelational
	} else {
		placed = e.linear(m, rootID)
		algo = AlgorithmLinear
	}

	res = e.assemble(m, placed, dir, es)
	res.Algorithm = algo
	e.logger.Debug("layout", "algorithm", algo, "direction", dir, "nodes", len(res.Nodes), "edges", len(res.Edges), "duration", time.Since(start))
	return res
}

// boxAxes returns the node extent along the breadth and depth axes.
func (e *Engine) boxAxes(dir Direction) (breadth, depth float64) {
	if dir.IsHorizontal() {
		return e.nodeSize.Height, e.nodeSize.Width
	}
	return e.nodeSize.Width, e.nodeSize.Height
}

// assemble turns canonical placements into the final result: it transposes
// and mirrors coordinates for dir, assigns handles and emits edges.
func (e *Engine) assemble(m *tree.Map, placed map[string]placement, dir Direction, es EdgeSettings) Result {
	res := Result{
		Nodes:     make([]Node, 0, len(placed)),
		Direction: dir,
		NodeSize:  e.nodeSize,
	}

	var maxDepth float64
	for _, p := range placed {
		if p.depth > maxDepth {
			maxDepth = p.depth
		}
	}

	edgeCount := 0
	for _, id := range m.IDs() {
		p, ok := placed[id]
		if !ok {
			continue
		}
		n, _ := m.Node(id)

		d := p.depth
		if dir.IsReversed() {
			d = maxDepth - d
		}
		pos := Position{X: p.breadth, Y: d}
		if dir.IsHorizontal() {
			pos = Position{X: d, Y: p.breadth}
		}

		h := NodeHandles(p.role, dir)
		res.Nodes = append(res.Nodes, Node{
			ID:           id,
			Position:     pos,
			SourceHandle: h.Source,
			TargetHandle: h.Target,
			Role:         p.role,
			Data: NodeData{
				Label:      n.Label,
				Type:       n.Data.Type,
				Line:       n.Data.Line,
				Depth:      p.level,
				ChildCount: len(n.Children),
			},
		})
		edgeCount += len(n.Children) + len(n.Spouses) + len(n.Siblings)
	}

	res.Edges = make([]Edge, 0, edgeCount)
	seen := make(map[string]bool, edgeCount)
	for _, node := range res.Nodes {
		n, _ := m.Node(node.ID)
		for _, rel := range tree.Relations {
			h := EdgeHandles(rel, dir)
			for _, target := range n.Related(rel) {
				if _, ok := placed[target]; !ok {
					continue
				}
				id := EdgeID(node.ID, target)
				if seen[id] {
					continue
				}
				seen[id] = true
				res.Edges = append(res.Edges, Edge{
					ID:           id,
					Source:       node.ID,
					Target:       target,
					Kind:         rel,
					SourceHandle: h.Source,
					TargetHandle: h.Target,
					Style:        es.Style,
					Animated:     es.Animated,
					Arrow:        es.Arrow,
				})
			}
		}
	}

	res.Bounds = BoundsOf(res.Nodes, e.nodeSize)
	return res
}

// BoundsOf returns the bounding box of nodes drawn with the given box size.
func BoundsOf(nodes []Node, size Size) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: nodes[0].Position.X,
		MinY: nodes[0].Position.Y,
		MaxX: nodes[0].Position.X + size.Width,
		MaxY: nodes[0].Position.Y + size.Height,
	}
	for _, n := range nodes[1:] {
		b.MinX = min(b.MinX, n.Position.X)
		b.MinY = min(b.MinY, n.Position.Y)
		b.MaxX = max(b.MaxX, n.Position.X+size.Width)
		b.MaxY = max(b.MaxY, n.Position.Y+size.Height)
	}
	return b
}
