package layout

import (
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// EdgeStyle is the curve used to draw an edge.
type EdgeStyle string

const (
	EdgeStyleBezier     EdgeStyle = "default"
	EdgeStyleStraight   EdgeStyle = "straight"
	EdgeStyleStep       EdgeStyle = "step"
	EdgeStyleSmoothStep EdgeStyle = "smoothstep"
)

// EdgeSettings are copied onto every edge. They never affect positions.
type EdgeSettings struct {
	Style    EdgeStyle `json:"style,omitempty"`
	Animated bool      `json:"animated,omitempty"`
	Arrow    bool      `json:"arrow,omitempty"`
}

// Position is the top-left corner of a node box.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of a node box.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Spacing holds the gaps used by both algorithms.
//
// The relational algorithm uses the first four: FirstDegree between leaf
// siblings, SecondDegree between neighbouring subtrees, Lateral between a
// node and its spouses or siblings, and SourceTarget between a parent row
// and its children's row. The linear fallback uses Depth and Sibling as
// fixed strides along the depth and breadth axes.
type Spacing struct {
	FirstDegree  float64 `json:"firstDegree"`
	SecondDegree float64 `json:"secondDegree"`
	Lateral      float64 `json:"lateral"`
	SourceTarget float64 `json:"sourceTarget"`
	Depth        float64 `json:"depth"`
	Sibling      float64 `json:"sibling"`
}

// NodeData is the display payload of a laid-out node.
type NodeData struct {
	Label      string        `json:"label"`
	Type       document.Kind `json:"type"`
	Line       int           `json:"line"`
	Depth      int           `json:"depth"`
	ChildCount int           `json:"childCount"`
}

// Node is a positioned tree node.
type Node struct {
	ID           string   `json:"id"`
	Position     Position `json:"position"`
	SourceHandle Side     `json:"sourceHandle"`
	TargetHandle Side     `json:"targetHandle"`
	Role         Role     `json:"role"`
	Data         NodeData `json:"data"`
}

// Edge connects two positioned nodes.
type Edge struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Target       string        `json:"target"`
	Kind         tree.Relation `json:"kind"`
	SourceHandle Side          `json:"sourceHandle"`
	TargetHandle Side          `json:"targetHandle"`
	Style        EdgeStyle     `json:"style,omitempty"`
	Animated     bool          `json:"animated,omitempty"`
	Arrow        bool          `json:"arrow,omitempty"`
}

// EdgeID returns the deterministic ID of the edge from source to target.
func EdgeID(source, target string) string {
	return source + "->" + target
}

// Algorithm names the algorithm that produced a result.
type Algorithm string

const (
	AlgorithmNone       Algorithm = ""
	AlgorithmRelational Algorithm = "relational"
	AlgorithmLinear     Algorithm = "linear"
)

// Bounds is the bounding box of every node box in a result.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Result is the output of a layout call. Nodes are in tree map insertion
// order and edges follow their source nodes in the same order.
type Result struct {
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	Algorithm Algorithm `json:"algorithm,omitempty"`
	Direction Direction `json:"direction"`
	NodeSize  Size      `json:"nodeSize"`
	Bounds    Bounds    `json:"bounds"`
}

// Empty reports whether the result has no nodes.
func (r Result) Empty() bool { return len(r.Nodes) == 0 }

// NodeByID returns the node with the given ID.
func (r Result) NodeByID(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
