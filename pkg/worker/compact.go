package worker

import (
	"encoding/binary"
	"math"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
)

// Fixed widths of the numeric columns, in bytes per node.
const (
	depthWidth      = 4  // int32
	lineWidth       = 4  // int32
	positionWidth   = 16 // float64 x, float64 y
	childCountWidth = 4  // uint32
)

// CompactBatch is the columnar encoding of a set of nodes and edges.
//
// String columns are parallel slices indexed by node. Numeric columns are
// little-endian byte buffers with a fixed width per node. A batch is built
// for exactly one message; once sent the worker never reads or writes its
// buffers again.
type CompactBatch struct {
	IDs     []string `json:"ids"`
	Labels  []string `json:"labels"`
	Types   []byte   `json:"types"`
	Values  []string `json:"values"`
	Parents []string `json:"parents"`

	Depths      []byte `json:"depths"`
	Lines       []byte `json:"lines"`
	Positions   []byte `json:"positions"`
	ChildCounts []byte `json:"childCounts"`

	EdgeSources []string `json:"edgeSources"`
	EdgeTargets []string `json:"edgeTargets"`
}

// NodeCount returns the number of nodes in the batch.
func (b *CompactBatch) NodeCount() int { return len(b.IDs) }

// EdgeCount returns the number of edges in the batch.
func (b *CompactBatch) EdgeCount() int { return len(b.EdgeSources) }

// encodeCompact packs records into a new batch.
func encodeCompact(nodes []NodeRecord, edges []EdgeRecord) *CompactBatch {
	n := len(nodes)
	b := &CompactBatch{
		IDs:         make([]string, n),
		Labels:      make([]string, n),
		Types:       make([]byte, n),
		Values:      make([]string, n),
		Parents:     make([]string, n),
		Depths:      make([]byte, 0, n*depthWidth),
		Lines:       make([]byte, 0, n*lineWidth),
		Positions:   make([]byte, 0, n*positionWidth),
		ChildCounts: make([]byte, 0, n*childCountWidth),
		EdgeSources: make([]string, len(edges)),
		EdgeTargets: make([]string, len(edges)),
	}
	le := binary.LittleEndian
	for i, rec := range nodes {
		b.IDs[i] = rec.ID
		b.Labels[i] = rec.Label
		b.Types[i] = byte(rec.Type)
		b.Values[i] = rec.Value
		b.Parents[i] = rec.Parent
		b.Depths = le.AppendUint32(b.Depths, uint32(int32(rec.Depth)))
		b.Lines = le.AppendUint32(b.Lines, uint32(int32(rec.Line)))
		b.Positions = le.AppendUint64(b.Positions, math.Float64bits(rec.Position.X))
		b.Positions = le.AppendUint64(b.Positions, math.Float64bits(rec.Position.Y))
		b.ChildCounts = le.AppendUint32(b.ChildCounts, uint32(rec.ChildCount))
	}
	for i, e := range edges {
		b.EdgeSources[i] = e.Source
		b.EdgeTargets[i] = e.Target
	}
	return b
}

// Decode restores the verbose records. It fails when the columns disagree
// on the node count.
func (b *CompactBatch) Decode() ([]NodeRecord, []EdgeRecord, error) {
	n := len(b.IDs)
	switch {
	case len(b.Labels) != n, len(b.Types) != n, len(b.Values) != n, len(b.Parents) != n:
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "compact batch: string columns disagree on length")
	case len(b.Depths) != n*depthWidth, len(b.Lines) != n*lineWidth,
		len(b.Positions) != n*positionWidth, len(b.ChildCounts) != n*childCountWidth:
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "compact batch: numeric buffers do not hold %d nodes", n)
	case len(b.EdgeSources) != len(b.EdgeTargets):
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "compact batch: edge columns disagree on length")
	}

	le := binary.LittleEndian
	nodes := make([]NodeRecord, n)
	for i := range nodes {
		nodes[i] = NodeRecord{
			ID:     b.IDs[i],
			Label:  b.Labels[i],
			Type:   document.Kind(b.Types[i]),
			Value:  b.Values[i],
			Parent: b.Parents[i],
			Depth:  int(int32(le.Uint32(b.Depths[i*depthWidth:]))),
			Line:   int(int32(le.Uint32(b.Lines[i*lineWidth:]))),
			Position: layout.Position{
				X: math.Float64frombits(le.Uint64(b.Positions[i*positionWidth:])),
				Y: math.Float64frombits(le.Uint64(b.Positions[i*positionWidth+8:])),
			},
			ChildCount: int(le.Uint32(b.ChildCounts[i*childCountWidth:])),
		}
	}
	edges := make([]EdgeRecord, len(b.EdgeSources))
	for i := range edges {
		edges[i] = EdgeRecord{
			ID:     layout.EdgeID(b.EdgeSources[i], b.EdgeTargets[i]),
			Source: b.EdgeSources[i],
			Target: b.EdgeTargets[i],
		}
	}
	return nodes, edges, nil
}
