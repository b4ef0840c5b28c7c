// Package visibility filters laid-out graphs by a set of collapsed nodes.
//
// Collapsing a node hides every descendant reachable through the children
// relation; the collapsed node itself stays visible. Spouse and sibling
// relations never hide anything. Tree maps are only read.
package visibility

import (
	"sort"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Set is a set of collapsed node IDs. The zero value is an empty set ready
// to use. A Set is not safe for concurrent mutation.
type Set struct {
	ids map[string]struct{}
}

// NewSet returns a set holding ids.
func NewSet(ids ...string) *Set {
	s := &Set{}
	for _, id := range ids {
		s.Collapse(id)
	}
	return s
}

// Collapse adds id to the set.
func (s *Set) Collapse(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Expand removes id from the set.
func (s *Set) Expand(id string) {
	delete(s.ids, id)
}

// Toggle flips id and reports whether it is collapsed afterwards.
func (s *Set) Toggle(id string) bool {
	if s.Has(id) {
		s.Expand(id)
		return false
	}
	s.Collapse(id)
	return true
}

// Has reports whether id is collapsed.
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of collapsed IDs.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the collapsed IDs in sorted order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear expands everything.
func (s *Set) Clear() {
	clear(s.ids)
}

// CollapseToDepth returns a set that collapses every container at the given
// depth below rootID, so at most depth levels of children stay visible.
func CollapseToDepth(m *tree.Map, rootID string, depth int) *Set {
	s := NewSet()
	for _, row := range Visible(m, rootID, nil) {
		if row.Depth == depth && row.HasChildren {
			s.Collapse(row.ID)
		}
	}
	return s
}

// Hidden returns the IDs hidden by s: every descendant of a collapsed node
// that is present in m.
func Hidden(m *tree.Map, s *Set) map[string]bool {
	hidden := make(map[string]bool)
	if s.Len() == 0 {
		return hidden
	}
	for _, id := range s.IDs() {
		if hidden[id] {
			continue
		}
		for _, d := range m.Descendants(id) {
			hidden[d] = true
		}
	}
	return hidden
}

// Filter returns a copy of res without hidden nodes and without edges that
// touch a hidden node. Positions are not recomputed; bounds are.
func Filter(m *tree.Map, res layout.Result, s *Set) layout.Result {
	hidden := Hidden(m, s)
	if len(hidden) == 0 {
		return res
	}

	out := res
	out.Nodes = make([]layout.Node, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		if !hidden[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	out.Edges = make([]layout.Edge, 0, len(res.Edges))
	for _, e := range res.Edges {
		if !hidden[e.Source] && !hidden[e.Target] {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Bounds = layout.BoundsOf(out.Nodes, res.NodeSize)
	return out
}

// Row is one visible line of a list-style tree browser.
type Row struct {
	ID          string
	Label       string
	Type        document.Kind
	Depth       int
	HasChildren bool
	Collapsed   bool
}

// Visible returns the visible nodes below rootID in pre-order, following
// the children relation and stopping at collapsed nodes. A nil set hides
// nothing.
func Visible(m *tree.Map, rootID string, s *Set) []Row {
	if !m.Has(rootID) {
		return nil
	}
	type frame struct {
		id    string
		depth int
	}
	var rows []Row
	seen := make(map[string]bool)
	stack := []frame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.id] {
			continue
		}
		seen[f.id] = true
		n, ok := m.Node(f.id)
		if !ok {
			continue
		}
		collapsed := s.Has(f.id)
		rows = append(rows, Row{
			ID:          n.ID,
			Label:       n.Label,
			Type:        n.Data.Type,
			Depth:       f.depth,
			HasChildren: len(n.Children) > 0,
			Collapsed:   collapsed,
		})
		if collapsed {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], depth: f.depth + 1})
		}
	}
	return rows
}
