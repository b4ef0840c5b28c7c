package tree

import (
	"errors"
	"fmt"

	"github.com/jsonviz/jsonviz/pkg/document"
)

// RootID identifies the structural root of every built tree. It lives
// outside the pointer identity space: pointer.Root is "/", RootID is not.
const RootID = "$root"

// RootLabel is the display label of the [RootID] node.
const RootLabel = "root"

var (
	// ErrDuplicateNode is returned by [Map.Add] when a node with the same ID
	// is already present.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrInvalidNodeID is returned by [Map.Add] for an empty node ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrUnknownNode is returned by [Map.Relate] when either endpoint is
	// missing.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDanglingReference is returned by [Map.Validate] when a relation
	// list names a node that is not in the map.
	ErrDanglingReference = errors.New("dangling relation reference")

	// ErrAmbiguousRoot is returned by [FindRoot] when the map does not have
	// exactly one unreferenced node. The returned ID is a fallback only.
	ErrAmbiguousRoot = errors.New("no unique root")

	// ErrEmptyTree is returned by [FindRoot] for a map without nodes.
	ErrEmptyTree = errors.New("tree is empty")
)

// Relation names one of the three relation lists of a node.
type Relation uint8

const (
	// RelationChild is the primary, hierarchical relation.
	RelationChild Relation = iota
	// RelationSpouse places the target next after the source.
	RelationSpouse
	// RelationSibling places the target next before the source.
	RelationSibling
)

func (r Relation) String() string {
	switch r {
	case RelationChild:
		return "child"
	case RelationSpouse:
		return "spouse"
	case RelationSibling:
		return "sibling"
	}
	return fmt.Sprintf("relation(%d)", uint8(r))
}

// MarshalText encodes the relation as its name.
func (r Relation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a relation name.
func (r *Relation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "child":
		*r = RelationChild
	case "spouse":
		*r = RelationSpouse
	case "sibling":
		*r = RelationSibling
	default:
		return fmt.Errorf("unknown relation %q", b)
	}
	return nil
}

// Relations lists every relation kind in edge emission order.
var Relations = [...]Relation{RelationChild, RelationSpouse, RelationSibling}

// Data is the display metadata attached to each node.
type Data struct {
	Line int           `json:"line"`
	Type document.Kind `json:"type"`
}

// Node is one entry of the tree map.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Children []string `json:"children,omitempty"`
	Siblings []string `json:"siblings,omitempty"`
	Spouses  []string `json:"spouses,omitempty"`
	Data     Data     `json:"data"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Related returns the relation list of the given kind.
func (n *Node) Related(r Relation) []string {
	switch r {
	case RelationSpouse:
		return n.Spouses
	case RelationSibling:
		return n.Siblings
	}
	return n.Children
}

// Map is a flat id-to-node mapping that remembers insertion order.
//
// The zero value is not usable; use [NewMap]. A Map is not safe for
// concurrent mutation, but any number of goroutines may read a Map that is
// no longer being built.
type Map struct {
	nodes map[string]*Node
	order []string
}

// NewMap returns an empty map with room for sizeHint nodes.
func NewMap(sizeHint int) *Map {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Map{
		nodes: make(map[string]*Node, sizeHint),
		order: make([]string, 0, sizeHint),
	}
}

// Add inserts n. It fails for an empty ID or an ID already present.
func (m *Map) Add(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := m.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	m.nodes[n.ID] = n
	m.order = append(m.order, n.ID)
	return nil
}

// Node returns the node with the given ID.
func (m *Map) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Has reports whether id is present.
func (m *Map) Has(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (m *Map) Len() int { return len(m.order) }

// IDs returns node IDs in insertion order. The slice is a copy.
func (m *Map) IDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Nodes returns nodes in insertion order.
func (m *Map) Nodes() []*Node {
	out := make([]*Node, len(m.order))
	for i, id := range m.order {
		out[i] = m.nodes[id]
	}
	return out
}

// Relate appends to to the relation list r of from. Producers use it to add
// spouse and sibling relations after [Build]. Both nodes must exist.
func (m *Map) Relate(r Relation, from, to string) error {
	src, ok := m.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := m.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	switch r {
	case RelationChild:
		src.Children = append(src.Children, to)
	case RelationSpouse:
		src.Spouses = append(src.Spouses, to)
	case RelationSibling:
		src.Siblings = append(src.Siblings, to)
	default:
		return fmt.Errorf("unknown relation %v", r)
	}
	return nil
}

// Validate checks that every relation target exists. It reports the first
// dangling reference in insertion order.
func (m *Map) Validate() error {
	for _, id := range m.order {
		n := m.nodes[id]
		for _, r := range Relations {
			for _, target := range n.Related(r) {
				if _, ok := m.nodes[target]; !ok {
					return fmt.Errorf("%w: %s %s %s", ErrDanglingReference, id, r, target)
				}
			}
		}
	}
	return nil
}

// Descendants returns every node reachable from id through the child
// relation, in pre-order, excluding id itself. Each node is listed once.
func (m *Map) Descendants(id string) []string {
	root, ok := m.nodes[id]
	if !ok {
		return nil
	}
	var out []string
	seen := map[string]bool{id: true}
	stack := make([]string, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, root.Children[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		n, ok := m.nodes[cur]
		if !ok {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// FindRoot returns the single node that no relation list references.
//
// When there is no such node, or more than one, FindRoot returns the
// first-inserted ID together with [ErrAmbiguousRoot]. Callers should treat
// that result as a diagnostic rather than a correct root.
func FindRoot(m *Map) (string, error) {
	if m.Len() == 0 {
		return "", ErrEmptyTree
	}
	referenced := make(map[string]bool, m.Len())
	for _, n := range m.nodes {
		for _, ids := range [][]string{n.Children, n.Spouses, n.Siblings} {
			for _, id := range ids {
				if id != n.ID {
					referenced[id] = true
				}
			}
		}
	}
	var candidates []string
	for _, id := range m.order {
		if !referenced[id] {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return m.order[0], fmt.Errorf("%w: %d unreferenced nodes", ErrAmbiguousRoot, len(candidates))
}
