package layout

import (
	"slices"

	"github.com/jsonviz/jsonviz/pkg/tree"
)

// member is one node box inside a group.
type member struct {
	id   string
	role Role
}

// group is a node plus its lateral relatives, laid out left to right as
// [siblings..., anchor, spouses...] on a single row. The children of every
// member hang below the group as child groups.
type group struct {
	members  []member
	anchor   int
	level    int
	children []int

	width  float64 // extent of the member row
	span   float64 // extent of the child groups including gaps
	extent float64 // max(width, span)
	left   float64 // left edge of the subtree
}

func (g *group) isLeaf() bool { return len(g.children) == 0 }

// relational computes the tidy tree layout.
//
// It runs in three iterative passes over groups: a pre-order pass that
// claims nodes and forms groups (first claim wins), a reverse pass that
// computes subtree extents bottom-up, and a pre-order pass that assigns
// left edges top-down.
func (e *Engine) relational(m *tree.Map, rootID string, dir Direction) map[string]placement {
	breadthSize, depthSize := e.boxAxes(dir)
	sp := e.spacing

	claimed := make(map[string]bool, m.Len())
	groups := make([]group, 0, m.Len())

	newGroup := func(anchor string, role Role, level int) int {
		claimed[anchor] = true
		g := group{level: level}

		n, _ := m.Node(anchor)
		before := lateralChain(m, n, tree.RelationSibling, claimed)
		after := lateralChain(m, n, tree.RelationSpouse, claimed)

		g.members = make([]member, 0, len(before)+1+len(after))
		for i := len(before) - 1; i >= 0; i-- {
			g.members = append(g.members, member{id: before[i], role: RoleSibling})
		}
		g.anchor = len(g.members)
		g.members = append(g.members, member{id: anchor, role: role})
		for _, id := range after {
			g.members = append(g.members, member{id: id, role: RoleSpouse})
		}
		groups = append(groups, g)
		return len(groups) - 1
	}

	order := make([]int, 0, m.Len())
	stack := []int{newGroup(rootID, RoleNormal, 0)}
	for len(stack) > 0 {
		gi := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, gi)

		level := groups[gi].level
		var kids []int
		for mi, mem := range groups[gi].members {
			n, _ := m.Node(mem.id)
			for _, c := range n.Children {
				if m.Has(c) && !claimed[c] {
					kids = append(kids, newGroup(c, RoleNormal, level+1))
				}
			}
			if mi == groups[gi].anchor {
				continue
			}
			// A lateral member's opposite-side relatives are not part of
			// this row; they hang below it instead.
			rel := tree.RelationSpouse
			if mem.role == RoleSpouse {
				rel = tree.RelationSibling
			}
			for _, c := range n.Related(rel) {
				if m.Has(c) && !claimed[c] {
					kids = append(kids, newGroup(c, roleOf(rel), level+1))
				}
			}
		}
		groups[gi].children = kids
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	gap := func(a, b int) float64 {
		if groups[a].isLeaf() && groups[b].isLeaf() {
			return sp.FirstDegree
		}
		return sp.SecondDegree
	}

	for i := len(order) - 1; i >= 0; i-- {
		g := &groups[order[i]]
		k := float64(len(g.members))
		g.width = k*breadthSize + (k-1)*sp.Lateral
		g.span = 0
		for j, c := range g.children {
			g.span += groups[c].extent
			if j > 0 {
				g.span += gap(g.children[j-1], c)
			}
		}
		g.extent = max(g.width, g.span)
	}

	placed := make(map[string]placement, m.Len())
	for _, gi := range order {
		g := &groups[gi]

		x := g.left + (g.extent-g.width)/2
		y := float64(g.level) * (depthSize + sp.SourceTarget)
		for _, mem := range g.members {
			placed[mem.id] = placement{breadth: x, depth: y, level: g.level, role: mem.role}
			x += breadthSize + sp.Lateral
		}

		cx := g.left + (g.extent-g.span)/2
		for j, c := range g.children {
			if j > 0 {
				cx += gap(g.children[j-1], c)
			}
			groups[c].left = cx
			cx += groups[c].extent
		}
	}
	return placed
}

// lateralChain claims and returns the nodes reachable from n by repeatedly
// following rel, nearest first. Targets missing from m or already claimed
// are skipped.
func lateralChain(m *tree.Map, n *tree.Node, rel tree.Relation, claimed map[string]bool) []string {
	var chain []string
	work := slices.Clone(n.Related(rel))
	for i := 0; i < len(work); i++ {
		id := work[i]
		if claimed[id] {
			continue
		}
		next, ok := m.Node(id)
		if !ok {
			continue
		}
		claimed[id] = true
		chain = append(chain, id)
		work = append(work, next.Related(rel)...)
	}
	return chain
}
