package layout

import "github.com/jsonviz/jsonviz/pkg/tree"

// linear assigns positions with one breadth-first pass. Children sit one
// level below their parent; spouses and siblings share their node's level.
// The first time a node is reached decides its level and role.
func (e *Engine) linear(m *tree.Map, rootID string) map[string]placement {
	type item struct {
		id    string
		level int
		role  Role
	}

	placed := make(map[string]placement, m.Len())
	perLevel := make([]int, 0, 16)

	queue := make([]item, 0, m.Len())
	queue = append(queue, item{id: rootID})
	seen := make(map[string]bool, m.Len())
	seen[rootID] = true

	for head := 0; head < len(queue); head++ {
		it := queue[head]
		for len(perLevel) <= it.level {
			perLevel = append(perLevel, 0)
		}
		index := perLevel[it.level]
		perLevel[it.level]++

		placed[it.id] = placement{
			breadth: float64(index) * e.spacing.Sibling,
			depth:   float64(it.level) * e.spacing.Depth,
			level:   it.level,
			role:    it.role,
		}

		n, _ := m.Node(it.id)
		for _, rel := range tree.Relations {
			level := it.level
			if rel == tree.RelationChild {
				level++
			}
			for _, c := range n.Related(rel) {
				if seen[c] || !m.Has(c) {
					continue
				}
				seen[c] = true
				queue = append(queue, item{id: c, level: level, role: roleOf(rel)})
			}
		}
	}
	return placed
}
