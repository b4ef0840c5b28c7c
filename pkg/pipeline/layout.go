package pipeline

import (
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
	"github.com/jsonviz/jsonviz/pkg/visibility"
)

// ComputeLayout positions every node of m and then hides the subtrees
// collapsed by opts. Positions of visible nodes do not depend on what is
// collapsed.
func ComputeLayout(m *tree.Map, opts Options) (layout.Result, error) {
	rootID, err := tree.FindRoot(m)
	if err != nil {
		return layout.Result{}, err
	}
	engine := layout.New(
		layout.WithThreshold(opts.Threshold),
		layout.WithNodeSize(opts.NodeSize),
		layout.WithLogger(opts.Logger),
	)
	res := engine.Layout(m, rootID, opts.Direction, opts.EdgeSettings())
	return visibility.Filter(m, res, CollapsedSet(m, rootID, opts)), nil
}

// CollapsedSet returns the nodes collapsed by opts: the explicit IDs plus
// every container at CollapseDepth.
func CollapsedSet(m *tree.Map, rootID string, opts Options) *visibility.Set {
	s := visibility.NewSet()
	if opts.CollapseDepth > 0 {
		s = visibility.CollapseToDepth(m, rootID, opts.CollapseDepth)
	}
	for _, id := range opts.Collapsed {
		if m.Has(id) {
			s.Collapse(id)
		}
	}
	return s
}
