package layout_test

import (
	"fmt"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

func ExampleLayout() {
	v, _ := document.ParseJSON([]byte(`{"name": "demo", "tags": ["a", "b"]}`))
	m, _ := tree.Build(v)

	res := layout.Layout(m, tree.RootID, layout.LR, layout.EdgeSettings{})
	fmt.Println("algorithm:", res.Algorithm)
	for _, e := range res.Edges {
		fmt.Println(e.ID, e.SourceHandle, e.TargetHandle)
	}
	// Output:
	// algorithm: relational
	// $root->/name right left
	// $root->/tags right left
	// /tags->/tags/0 right left
	// /tags->/tags/1 right left
}
