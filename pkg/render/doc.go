// Package render turns laid-out trees into images.
//
// The [nodelink] subpackage draws a [layout.Result] as a Graphviz node-link
// diagram with every node pinned at its computed position. The functions in
// this package convert the resulting SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(res, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [nodelink]: github.com/jsonviz/jsonviz/pkg/render/nodelink
// [layout.Result]: github.com/jsonviz/jsonviz/pkg/layout.Result
package render
