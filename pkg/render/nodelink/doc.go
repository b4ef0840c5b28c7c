// Package nodelink renders laid-out trees as node-link diagrams.
//
// # Overview
//
// Positions come from [layout]; Graphviz only draws. [ToDOT] pins every node
// at its computed position (pos="x,y!" with inputscale=72, so one DOT unit
// is one layout pixel) and [RenderSVG] runs the neato engine, which honours
// pinned positions instead of computing its own.
//
// # Usage
//
//	res := layout.Layout(m, tree.RootID, layout.TB, layout.EdgeSettings{})
//	dot := nodelink.ToDOT(res, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Styling
//
// Objects and arrays are filled in distinct colours so containers stand out
// from scalars. Child edges are solid, spouse edges dashed and sibling edges
// dotted. The edge style of the result selects the Graphviz splines mode.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [layout]: github.com/jsonviz/jsonviz/pkg/layout
package nodelink
