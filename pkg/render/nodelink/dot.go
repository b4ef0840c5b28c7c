package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/render"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// pointsPerInch converts layout pixels to the inches Graphviz sizes nodes in.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node ID and source line to every label.
	Detailed bool
	// FontSize is the label size in points. Zero means 12.
	FontSize float64
}

// ToDOT converts a layout result to Graphviz DOT with every node pinned at
// its computed position. The y axis is flipped because Graphviz grows
// upwards. The resulting DOT string can be rendered using [RenderSVG],
// [RenderPDF], or [RenderPNG].
func ToDOT(res layout.Result, opts Options) string {
	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}
	size := res.NodeSize
	if size.Width <= 0 || size.Height <= 0 {
		size = layout.DefaultNodeSize
	}
	b := res.Bounds
	if b == (layout.Bounds{}) {
		b = layout.BoundsOf(res.Nodes, size)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [inputscale=%g, bgcolor=\"transparent\", splines=%s, outputorder=edgesfirst];\n",
		pointsPerInch, splines(res))
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, width=%s, height=%s, fontsize=%g, fontname=\"Helvetica\"];\n",
		inches(size.Width), inches(size.Height), fontSize)
	buf.WriteString("  edge [arrowhead=none, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, n := range res.Nodes {
		cx := n.Position.X - b.MinX + size.Width/2
		cy := b.MaxY - n.Position.Y - size.Height/2
		attrs := []string{
			"label=" + quote(fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(cx), num(cy)),
		}
		attrs = append(attrs, fmtAttrs(n)...)
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		attrs := []string{"id=" + quote(e.ID)}
		switch e.Kind {
		case tree.RelationSpouse:
			attrs = append(attrs, "style=dashed")
		case tree.RelationSibling:
			attrs = append(attrs, "style=dotted")
		}
		if e.Arrow {
			attrs = append(attrs, "arrowhead=normal")
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n layout.Node, detailed bool) string {
	if !detailed {
		return n.Data.Label
	}
	return fmt.Sprintf("%s\n%s\nline: %d", n.Data.Label, n.ID, n.Data.Line)
}

func fmtAttrs(n layout.Node) []string {
	switch n.Data.Type {
	case document.KindObject:
		return []string{"fillcolor=\"#dbeafe\""}
	case document.KindArray:
		return []string{"fillcolor=\"#fef3c7\""}
	}
	return nil
}

// splines maps the edge style shared by the result's edges to a Graphviz
// splines mode.
func splines(res layout.Result) string {
	if len(res.Edges) == 0 {
		return "true"
	}
	switch res.Edges[0].Style {
	case layout.EdgeStyleStraight:
		return "line"
	case layout.EdgeStyleStep, layout.EdgeStyleSmoothStep:
		return "ortho"
	}
	return "true"
}

// quote returns s as a double-quoted DOT ID. Newlines become centred line
// breaks.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func inches(px float64) string { return num(px / pointsPerInch) }

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
