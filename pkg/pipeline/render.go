package pipeline

import (
	"context"

	jsonio "github.com/jsonviz/jsonviz/pkg/io"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/render"
	"github.com/jsonviz/jsonviz/pkg/render/nodelink"
)

// RenderFromLayout produces one artifact per requested format. The SVG is
// rendered at most once and shared by the PNG and PDF conversions.
func RenderFromLayout(ctx context.Context, res layout.Result, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	dot := nodelink.ToDOT(res, nodelink.Options{Detailed: opts.Detailed})

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVG(ctx, dot)
		return svg, err
	}

	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = jsonio.MarshalLayout(res)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
