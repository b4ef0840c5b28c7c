package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	format   string   // input document format
	formats  []string // output formats: "json", "dot", "svg", "png", "pdf"
	detailed bool     // show pointer and source line in node labels
	scale    float64  // PNG scale factor
	layout   layoutFlags
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a document to SVG, PNG, PDF, DOT or layout JSON",
		Long: `Render a document as a node-link diagram.

Nodes are pinned at their computed layout positions and drawn with Graphviz.
PNG and PDF conversion needs rsvg-convert on the PATH.

With one format, -o names the output file. With several, -o is a base path
and each format gets its own extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), argOrStdin(args), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&opts.format, "format", "", "input format: json, yaml, toml (default: from extension)")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show pointer and source line in node labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	opts.layout.register(cmd)

	return cmd
}

// runRender runs the full pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	data, format, err := c.readInput(ctx, input, opts.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.layout.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.pipelineOptions(input, format, opts.layout)
	popts.Formats = opts.formats
	popts.Detailed = opts.detailed
	popts.Scale = opts.scale

	spinner := startSpinner(ctx, uiOut, "Rendering "+strings.Join(uniqueFormats(opts.formats), ", "))
	result, err := runner.Execute(ctx, data, popts)
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Stop()

	paths := outputPaths(opts.output, input, opts.formats)
	for _, f := range uniqueFormats(opts.formats) {
		if err := c.writeArtifact(paths[f], result.Artifacts[f]); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes", f, len(result.Artifacts[f]))
	}

	printSuccess("Rendered %s (%s layout)", inputName(input), result.Stats.Algorithm)
	for _, f := range uniqueFormats(opts.formats) {
		printFile(paths[f])
	}
	printStats(result.Stats.VisibleNodes, len(result.Layout.Edges), result.CacheInfo.RenderHit)
	return nil
}

func (c *CLI) writeArtifact(path string, data []byte) error {
	out, err := c.openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// outputPaths maps each format to its output file. A single format with
// an explicit output uses it verbatim.
func outputPaths(output, input string, formats []string) map[string]string {
	uniq := uniqueFormats(formats)
	paths := make(map[string]string, len(uniq))
	if len(uniq) == 1 && output != "" {
		paths[uniq[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range uniq {
		paths[f] = base + "." + f
	}
	return paths
}

func uniqueFormats(formats []string) []string {
	var out []string
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
