package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	jsonio "github.com/jsonviz/jsonviz/pkg/io"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		format   string
		fromTree bool
		flags    layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute the node-link layout of a document",
		Long: `Compute the node-link layout of a document.

The layout command places every visible node and emits one edge per
parent/child, spouse and sibling relation. Trees up to --threshold nodes use
the relational layout; larger ones fall back to the linear layout. The output
is a layout.json file (same format as 'render -f json').

With --tree the input is a tree map written by 'parse' instead of a document.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), argOrStdin(args), format, fromTree, output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, stdout for stdin)")
	cmd.Flags().StringVar(&format, "format", "", "input format: json, yaml, toml (default: from extension)")
	cmd.Flags().BoolVar(&fromTree, "tree", false, "read a tree map produced by 'parse'")
	flags.register(cmd)

	return cmd
}

// runLayout loads the input, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, format string, fromTree bool, output string, flags layoutFlags) error {
	data, docFormat, err := c.readInput(ctx, input, format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.pipelineOptions(input, docFormat, flags)

	spinner := startSpinner(ctx, uiOut, "Building tree")

	var (
		m        *tree.Map
		res      layout.Result
		cacheHit bool
	)
	if fromTree {
		m, err = jsonio.UnmarshalMap(data)
	} else {
		m, _, err = runner.TreeWithCacheInfo(ctx, data, opts)
	}
	if err == nil {
		spinner.Stage(fmt.Sprintf("Computing layout of %d nodes", m.Len()))
		res, cacheHit, err = runner.LayoutWithCacheInfo(ctx, m, opts)
	}
	if err != nil {
		spinner.Fail()
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" && input != stdinName {
		outputPath = basePath("", input) + ".layout.json"
	}

	out, err := c.openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := jsonio.WriteLayout(res, out); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if outputPath != "" {
		printSuccess("Layout complete (%s)", res.Algorithm)
		printFile(outputPath)
		printStats(len(res.Nodes), len(res.Edges), cacheHit)
		printNewline()
		printNextStep("Render", appName+" render -f svg "+input)
	}
	return nil
}
