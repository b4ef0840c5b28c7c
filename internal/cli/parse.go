package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/pkg/document"
	jsonio "github.com/jsonviz/jsonviz/pkg/io"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output      string
	format      string
	sourceLines bool
	noCache     bool
}

// parseCommand creates the parse command, which converts a document into
// its tree map.
func (c *CLI) parseCommand() *cobra.Command {
	var opts parseOpts

	cmd := &cobra.Command{
		Use:     "parse [file]",
		Aliases: []string{"tree"},
		Short:   "Build the tree map of a JSON, YAML or TOML document",
		Long: `Build the tree map of a document.

Every value becomes a node keyed by its JSON Pointer ("$root" for the document
itself). Containers list their children in document order. The result is
written as JSON and can be fed back with 'layout --tree'.

Reads stdin when no file (or "-") is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), argOrStdin(args), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "input format: json, yaml, toml (default: from extension)")
	cmd.Flags().BoolVar(&opts.sourceLines, "source-lines", false, "record exact source lines (YAML only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runParse(ctx context.Context, input string, opts parseOpts) error {
	data, format, err := c.readInput(ctx, input, opts.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.pipelineOptions(input, format, layoutFlags{})
	popts.SourceLines = opts.sourceLines && format == document.FormatYAML

	m, cacheHit, err := runner.TreeWithCacheInfo(ctx, data, popts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", inputName(input), err)
	}

	out, err := c.openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := jsonio.WriteJSON(m, out); err != nil {
		return fmt.Errorf("write tree map: %w", err)
	}

	if opts.output != "" {
		printSuccess("Parsed %s", inputName(input))
		printFile(opts.output)
		printStats(m.Len(), max(m.Len()-1, 0), cacheHit)
		printNewline()
		printNextStep("Lay out", appName+" layout "+input)
	}
	return nil
}

// argOrStdin returns the single positional argument, or "-" for stdin.
func argOrStdin(args []string) string {
	if len(args) == 0 {
		return stdinName
	}
	return args[0]
}
