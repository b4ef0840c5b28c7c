package cli

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/worker"
)

// streamOpts holds the command-line flags for the stream command.
type streamOpts struct {
	format     string
	requestID  string
	quiet      bool
	horizontal bool
	spacing    float64
	large      bool
	maxNodes   int
	compact    bool
	noAutoTune bool
	prealloc   bool
}

// streamCommand creates the stream command, which runs the streaming worker
// locally and prints its messages as JSON lines.
func (c *CLI) streamCommand() *cobra.Command {
	var opts streamOpts

	cmd := &cobra.Command{
		Use:   "stream [file]",
		Short: "Stream a document through the worker protocol as JSON lines",
		Long: `Stream a document through the worker protocol.

Every message the worker emits (progress, partial batches and the terminal
message) is printed as one JSON object per line, exactly as the /v1/ws
endpoint would send it. Interrupting the command cancels the job.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStream(cmd.Context(), argOrStdin(args), opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "input format: json, yaml, toml (default: from extension)")
	cmd.Flags().StringVar(&opts.requestID, "request-id", "", "request ID (default: random UUID)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the terminal message")
	cmd.Flags().BoolVar(&opts.horizontal, "horizontal", false, "lay out depth along the x axis")
	cmd.Flags().Float64Var(&opts.spacing, "spacing", 0, "distance between depth levels (default: layout default)")
	cmd.Flags().BoolVar(&opts.large, "large", false, "optimize for large data: truncate labels and batch more")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "order the final node list by depth above this many nodes")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "use the compact columnar encoding")
	cmd.Flags().BoolVar(&opts.noAutoTune, "no-autotune", false, "keep flush thresholds fixed")
	cmd.Flags().BoolVar(&opts.prealloc, "preallocate", false, "preallocate record buffers")

	return cmd
}

// streamPayload builds the job payload. YAML and TOML travel as a JSON
// string holding the document text.
func streamPayload(id string, data []byte, format document.Format, opts streamOpts) (worker.ProcessPayload, error) {
	p := worker.ProcessPayload{
		RequestID: id,
		Format:    format,
		JSONData:  json.RawMessage(data),
		Options: worker.Options{
			Spacing:              opts.spacing,
			OptimizeForLargeData: opts.large,
			MaxNodesToProcess:    opts.maxNodes,
			Compact:              opts.compact,
			Preallocate:          opts.prealloc,
		},
	}
	if opts.horizontal {
		p.Options.Direction = worker.Horizontal
	}
	if opts.noAutoTune {
		off := false
		p.Options.AutoTune = &off
	}
	if format != document.FormatJSON {
		text, err := json.Marshal(string(data))
		if err != nil {
			return worker.ProcessPayload{}, err
		}
		p.JSONData = text
	}
	return p, nil
}

func (c *CLI) runStream(ctx context.Context, input string, opts streamOpts) error {
	data, format, err := c.readInput(ctx, input, opts.format)
	if err != nil {
		return err
	}

	id := opts.requestID
	if id == "" {
		id = uuid.NewString()
	}
	payload, err := streamPayload(id, data, format, opts)
	if err != nil {
		return err
	}

	cfg := c.config().Worker.WorkerConfig()
	cfg.Logger = c.Logger
	w := worker.New(cfg)
	w.Start(ctx)
	defer w.Close()

	prog := newProgress(c.Logger)
	if err := w.Submit(ctx, payload); err != nil {
		return err
	}

	enc := json.NewEncoder(c.stdout)
	for m := range w.Messages() {
		if m.RequestID != id {
			continue
		}
		terminal := m.Type.Terminal()
		if !opts.quiet || terminal {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		}
		if !terminal {
			continue
		}
		switch m.Type {
		case worker.TypeError:
			return errors.New(m.Code, "%s", m.Error)
		case worker.TypeCancelled:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New(errors.ErrCodeCancelled, "request %s was cancelled", id)
		}
		prog.done(fmt.Sprintf("Streamed %d nodes", m.NodesCount))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New(errors.ErrCodeInternal, "worker stopped before request %s finished", id)
}
