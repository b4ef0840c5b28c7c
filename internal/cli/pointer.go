package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/pkg/pointer"
)

// pointerCommand groups the JSON Pointer helpers.
func (c *CLI) pointerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pointer",
		Short: "Encode, decode and build JSON Pointers",
		Long: `Encode, decode and build the JSON Pointers used as node IDs.

A segment escapes "~" as "~0" and "/" as "~1". The document itself is "/".`,
	}

	cmd.AddCommand(c.pointerEncodeCommand())
	cmd.AddCommand(c.pointerDecodeCommand())
	cmd.AddCommand(c.pointerParseCommand())
	cmd.AddCommand(c.pointerBuildCommand())

	return cmd
}

func (c *CLI) pointerEncodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <key>",
		Short: "Escape a raw key as a pointer segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.stdout, pointer.EncodeSegment(args[0]))
			return err
		},
	}
}

func (c *CLI) pointerDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <segment>",
		Short: "Unescape a pointer segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.stdout, pointer.DecodeSegment(args[0]))
			return err
		},
	}
}

func (c *CLI) pointerParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <pointer>",
		Short: "Split a pointer into decoded segments (printed as a JSON array)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segments, err := pointer.Parse(args[0])
			if err != nil {
				return err
			}
			return json.NewEncoder(c.stdout).Encode(segments)
		},
	}
}

func (c *CLI) pointerBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build <key>...",
		Short: "Join raw keys into a pointer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.stdout, pointer.Join(args...))
			return err
		},
	}
}
