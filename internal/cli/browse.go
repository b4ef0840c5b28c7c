package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/pkg/cache"
	"github.com/jsonviz/jsonviz/pkg/pipeline"
	"github.com/jsonviz/jsonviz/pkg/session"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// browseCommand creates the browse command, an interactive tree browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		format    string
		flags     layoutFlags
		noSession bool
	)

	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse a document interactively with collapsible nodes",
		Long: `Browse a document as an indented tree.

Containers can be collapsed and expanded; collapsing a node hides its whole
subtree, exactly as --collapse does for layout and render. Press "p" to
print the pointer of the selected node and exit.

The collapsed nodes and the cursor are remembered per document content and
restored on the next run, unless --collapse, --collapse-depth or
--no-session is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], format, flags, noSession)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format: json, yaml, toml (default: from extension)")
	cmd.Flags().StringSliceVar(&flags.collapsed, "collapse", nil, "start with the node at this pointer collapsed (repeatable)")
	cmd.Flags().IntVar(&flags.collapseDepth, "collapse-depth", 0, "start with every container at this depth collapsed")
	cmd.Flags().BoolVar(&noSession, "no-session", false, "neither restore nor save the browsing session")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input, format string, flags layoutFlags, noSession bool) error {
	data, docFormat, err := c.readInput(ctx, input, format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.pipelineOptions(input, docFormat, flags)
	m, err := runner.Tree(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", inputName(input), err)
	}
	root, err := tree.FindRoot(m)
	if err != nil {
		return err
	}

	var (
		store    *session.FileStore
		sess     *session.Session
		restored bool
	)
	if !noSession {
		store, sess, restored = c.loadSession(ctx, cache.Hash(data), inputName(input))
	}

	model := NewBrowseModel(m, root, pipeline.CollapsedSet(m, root, opts))
	if restored && len(flags.collapsed) == 0 && flags.collapseDepth == 0 {
		model.Restore(sess.Collapsed, sess.Selected)
	}

	p := tea.NewProgram(model, tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(BrowseModel)
	if !ok {
		return nil
	}
	if store != nil {
		sess.Collapsed = fm.Collapsed.IDs()
		sess.Selected = fm.CurrentID()
		sess.Touch(session.DefaultTTL)
		if err := store.Set(ctx, sess); err != nil {
			c.Logger.Warn("save browse session", "err", err)
		}
	}
	if fm.Selected == "" {
		return nil
	}
	_, err = fmt.Fprintln(c.stdout, fm.Selected)
	return err
}

// loadSession opens the session store and returns the saved session for
// the document, or a new one with restored set to false. Failures only
// disable session saving.
func (c *CLI) loadSession(ctx context.Context, id, source string) (store *session.FileStore, sess *session.Session, restored bool) {
	store, err := session.NewFileStore("")
	if err != nil {
		c.Logger.Debug("browse sessions disabled", "err", err)
		return nil, nil, false
	}
	if err := store.Cleanup(ctx); err != nil {
		c.Logger.Debug("clean up browse sessions", "err", err)
	}
	sess, err = store.Get(ctx, id)
	if err != nil {
		c.Logger.Debug("load browse session", "err", err)
	}
	if sess == nil {
		return store, session.New(id, source, session.DefaultTTL), false
	}
	return store, sess, true
}
