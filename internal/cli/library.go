package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscript/pkg/document"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/session"
)

// libraryCommand creates the library command group.
func (c *CLI) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage saved scripts",
	}

	cmd.AddCommand(c.libraryListCommand())
	cmd.AddCommand(c.libraryShowCommand())
	cmd.AddCommand(c.libraryOpenCommand())
	cmd.AddCommand(c.libraryRunCommand())
	cmd.AddCommand(c.libraryRemoveCommand())
	cmd.AddCommand(c.libraryBrowseCommand())

	return cmd
}

func (c *CLI) libraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List saved scripts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRunner(cmd.Context(), func(r *pipeline.Runner) error {
				scripts, err := r.Scripts(cmd.Context())
				if err != nil {
					return err
				}
				if len(scripts) == 0 {
					printInfo("No saved scripts")
					printNextStep("Save the current flow", appName+" save --name \"My Script\"")
					return nil
				}
				now := time.Now()
				for _, s := range scripts {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
						StyleValue.Render(s.Name),
						StyleDim.Render(fmt.Sprintf("%s · %s", plural(s.Nodes, "step"), formatRelativeTime(s.SavedAt, now))))
				}
				return nil
			})
		},
	}
}

func (c *CLI) libraryShowCommand() *cobra.Command {
	var doc bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRunner(cmd.Context(), func(r *pipeline.Runner) error {
				return c.showScript(cmd, r, args[0], doc)
			})
		},
	}
	cmd.Flags().BoolVar(&doc, "document", false, "print the flow document instead of the script")
	return cmd
}

func (c *CLI) showScript(cmd *cobra.Command, r *pipeline.Runner, name string, doc bool) error {
	e, err := r.Script(cmd.Context(), name)
	if err != nil {
		return err
	}
	if !doc {
		_, err := fmt.Fprint(cmd.OutOrStdout(), e.Script)
		return err
	}
	s := session.New(e.Name)
	if err := s.Import(e.Document); err != nil {
		return err
	}
	exp, err := r.Export(s, document.FormatJSON)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(exp.Data)
	return err
}

func (c *CLI) libraryOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Load a saved flow into the selected session for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.openScript(cmd, args[0])
		},
	}
}

func (c *CLI) openScript(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	return c.withSession(ctx, true, func(s *session.Session) error {
		return c.withRunner(ctx, func(r *pipeline.Runner) error {
			if err := r.Open(ctx, s, name); err != nil {
				return err
			}
			g := s.Graph()
			printSuccess("Opened %s", StyleHighlight.Render(s.ScriptName()))
			printStats(len(g.Nodes), len(g.Edges))
			printDetail("Session: %s", s.ID())
			return nil
		})
	})
}

func (c *CLI) libraryRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run a saved script as it was saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRunner(cmd.Context(), func(r *pipeline.Runner) error {
				return c.runSaved(cmd, r, args[0])
			})
		},
	}
}

func (c *CLI) runSaved(cmd *cobra.Command, r *pipeline.Runner, name string) error {
	e, err := r.Script(cmd.Context(), name)
	if err != nil {
		return err
	}
	return c.execute(cmd, r, e.Name, e.Script, c.config().Generate.Headless)
}

func (c *CLI) libraryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Delete a saved script",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRunner(cmd.Context(), func(r *pipeline.Runner) error {
				if err := r.DeleteScript(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) libraryBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick a saved script interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRunner(cmd.Context(), func(r *pipeline.Runner) error {
				scripts, err := r.Scripts(cmd.Context())
				if err != nil {
					return err
				}
				if len(scripts) == 0 {
					printInfo("No saved scripts")
					return nil
				}

				p := tea.NewProgram(NewScriptListModel(scripts), tea.WithContext(cmd.Context()))
				final, err := p.Run()
				if err != nil {
					return fmt.Errorf("library browser: %w", err)
				}
				sel := final.(ScriptListModel).Selected
				if sel == nil {
					return nil
				}

				switch sel.Action {
				case actionOpen:
					return c.openScript(cmd, sel.Name)
				case actionRun:
					return c.runSaved(cmd, r, sel.Name)
				default:
					return c.showScript(cmd, r, sel.Name, false)
				}
			})
		},
	}
}
