package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscript/pkg/document"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/session"
)

// generateCommand creates the "generate" command, which prints the script.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output   string
		headless bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the Selenium script for the flow",
		Long: `Print the Selenium script for the flow.

Steps run in depth-first order from the start node, following connections in
the order they were made. Steps not reachable from the start node are left
out. The flow is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withSession(ctx, false, func(s *session.Session) error {
				return c.withRunner(ctx, func(r *pipeline.Runner) error {
					text, err := r.Generate(ctx, s, c.headless(cmd, headless))
					if err != nil {
						return err
					}
					if output == "" {
						_, err := fmt.Fprint(cmd.OutOrStdout(), text)
						return err
					}
					if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
						return fmt.Errorf("write %s: %w", output, err)
					}
					printSuccess("Generated %s", s.ScriptName())
					printFile(output)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the script to a file instead of stdout")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window (default from config)")
	return cmd
}

// saveCommand creates the "save" command.
func (c *CLI) saveCommand() *cobra.Command {
	var (
		name     string
		headless bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the script and its flow to the library",
		Long: `Save the script and its flow to the library under the script name.
An existing entry with the same name is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withSession(ctx, true, func(s *session.Session) error {
				if cmd.Flags().Changed("name") {
					s.SetScriptName(name)
				}
				return c.withRunner(ctx, func(r *pipeline.Runner) error {
					prog := newProgress(c.Logger)
					e, err := r.Save(ctx, s, c.headless(cmd, headless))
					if err != nil {
						return err
					}
					prog.done("Compiled and stored script")
					printSuccess("Saved %s", StyleHighlight.Render(e.Name))
					printDetail("%d steps, saved %s", len(e.Document.Nodes), e.SavedAt.Local().Format(time.DateTime))
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "rename the script before saving")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window (default from config)")
	return cmd
}

// runCommand creates the "run" command.
func (c *CLI) runCommand() *cobra.Command {
	var headless bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate the script and run it",
		Long: `Generate the script and run it with the configured runner.

The browser window is visible unless --headless is given. A script that
runs but fails is reported with its log and a non-zero exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withSession(ctx, false, func(s *session.Session) error {
				return c.withRunner(ctx, func(r *pipeline.Runner) error {
					text, err := r.Generate(ctx, s, headless)
					if err != nil {
						return err
					}
					return c.execute(cmd, r, s.ScriptName(), text, headless)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	return cmd
}

// execute runs a script behind a spinner and prints its result.
func (c *CLI) execute(cmd *cobra.Command, r *pipeline.Runner, name, text string, headless bool) error {
	spinner := newRunSpinner(cmd.Context(), cmd.ErrOrStderr(), name)
	spinner.Start()
	res, err := r.Execute(cmd.Context(), name, text, headless)
	spinner.Stop()
	if err == nil {
		printRunLogs(cmd.OutOrStdout(), res.Logs)
	}
	return spinner.Finish(res, err)
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the flow as a JSON or YAML document",
		Long: `Write the flow as a JSON or YAML document.

Without --output the file is named after the script, for example
"My Selenium Script" is written to my-selenium-script.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.exportTo(cmd, output, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default <script-name>.json)`)
	cmd.Flags().StringVarP(&format, "format", "f", "", "document format: json (default), yaml")
	return cmd
}

func (c *CLI) exportTo(cmd *cobra.Command, output, format string) error {
	ctx := cmd.Context()
	toStdout := output == "-"
	if toStdout {
		output = ""
	}
	if format == "" && output != "" {
		format = string(document.FormatFromPath(output))
	}
	f, err := document.ParseFormat(format)
	if err != nil {
		return err
	}

	return c.withSession(ctx, false, func(s *session.Session) error {
		return c.withRunner(ctx, func(r *pipeline.Runner) error {
			exp, err := r.Export(s, f)
			if err != nil {
				return err
			}
			if toStdout {
				_, err := cmd.OutOrStdout().Write(exp.Data)
				return err
			}
			path := output
			if path == "" {
				path = exp.Filename
			}
			if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printSuccess("Exported %s", s.ScriptName())
			printFile(path)
			return nil
		})
	})
}

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the flow with a JSON or YAML document",
		Long: `Replace the flow with a JSON or YAML document, such as one written by
"export". An invalid document leaves the flow unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return c.withSession(ctx, true, func(s *session.Session) error {
				return c.withRunner(ctx, func(r *pipeline.Runner) error {
					if err := r.Import(s, data); err != nil {
						return fmt.Errorf("import %s: %w", args[0], err)
					}
					g := s.Graph()
					printSuccess("Imported %s", args[0])
					printStats(len(g.Nodes), len(g.Edges))
					return nil
				})
			})
		},
	}
}
