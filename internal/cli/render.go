package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/session"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path, "-" for stdout
	format    string // dot, svg or png
	direction string // TB or LR
	detailed  bool   // show step parameters in node labels
	noCache   bool   // re-render even when a cached diagram exists
}

// renderCommand creates the "render" command, which draws the flow as a diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the flow as an SVG, PNG or DOT diagram",
		Long: `Draw the flow as an SVG, PNG or DOT diagram.

Steps are numbered in execution order and coloured by kind; steps that are
not reachable from the start node are drawn dashed. Diagrams are cached by
flow content, so rendering an unchanged flow again is instant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ro := pipeline.RenderOptions{
				Direction: opts.direction,
				Detailed:  opts.detailed,
				Refresh:   opts.noCache,
			}
			f, err := parseRenderFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			ro.Format = f
			if err := ro.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd, ro, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, "-" for stdout (default <script-name>.<format>)`)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, dot")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", "TB", "layout direction: TB, LR")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show step parameters in the diagram")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "ignore cached diagrams")

	return cmd
}

// runRender renders the selected session and writes the diagram.
func (c *CLI) runRender(cmd *cobra.Command, opts pipeline.RenderOptions, output string) error {
	ctx := cmd.Context()
	return c.withSession(ctx, false, func(s *session.Session) error {
		return c.withRunner(ctx, func(r *pipeline.Runner) error {
			prog := newProgress(c.Logger)
			d, err := r.Render(ctx, s, opts)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			prog.done("Rendered diagram")

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(d.Data)
				return err
			}
			path := output
			if path == "" {
				path = ferrors.SanitizeFilename(s.ScriptName()) + "." + string(d.Format)
			}
			if err := os.WriteFile(path, d.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			g := s.Graph()
			printSuccess("Rendered %s", s.ScriptName())
			printStats(len(g.Nodes), len(g.Edges), cacheStatus(d.CacheHit))
			printFile(path)
			return nil
		})
	})
}

// parseRenderFormat picks the diagram format from --format, falling back to
// the output file's extension.
func parseRenderFormat(format, output string) (render.Format, error) {
	if format == "" && output != "" && output != "-" {
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" {
			format = ext
		}
	}
	return render.ParseFormat(format)
}
