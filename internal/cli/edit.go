package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/session"
)

// paramFlags holds the node parameter flags shared by "node add" and "node set".
type paramFlags struct {
	url      string
	selector string
	value    string
	code     string
	waitMode string
	wait     int
	timeout  int
	label    string
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.url, "url", "", "URL to navigate to (navigate)")
	cmd.Flags().StringVar(&p.selector, "selector", "", "CSS selector of the target element")
	cmd.Flags().StringVar(&p.value, "value", "", "text to type or option to select")
	cmd.Flags().StringVar(&p.code, "code", "", "JavaScript to insert verbatim (code)")
	cmd.Flags().StringVar(&p.waitMode, "wait-mode", "", "wait for: element (default), time")
	cmd.Flags().IntVar(&p.wait, "wait", 0, "milliseconds to sleep (wait --wait-mode time)")
	cmd.Flags().IntVar(&p.timeout, "timeout", 0, "element wait timeout in milliseconds (default 10000)")
	cmd.Flags().StringVar(&p.label, "label", "", "display label")
}

func (p *paramFlags) params() (flow.Params, error) {
	mode := flow.WaitMode(p.waitMode)
	switch mode {
	case "", flow.WaitElement, flow.WaitTime:
	default:
		return flow.Params{}, ferrors.New(ferrors.ErrCodeInvalidInput, "invalid wait mode %q (use element or time)", p.waitMode)
	}
	if p.wait < 0 || p.timeout < 0 {
		return flow.Params{}, ferrors.New(ferrors.ErrCodeInvalidInput, "wait and timeout must not be negative")
	}
	return flow.Params{
		URL:           p.url,
		Selector:      p.selector,
		Value:         p.value,
		Code:          p.code,
		WaitMode:      mode,
		WaitMillis:    p.wait,
		TimeoutMillis: p.timeout,
	}, nil
}

// patch returns the parameters whose flags were given on the command line.
// A flag given as "" or 0 clears its parameter.
func (p *paramFlags) patch(cmd *cobra.Command) (flow.ParamsPatch, error) {
	var pp flow.ParamsPatch
	flags := cmd.Flags()
	if flags.Changed("url") {
		pp.URL = &p.url
	}
	if flags.Changed("selector") {
		pp.Selector = &p.selector
	}
	if flags.Changed("value") {
		pp.Value = &p.value
	}
	if flags.Changed("code") {
		pp.Code = &p.code
	}
	if flags.Changed("wait-mode") {
		mode := flow.WaitMode(p.waitMode)
		pp.WaitMode = &mode
	}
	if flags.Changed("wait") {
		pp.WaitMillis = &p.wait
	}
	if flags.Changed("timeout") {
		pp.TimeoutMillis = &p.timeout
	}
	return pp, pp.Validate()
}

// =============================================================================
// new / clear
// =============================================================================

// newCommand creates the "new" command, which starts the selected session over.
func (c *CLI) newCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new [script name]",
		Short: "Start a new flow in the selected session",
		Long: `Start a new flow in the selected session.

The flow contains only the start node. Any previous content of the session
is discarded. The script name defaults to "` + session.DefaultScriptName + `".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			s, err := session.NewWithID(c.sessionID, name)
			if err != nil {
				return err
			}
			store, err := c.config().OpenSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("open sessions: %w", err)
			}
			defer store.Close()
			if err := session.Save(cmd.Context(), store, s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			printSuccess("Started %s", StyleHighlight.Render(s.ScriptName()))
			printDetail("Session: %s", s.ID())
			printNextStep("Add a step", appName+" node add navigate --url https://example.com --after "+flow.StartNodeID)
			return nil
		},
	}
}

// clearCommand creates the "clear" command.
func (c *CLI) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the flow to a single start node, keeping the script name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				s.Clear()
				printSuccess("Cleared %s", s.ScriptName())
				return nil
			})
		},
	}
}

// =============================================================================
// node
// =============================================================================

// nodeCommand creates the "node" command group.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Add, change, move, remove and list flow steps",
	}
	cmd.AddCommand(c.nodeAddCommand())
	cmd.AddCommand(c.nodeSetCommand())
	cmd.AddCommand(c.nodeMoveCommand())
	cmd.AddCommand(c.nodeRemoveCommand())
	cmd.AddCommand(c.nodeListCommand())
	return cmd
}

func (c *CLI) nodeAddCommand() *cobra.Command {
	var (
		p     paramFlags
		after string
		x, y  float64
	)
	cmd := &cobra.Command{
		Use:       "add <kind>",
		Short:     "Add a step to the flow",
		Long:      `Add a step to the flow. Run "` + appName + ` kinds" for the list of kinds.`,
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := flow.ParseKind(args[0])
			if err != nil {
				return err
			}
			params, err := p.params()
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				pos := flow.Position{X: x, Y: y}
				if !cmd.Flags().Changed("x") && !cmd.Flags().Changed("y") {
					pos = nextPosition(s.Graph())
				}
				n, err := s.AddNode(kind, pos, params)
				if err != nil {
					return err
				}
				if p.label != "" {
					if err := s.SetLabel(n.ID, p.label); err != nil {
						return err
					}
				}
				if after != "" {
					if _, err := s.Connect(after, n.ID); err != nil {
						return err
					}
				}
				printSuccess("Added %s %s", n.Kind, StyleHighlight.Render(n.ID))
				if after != "" {
					printDetail("%s %s %s", after, iconArrow, n.ID)
				}
				return nil
			})
		},
	}
	p.register(cmd)
	cmd.Flags().StringVar(&after, "after", "", "connect the new step after this node id")
	cmd.Flags().Float64Var(&x, "x", 0, "canvas x position")
	cmd.Flags().Float64Var(&y, "y", 0, "canvas y position")
	return cmd
}

func (c *CLI) nodeSetCommand() *cobra.Command {
	var p paramFlags
	cmd := &cobra.Command{
		Use:   "set <node-id>",
		Short: "Change the parameters of a step",
		Long: `Change the parameters of a step. Only the flags given are applied; other
parameters keep their values. Pass an empty value, for example --selector "",
to clear a parameter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := p.patch(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				onChange, ok := s.Handler(id)
				if !ok {
					return ferrors.New(ferrors.ErrCodeUnknownNode, "no node %q", id)
				}
				n, err := onChange(patch)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("label") {
					if err := s.SetLabel(id, p.label); err != nil {
						return err
					}
				}
				printSuccess("Updated %s", StyleHighlight.Render(n.ID))
				if d := render.Detail(n); d != "" {
					printDetail("%s", d)
				}
				return nil
			})
		},
	}
	p.register(cmd)
	return cmd
}

func (c *CLI) nodeMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <node-id> <x> <y>",
		Short: "Move a step on the canvas",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid y %q", args[2])
			}
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				if err := s.MoveNode(args[0], flow.Position{X: x, Y: y}); err != nil {
					return err
				}
				printSuccess("Moved %s to (%g, %g)", args[0], x, y)
				return nil
			})
		},
	}
}

func (c *CLI) nodeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <node-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a step and its connections",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				if err := s.RemoveNode(args[0]); err != nil {
					return err
				}
				printSuccess("Removed %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) nodeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the steps and connections of the flow",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), false, func(s *session.Session) error {
				g := s.Graph()
				fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render(s.ScriptName()))
				fmt.Fprintln(cmd.OutOrStdout(), renderFlowTable(g))
				printStats(len(g.Nodes), len(g.Edges))
				return nil
			})
		},
	}
}

// =============================================================================
// connect / disconnect
// =============================================================================

func (c *CLI) connectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <source-id> <target-id>",
		Short: "Connect two steps",
		Long: `Connect two steps. The target runs after the source. Connecting the same
pair twice keeps a single connection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				e, err := s.Connect(args[0], args[1])
				if err != nil {
					return err
				}
				printSuccess("Connected %s %s %s", e.Source, iconArrow, e.Target)
				printDetail("Edge: %s", e.ID)
				return nil
			})
		},
	}
}

func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <edge-id> | <source-id> <target-id>",
		Short: "Remove a connection",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if len(args) == 2 {
				id = flow.EdgeID(args[0], args[1])
			}
			return c.withSession(cmd.Context(), true, func(s *session.Session) error {
				if err := s.Disconnect(id); err != nil {
					return err
				}
				printSuccess("Disconnected %s", id)
				return nil
			})
		},
	}
}

// =============================================================================
// sessions
// =============================================================================

func (c *CLI) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listSessions(cmd.Context(), cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <session>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.config().OpenSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("open sessions: %w", err)
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete session %s: %w", args[0], err)
			}
			printSuccess("Deleted session %s", args[0])
			return nil
		},
	})
	return cmd
}

func (c *CLI) listSessions(ctx context.Context, cmd *cobra.Command) error {
	store, err := c.config().OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		printInfo("No sessions")
		return nil
	}
	for _, id := range ids {
		marker := "  "
		if id == c.sessionID {
			marker = StyleHighlight.Render("* ")
		}
		fmt.Fprintln(cmd.OutOrStdout(), marker+id)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// nodeSpacing is the vertical distance between steps placed automatically.
const nodeSpacing = 100

// nextPosition places a new step below the lowest existing one.
func nextPosition(g flow.Graph) flow.Position {
	pos := flow.Position{X: 250, Y: 50}
	for _, n := range g.Nodes {
		if n.Position.Y+nodeSpacing > pos.Y {
			pos = flow.Position{X: n.Position.X, Y: n.Position.Y + nodeSpacing}
		}
	}
	return pos
}
