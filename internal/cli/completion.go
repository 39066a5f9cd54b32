package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscript/pkg/document"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/session"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: fmt.Sprintf(`Generate shell completion scripts for %[1]s.

Completions cover commands and flags as well as step ids, sessions and saved
script names, read from the configured stores.

  $ source <(%[1]s completion bash)
  $ %[1]s completion zsh > "${fpath[1]}/_%[1]s"
  $ %[1]s completion fish > ~/.config/fish/completions/%[1]s.fish
  PS> %[1]s completion powershell | Out-String | Invoke-Expression
`, appName),
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerCompletions attaches dynamic argument and flag completion to the
// command tree built by RootCommand.
func (c *CLI) registerCompletions(root *cobra.Command) {
	args := map[string]cobra.CompletionFunc{
		"node set":       c.completeNodeIDs(1),
		"node move":      c.completeNodeIDs(1),
		"node rm":        c.completeNodeIDs(1),
		"connect":        c.completeNodeIDs(2),
		"disconnect":     c.completeEdges,
		"sessions rm":    c.completeSessions,
		"library show":   c.completeScripts,
		"library open":   c.completeScripts,
		"library run":    c.completeScripts,
		"library rm":     c.completeScripts,
		"node add":       completeKinds,
		"import":         completeDocumentFiles,
		"render":         cobra.NoFileCompletions,
		"generate":       cobra.NoFileCompletions,
		"export":         cobra.NoFileCompletions,
		"library browse": cobra.NoFileCompletions,
	}
	for path, fn := range args {
		if cmd, _, err := root.Find(strings.Fields(path)); err == nil {
			cmd.ValidArgsFunction = fn
		}
	}

	flags := map[string]map[string][]string{
		"render":   {"format": formatNames(render.FormatSVG, render.FormatPNG, render.FormatDOT), "direction": {"TB", "LR"}},
		"export":   {"format": formatNames(document.FormatJSON, document.FormatYAML)},
		"node add": {"wait-mode": {string(flow.WaitElement), string(flow.WaitTime)}},
		"node set": {"wait-mode": {string(flow.WaitElement), string(flow.WaitTime)}},
	}
	for path, byFlag := range flags {
		cmd, _, err := root.Find(strings.Fields(path))
		if err != nil {
			continue
		}
		for name, values := range byFlag {
			_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		}
	}
	_ = root.RegisterFlagCompletionFunc("session", c.completeSessions)
}

func formatNames[F ~string](formats ...F) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []cobra.Completion
	for _, k := range flow.Kinds() {
		out = append(out, cobra.CompletionWithDesc(k.String(), flow.Description(k)))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeDocumentFiles(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []cobra.Completion{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completionSession loads the selected session without the root's pre-run
// hook, which cobra skips while completing. Completion never persists it.
func (c *CLI) completionSession(ctx context.Context) (*session.Session, error) {
	_ = c.loadConfig()
	store, err := c.config().OpenSessions(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return c.loadSession(ctx, store)
}

// completeNodeIDs offers step ids for the first n positional arguments.
func (c *CLI) completeNodeIDs(n int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		s, err := c.completionSession(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []cobra.Completion
		for _, node := range s.Graph().Nodes {
			if strings.HasPrefix(node.ID, toComplete) {
				out = append(out, cobra.CompletionWithDesc(node.ID, node.DisplayLabel()))
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeEdges offers edge ids for the single-argument form of disconnect
// and targets of the source for the two-argument form.
func (c *CLI) completeEdges(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := c.completionSession(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	g := s.Graph()
	var out []cobra.Completion
	if len(args) == 1 {
		for _, e := range g.Outgoing(args[0]) {
			out = append(out, cobra.Completion(e.Target))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
	for _, e := range g.Edges {
		out = append(out, cobra.CompletionWithDesc(e.ID, e.Source+" → "+e.Target))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func (c *CLI) completeSessions(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	store, err := c.config().OpenSessions(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer store.Close()
	ids, err := store.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func (c *CLI) completeScripts(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	r, err := c.newRunner(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer r.Close()
	scripts, err := r.Scripts(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	out := make([]cobra.Completion, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, cobra.CompletionWithDesc(s.Name, plural(s.Nodes, "step")))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
