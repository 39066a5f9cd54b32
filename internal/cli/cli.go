// Package cli implements the flowscript command-line interface.
//
// The CLI edits named sessions stored between invocations, compiles them to
// selenium-webdriver scripts, and manages the script library:
//
//	flowscript new "Login flow"
//	flowscript node add navigate --url https://example.com --after start-node
//	flowscript generate --headless
//	flowscript save
//
// Every command that edits or reads a flow works on the session selected with
// --session (default "default"). Configuration comes from config.toml,
// a .env file and FLOWSCRIPT_* variables; see pkg/config.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscript/pkg/buildinfo"
	"github.com/matzehuels/flowscript/pkg/config"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = config.AppName

	// defaultSession is the session edited when --session is not given.
	defaultSession = "default"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	sessionID  string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		sessionID: defaultSession,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowscript compiles browser-automation flows into Selenium scripts",
		Long: `Flowscript builds browser-automation flows out of typed steps (navigate, click,
type, wait, ...) and compiles them into runnable selenium-webdriver scripts.

Flows are edited in named sessions, saved to a script library, exported as
JSON or YAML documents, rendered as diagrams and served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.sessionID, "session", "s", c.sessionID, "session to edit")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/flowscript/config.toml)")

	// Editing
	root.AddCommand(c.newCommand())
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.disconnectCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.sessionsCommand())

	// Compiling
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.renderCommand())

	// Library, catalog and infrastructure
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.kindsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	c.registerCompletions(root)
	return root
}

// =============================================================================
// Configuration & Factories
// =============================================================================

func (c *CLI) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// config returns the loaded configuration, falling back to defaults when a
// command runs without the root's pre-run hook.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	r, err := c.config().NewRunner(ctx, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	return r, nil
}

// =============================================================================
// Sessions
// =============================================================================

// loadSession returns the selected session, or a fresh one when it does not
// exist yet.
func (c *CLI) loadSession(ctx context.Context, store session.Store) (*session.Session, error) {
	s, err := session.Load(ctx, store, c.sessionID)
	if errors.Is(err, session.ErrNotFound) {
		c.Logger.Debug("Starting new session", "session", c.sessionID)
		return session.NewWithID(c.sessionID, "")
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", c.sessionID, err)
	}
	return s, nil
}

// withSession loads the selected session, calls fn, and stores the session
// again when persist is set and fn succeeded.
func (c *CLI) withSession(ctx context.Context, persist bool, fn func(*session.Session) error) error {
	store, err := c.config().OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}
	defer store.Close()

	s, err := c.loadSession(ctx, store)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	if !persist {
		return nil
	}
	if err := session.Save(ctx, store, s); err != nil {
		return fmt.Errorf("save session %s: %w", c.sessionID, err)
	}
	return nil
}

// withRunner opens a pipeline runner around fn and closes it afterwards.
func (c *CLI) withRunner(ctx context.Context, fn func(*pipeline.Runner) error) error {
	r, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

// headless resolves the --headless flag against the configured default.
func (c *CLI) headless(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("headless") {
		return flag
	}
	return c.config().Generate.Headless
}
