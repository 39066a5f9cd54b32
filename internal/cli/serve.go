package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscript/internal/server"
)

// serveCommand creates the "serve" command, which starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flow editor API over HTTP",
		Long: `Serve the flow editor API over HTTP.

Sessions, the script library and the runner are taken from the
configuration. Prometheus metrics are exposed at /metrics. The server stops
gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			sessions, err := cfg.OpenSessions(ctx)
			if err != nil {
				return fmt.Errorf("open sessions: %w", err)
			}
			defer sessions.Close()

			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			srv := server.New(server.Options{
				Runner:   r,
				Sessions: sessions,
				Logger:   c.Logger,
				Headless: cfg.Generate.Headless,
			})

			printSuccess("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			printKeyValue("library", cfg.Library.Backend)
			printKeyValue("sessions", cfg.Sessions.Backend)
			printKeyValue("runner", cfg.Runner.Backend)
			if cfg.Runner.Backend == "dry" {
				printWarning("Scripts are recorded, not run")
			}
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
