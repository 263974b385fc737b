package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cloudsketch/internal/server"
	"github.com/matzehuels/cloudsketch/pkg/planner"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		plannerURL string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve code generation over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if plannerURL != "" {
				cfg.Server.PlannerURL = plannerURL
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := server.Options{
				Runner: runner,
				Server: cfg.Server,
				Render: cfg.Render,
				Logger: c.Logger,
			}
			if cfg.Server.PlannerURL != "" {
				p, err := planner.NewHTTPPlanner(cfg.Server.PlannerURL)
				if err != nil {
					return err
				}
				opts.Planner = p
			}

			printKeyValue("listen", cfg.Server.Addr)
			printKeyValue("cache", cacheLabel(cfg.Cache.Backend, noCache))
			return server.New(opts).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&plannerURL, "planner", "", "planner endpoint for /v1/diagrams/query")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func cacheLabel(backend string, disabled bool) string {
	if disabled {
		return "disabled"
	}
	return backend
}
