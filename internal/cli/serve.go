package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/internal/server"
	"github.com/cod1ng-earth/splicenft/pkg/observability/prom"
	"github.com/cod1ng-earth/splicenft/pkg/receipt"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		prefetch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render and verification server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			a, err := c.newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			receipts, err := receipt.Open(ctx, a.cfg.ReceiptOpen())
			if err != nil {
				return err
			}
			defer receipts.Close()
			a.gate.WithRecorder(receipts)

			// Hooks are process-global; register them before serving.
			prom.Register(prometheus.DefaultRegisterer)

			if prefetch || a.cfg.Server.Prefetch {
				a.registry.Prefetch(ctx)
			}

			srv, err := server.New(server.Deps{
				Registry:     a.registry,
				Runner:       a.runner,
				Gate:         a.gate,
				Receipts:     receipts,
				Metrics:      prom.Handler(),
				Dim:          a.cfg.Dim(),
				ReadTimeout:  a.cfg.Server.ReadTimeout.Std(),
				WriteTimeout: a.cfg.Server.WriteTimeout.Std(),
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "load every network's catalog at startup")
	return cmd
}
