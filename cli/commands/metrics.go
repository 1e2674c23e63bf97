package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/config"
	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/telemetry"
)

func newServeMetricsCommand(a *app) *cobra.Command {
	var collections []string
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics for the configured store",
		Long: `Open the store, provision any --collection given and serve /metrics
until interrupted. Set PRISMA_DOCDB_METRICS_DISABLED=1 to refuse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if telemetry.IsDisabled() {
				return errors.New("metrics are disabled by PRISMA_DOCDB_METRICS_DISABLED")
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := a.metrics.WatchResources(s.adapter.Resources()); err != nil {
				return err
			}
			for _, name := range collections {
				if _, err := s.adapter.EnsureCollection(ctx, collectionRef(name, "")); err != nil {
					return err
				}
			}

			ui.PrintInfo("Serving metrics on %s/metrics", a.cfg.MetricsAddr)
			return a.metrics.Serve(ctx, a.cfg.MetricsAddr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :9464)")
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "collections to provision before serving")
	_ = a.v.BindPFlag(config.KeyMetricsAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
