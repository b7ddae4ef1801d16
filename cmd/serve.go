package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/metrics"
	"github.com/swdee/go-cropwatch/server"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func serveCommand(a *app) *cobra.Command {

	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection HTTP API and signaling relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			if listen != "" {
				a.settings.Server.Listen = listen
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)

			// stops the telemetry reader when setup fails
			defer func() {
				cancel()

				if werr := g.Wait(); err == nil {
					err = werr
				}
			}()

			det, err := a.newDetector()

			if err != nil {
				return err
			}

			defer func() {
				err = multierr.Append(err, det.Close())
			}()

			res, err := a.newResolver(ctx, g)

			if err != nil {
				return err
			}

			table, err := a.settings.DiseaseTable()

			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			m, err := metrics.NewPipeline(reg)

			if err != nil {
				return err
			}

			pub, err := a.newPublisher(ctx)

			if err != nil {
				return err
			}

			var onRecord func(string, ledger.Entry)

			if pub != nil {
				defer pub.Close()
				onRecord = pub.Recorder(ctx)
			}

			srv, err := server.New(server.Config{
				Listen:    a.settings.Server.Listen,
				MaxBodyMB: a.settings.Server.MaxBodyMB,
				Detector:  det,
				Resolver:  res,
				Table:     table,
				Threshold: a.settings.Threshold,
				Codec:     a.settings.Output.Codec,
				Metrics:   m,
				Gatherer:  reg,
				OnRecord:  onRecord,
				Logger:    a.logger,
			})

			if err != nil {
				return err
			}

			g.Go(func() error {
				return srv.Start(ctx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, eg: :8080")

	return cmd
}
