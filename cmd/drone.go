package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/pipeline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func droneCommand(a *app) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "drone <stream-url>",
		Short: "Detect diseases from a drone video stream geo-tagged with its GPS telemetry",
		Long: "Reads the drone video stream, eg: rtsp://192.168.1.10/live, and tags each " +
			"accepted detection with the latest fix read from the NMEA telemetry source " +
			"given by --telemetry.  Press q in the window to stop.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			a.settings.Location.Mode = "telemetry"

			return a.runSession(cmd.Context(), func(ctx context.Context, g *errgroup.Group, res geo.Resolver) (sessionOptions, error) {

				src, err := pipeline.OpenVideo(args[0])

				if err != nil {
					return sessionOptions{}, err
				}

				a.logger.Info("Drone stream opened",
					zap.String("stream", args[0]),
					zap.String("telemetry", a.settings.Location.Telemetry))

				return sessionOptions{
					source:  src,
					sinks:   a.frameSinks("Drone Crop Disease Detection", src.FPS(), true, false),
					centre:  a.settings.Location.Reference,
					summary: true,
				}, nil
			})
		},
	}

	return cmd
}
