package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/pipeline"
	"golang.org/x/sync/errgroup"
)

func cameraCommand(a *app) *cobra.Command {

	var device int

	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Detect diseases from a live camera, press q in the window to stop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd.Context(), func(ctx context.Context, g *errgroup.Group, res geo.Resolver) (sessionOptions, error) {

				src, err := pipeline.OpenCamera(device)

				if err != nil {
					return sessionOptions{}, err
				}

				return sessionOptions{
					source:  src,
					sinks:   a.frameSinks("Crop Disease Detection", src.FPS(), true, false),
					centre:  a.settings.Location.Reference,
					summary: true,
				}, nil
			})
		},
	}

	cmd.Flags().IntVar(&device, "device", 0, "Camera device id")

	return cmd
}
