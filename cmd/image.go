package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/pipeline"
	"golang.org/x/sync/errgroup"
)

func imageCommand(a *app) *cobra.Command {

	var save string

	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Detect diseases in a single image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			last := pipeline.NewLastFrame()
			defer last.Close()

			err := a.runSession(cmd.Context(), func(ctx context.Context, g *errgroup.Group, res geo.Resolver) (sessionOptions, error) {

				src, err := pipeline.OpenImage(args[0])

				if err != nil {
					return sessionOptions{}, err
				}

				sinks := a.frameSinks("Crop Disease Detection", 0, false, true)

				return sessionOptions{
					source:  src,
					sinks:   append(sinks, last),
					centre:  a.settings.Location.Reference,
					summary: true,
				}, nil
			})

			if err != nil {
				return err
			}

			if save == "" {
				return nil
			}

			data, err := last.JPEG()

			if err != nil {
				return err
			}

			if err := os.WriteFile(save, data, 0o644); err != nil {
				return fmt.Errorf("error saving annotated image: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&save, "out", "o", "", "Save the annotated image as JPEG to this file")

	return cmd
}
