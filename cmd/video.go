package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/pipeline"
	"golang.org/x/sync/errgroup"
)

func videoCommand(a *app) *cobra.Command {

	var out string

	cmd := &cobra.Command{
		Use:   "video <file>",
		Short: "Detect diseases in a stored video, writing an annotated copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			if out != "" {
				a.settings.Output.Video = out
			}

			return a.runSession(cmd.Context(), func(ctx context.Context, g *errgroup.Group, res geo.Resolver) (sessionOptions, error) {

				src, err := pipeline.OpenVideo(args[0])

				if err != nil {
					return sessionOptions{}, err
				}

				return sessionOptions{
					source:  src,
					sinks:   a.frameSinks(args[0], src.FPS(), false, false),
					centre:  a.settings.Location.Reference,
					summary: true,
				}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the annotated video to this file")

	return cmd
}
