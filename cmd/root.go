// Package cmd implements the cropwatch command line
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	cropwatch "github.com/swdee/go-cropwatch"
	"github.com/swdee/go-cropwatch/conf"
	"github.com/swdee/go-cropwatch/logging"
)

// RootCommand returns the cropwatch command with all sub commands
func RootCommand() *cobra.Command {

	a := &app{v: viper.New()}

	var configFile string

	rootCmd := &cobra.Command{
		Use:   "cropwatch",
		Short: "Detect, geo-tag and map crop diseases from images, video and drone streams",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

			settings, err := conf.Load(a.v, configFile)

			if err != nil {
				return err
			}

			logger, err := logging.New(settings.Log)

			if err != nil {
				return err
			}

			a.settings = settings
			a.logger = logger

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file, default ./config.yaml")

	if err := setupFlags(rootCmd.PersistentFlags(), a.v); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		imageCommand(a),
		cameraCommand(a),
		videoCommand(a),
		droneCommand(a),
		serveCommand(a),
		regionCommand(),
	)

	return rootCmd
}

// setupFlags defines the flags shared by all commands and binds them to
// their settings keys so flags take precedence over the config file and
// environment
func setupFlags(flags *pflag.FlagSet, v *viper.Viper) error {

	flags.Float64P("threshold", "t", 0.7, "Confidence a detection must exceed to be recorded, 0.0 to 1.0")
	flags.String("crop", "paddy", fmt.Sprintf("Crop model profile, one of %v", cropwatch.ProfileNames()))
	flags.String("diseases", "", "YAML file replacing the default disease table")
	flags.String("detector", "onnx", "Detector kind, onnx or remote")
	flags.String("model", "", "ONNX model file, overrides the crop profile")
	flags.String("labels", "", "Labels file, overrides the crop profile")
	flags.String("detector-url", "", "URL of the remote inference service")
	flags.Int("pool", 1, "Number of detector instances shared between sessions")
	flags.String("location", "synthetic", "Location mode, synthetic or telemetry")
	flags.String("telemetry", "", "NMEA telemetry source, tcp://host:port or a serial device")
	flags.String("map", "", "Map artifact path, .html or .png")
	flags.Bool("display", false, "Show annotated frames in a window")
	flags.String("log-level", "info", "Log level, debug, info, warn or error")

	bind := map[string]string{
		"threshold":          "threshold",
		"crop":               "crop",
		"diseases":           "diseases",
		"detector.kind":      "detector",
		"detector.model":     "model",
		"detector.labels":    "labels",
		"detector.url":       "detector-url",
		"detector.poolsize":  "pool",
		"location.mode":      "location",
		"location.telemetry": "telemetry",
		"output.map":         "map",
		"output.display":     "display",
		"log.level":          "log-level",
	}

	for key, flag := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
