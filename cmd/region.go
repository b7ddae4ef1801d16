package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/mapsink"
	"github.com/swdee/go-cropwatch/region"
)

func regionCommand() *cobra.Command {

	var (
		file   string
		margin float64
		plot   string
	)

	cmd := &cobra.Command{
		Use:   "region [lat,lon ...]",
		Short: "Print the convex region enclosing a set of locations",
		Long: "Locations are given as lat,lon arguments or as a JSON file of " +
			"[[lat, lon], ...] pairs.  The closed region is printed as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {

			points, err := parsePoints(args)

			if err != nil {
				return err
			}

			if file != "" {
				more, err := readPoints(file)

				if err != nil {
					return err
				}

				points = append(points, more...)
			}

			if len(points) < 3 {
				return fmt.Errorf("at least 3 points are required to form a region")
			}

			reg := region.Enclose(points)

			if margin > 0 {
				if reg, err = reg.Expand(margin); err != nil {
					return err
				}
			}

			out := struct {
				EnclosedRegion region.Region `json:"enclosed_region"`
				AreaKm2        float64       `json:"area_km2"`
				PerimeterKm    float64       `json:"perimeter_km"`
			}{reg, reg.AreaKm2(), reg.Perimeter()}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if err := enc.Encode(out); err != nil {
				return err
			}

			if plot == "" {
				return nil
			}

			sink, err := mapsink.New("", plot, points[0])

			if err != nil {
				return err
			}

			for _, p := range points {
				sink.AddMarker(p, "blue", p.String())
			}

			sink.AddRegion(reg)

			return sink.Save(plot)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of [[lat, lon], ...] pairs")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Expand the region by this many degrees")
	cmd.Flags().StringVar(&plot, "plot", "", "Also plot the points and region to this .html or .png file")

	return cmd
}

// parsePoints parses lat,lon arguments
func parsePoints(args []string) ([]geo.Point, error) {

	points := make([]geo.Point, 0, len(args))

	for _, arg := range args {
		latStr, lonStr, ok := strings.Cut(arg, ",")

		if !ok {
			return nil, fmt.Errorf("invalid location %q, expected lat,lon", arg)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)

		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", arg, err)
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)

		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", arg, err)
		}

		p := geo.Point{Lat: lat, Lon: lon}

		if err := p.Validate(); err != nil {
			return nil, err
		}

		points = append(points, p)
	}

	return points, nil
}

func readPoints(file string) ([]geo.Point, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error reading points: %w", err)
	}

	var pairs [][2]float64

	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("error parsing points %s: %w", file, err)
	}

	points := make([]geo.Point, len(pairs))

	for i, pair := range pairs {
		points[i] = geo.Point{Lat: pair[0], Lon: pair[1]}

		if err := points[i].Validate(); err != nil {
			return nil, err
		}
	}

	return points, nil
}
