package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-cropwatch/geo"
)

func TestParsePoints(t *testing.T) {

	points, err := parsePoints([]string{"16.44,80.62", " 16.45 , 80.63 "})
	require.NoError(t, err)

	assert.Equal(t, []geo.Point{
		{Lat: 16.44, Lon: 80.62},
		{Lat: 16.45, Lon: 80.63},
	}, points)

	for _, bad := range []string{"16.44", "a,80", "16,b", "91,0"} {
		_, err := parsePoints([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestReadPoints(t *testing.T) {

	file := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(file, []byte(`[[1,2],[3,4]]`), 0o600))

	points, err := readPoints(file)
	require.NoError(t, err)
	assert.Equal(t, []geo.Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}, points)

	require.NoError(t, os.WriteFile(file, []byte(`{}`), 0o600))

	_, err = readPoints(file)
	assert.Error(t, err)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Chdir(t.TempDir())

	var out bytes.Buffer

	root := RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestRegionCommand(t *testing.T) {

	out, err := runRoot(t, "region", "0,0", "4,0", "0,4", "1,1")
	require.NoError(t, err)

	var resp struct {
		EnclosedRegion [][2]float64 `json:"enclosed_region"`
		AreaKm2        float64      `json:"area_km2"`
		PerimeterKm    float64      `json:"perimeter_km"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, [][2]float64{{0, 0}, {0, 4}, {4, 0}, {0, 0}}, resp.EnclosedRegion)
	assert.Greater(t, resp.AreaKm2, 0.0)
	assert.Greater(t, resp.PerimeterKm, 0.0)
}

func TestRegionCommandTooFewPoints(t *testing.T) {

	_, err := runRoot(t, "region", "0,0", "4,0")
	assert.Error(t, err)
}

func TestRegionCommandPlot(t *testing.T) {

	plot := filepath.Join(t.TempDir(), "region.html")

	_, err := runRoot(t, "region", "--plot", plot, "--margin", "0.01", "0,0", "0.1,0", "0,0.1")
	require.NoError(t, err)

	info, err := os.Stat(plot)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestInvalidSettings(t *testing.T) {

	_, err := runRoot(t, "--threshold", "1.5", "region", "0,0", "4,0", "0,4")
	assert.Error(t, err)
}
