package mapsink

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/region"
)

func sampleRegion() region.Region {
	return region.Enclose([]geo.Point{
		{Lat: 16.440, Lon: 80.620},
		{Lat: 16.445, Lon: 80.626},
		{Lat: 16.443, Lon: 80.618},
	})
}

func TestPopup(t *testing.T) {
	assert.Equal(t, "Disease: Rust-Leaf\nMedicine: Hexaconazole or Sulphur",
		Popup("Rust-Leaf", "Hexaconazole or Sulphur"))
}

func TestHTMLSave(t *testing.T) {

	h := NewHTML(geo.DefaultReference, DefaultZoom)
	h.AddMarker(geo.Point{Lat: 16.44, Lon: 80.62}, "orange",
		Popup("Rust-Leaf", "Hexaconazole or Sulphur"))
	h.AddMarker(geo.Point{Lat: 16.441, Lon: 80.621}, "pink",
		Popup("<script>", "x"))
	h.AddRegion(sampleRegion())

	file := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, h.Save(file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "leaflet")
	assert.Contains(t, page, "16.4419")
	assert.Contains(t, page, "Hexaconazole or Sulphur")
	assert.Contains(t, page, "Disease: Rust-Leaf")
	assert.Contains(t, page, "setView(centre,")
	assert.NotContains(t, page, "Disease: <script>", "popup text is escaped")
}

func TestPNGSave(t *testing.T) {

	p := NewPNG(320, 240)
	p.AddMarker(geo.Point{Lat: 16.44, Lon: 80.62}, "orange", Popup("Rust-Leaf", "Sulphur"))
	p.AddMarker(geo.Point{Lat: 16.445, Lon: 80.626}, "unknown", Popup("tungro", "Buprofezin"))
	p.AddRegion(sampleRegion())

	file := filepath.Join(t.TempDir(), "map.png")
	require.NoError(t, p.Save(file))

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestPNGEmpty(t *testing.T) {

	dc := NewPNG(100, 80).Draw()
	assert.Equal(t, 100, dc.Width())
}

func TestNew(t *testing.T) {

	s, err := New("", "out/map.HTML", geo.DefaultReference)
	require.NoError(t, err)
	assert.IsType(t, &HTML{}, s)

	s, err = New("png", "map.html", geo.DefaultReference)
	require.NoError(t, err)
	assert.IsType(t, &PNG{}, s)

	_, err = New("", "map.svg", geo.DefaultReference)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "svg"))
}
