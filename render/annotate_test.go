package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/postprocess"
)

func whiteFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0),
		480, 640, gocv.MatTypeCV8UC3)
}

func accept(t *testing.T, label string, conf float64, box postprocess.BoxRect) postprocess.Accepted {
	t.Helper()

	entry, ok := disease.Default().Lookup(label)
	require.True(t, ok)

	return postprocess.Accepted{
		Detection: postprocess.Detection{Label: label, Confidence: conf, Box: box},
		Color:     entry.Color,
		Remedy:    entry.Remedy,
	}
}

func TestAnnotateSingleDetection(t *testing.T) {

	frame := whiteFrame()
	defer frame.Close()

	box := postprocess.BoxRect{Left: 100, Top: 100, Right: 300, Bottom: 300}

	res, err := NewAnnotator().Annotate(frame, []postprocess.Accepted{
		accept(t, "Rust-Leaf", 0.85, box),
	})
	require.NoError(t, err)
	defer res.Frame.Close()

	assert.True(t, res.HasBanner())
	assert.Equal(t, "Rust-Leaf", res.Disease)
	assert.Equal(t, "Hexaconazole or Sulphur", res.Remedy)

	// box edge is drawn in green (BGR order)
	px := res.Frame.GetVecbAt(200, 100)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{px[0], px[1], px[2]})

	// banner background is black blended at 0.3 over white
	px = res.Frame.GetVecbAt(12, 12)
	assert.InDelta(t, 178, int(px[0]), 2)

	// input frame untouched
	px = frame.GetVecbAt(200, 100)
	assert.Equal(t, []uint8{255, 255, 255}, []uint8{px[0], px[1], px[2]})
	px = frame.GetVecbAt(12, 12)
	assert.Equal(t, uint8(255), px[0])
}

func TestAnnotateLastDetectionWins(t *testing.T) {

	frame := whiteFrame()
	defer frame.Close()

	res, err := NewAnnotator().Annotate(frame, []postprocess.Accepted{
		accept(t, "Rust-Leaf", 0.99, postprocess.BoxRect{Left: 10, Top: 60, Right: 50, Bottom: 100}),
		accept(t, "tungro", 0.71, postprocess.BoxRect{Left: 200, Top: 60, Right: 250, Bottom: 100}),
	})
	require.NoError(t, err)
	defer res.Frame.Close()

	assert.Equal(t, "tungro", res.Disease)
	assert.Equal(t, "Buprofezin or Imidacloprid", res.Remedy)
}

func TestAnnotateNoDetections(t *testing.T) {

	frame := whiteFrame()
	defer frame.Close()

	res, err := NewAnnotator().Annotate(frame, nil)
	require.NoError(t, err)
	defer res.Frame.Close()

	assert.False(t, res.HasBanner())

	// no banner drawn
	px := res.Frame.GetVecbAt(12, 12)
	assert.Equal(t, uint8(255), px[0])
}

func TestAnnotateInvalidBox(t *testing.T) {

	frame := whiteFrame()
	defer frame.Close()

	res, err := NewAnnotator().Annotate(frame, []postprocess.Accepted{
		accept(t, "tungro", 0.9, postprocess.BoxRect{Left: 300, Top: 100, Right: 100, Bottom: 300}),
	})
	require.Error(t, err)
	defer res.Frame.Close()

	// unannotated copy returned
	assert.False(t, res.HasBanner())
	assert.Equal(t, frame.Rows(), res.Frame.Rows())
	px := res.Frame.GetVecbAt(12, 12)
	assert.Equal(t, uint8(255), px[0])
}

func TestAnnotateEmptyFrame(t *testing.T) {

	frame := gocv.NewMat()
	defer frame.Close()

	res, err := NewAnnotator().Annotate(frame, nil)
	defer res.Frame.Close()

	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestMedicineBannerFitsText(t *testing.T) {

	font := BannerFont()
	b := medicineBanner(640, 480, "Hexaconazole or Sulphur", font)

	tw, _ := font.textSize(b.text)

	assert.Equal(t, "Medicine: Hexaconazole or Sulphur", b.text)
	assert.Equal(t, 640-10, b.rect.Max.X)
	assert.Equal(t, tw+20, b.rect.Dx())
	assert.Equal(t, 440, b.rect.Min.Y)
}

func TestNamedColor(t *testing.T) {

	c, ok := NamedColor("orange")
	assert.True(t, ok)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(165), c.G)

	c, ok = NamedColor("#102030")
	assert.True(t, ok)
	assert.Equal(t, uint8(0x10), c.R)

	_, ok = NamedColor("not-a-color")
	assert.False(t, ok)

	// every default disease color resolves
	table := disease.Default()
	for _, label := range table.Labels() {
		e, _ := table.Lookup(label)
		_, ok := NamedColor(e.Color)
		assert.True(t, ok, "color %q for %s", e.Color, label)
	}

	out := Outline(White)
	assert.Less(t, out.R, White.R)
}
