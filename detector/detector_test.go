package detector

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	cropwatch "github.com/swdee/go-cropwatch"
	"github.com/swdee/go-cropwatch/postprocess"
)

var (
	_ cropwatch.Detector = (*ONNX)(nil)
	_ cropwatch.Detector = (*Remote)(nil)
)

const inferURL = "http://inference.local/detect"

func testFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 120, 40, 0),
		120, 160, gocv.MatTypeCV8UC3)
}

func TestRemoteDetect(t *testing.T) {

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, inferURL,
		func(req *http.Request) (*http.Response, error) {

			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}

			if _, _, err := req.FormFile("file"); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "missing file"), nil
			}

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"detections": []map[string]any{
					{"label": "Rust-Leaf", "confidence": 0.85, "x1": 10, "y1": 20, "x2": 60, "y2": 80},
					{"label": "tungro", "confidence": 0.4, "x1": 0, "y1": 0, "x2": 5, "y2": 5},
				},
			})
		})

	frame := testFrame()
	defer frame.Close()

	r := NewRemote(inferURL, client)

	dets, err := r.Detect(context.Background(), frame, 7)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, postprocess.Detection{
		Label:      "Rust-Leaf",
		Confidence: 0.85,
		Box:        postprocess.BoxRect{Left: 10, Top: 20, Right: 60, Bottom: 80},
		FrameIndex: 7,
	}, dets[0])

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRemoteDetectErrors(t *testing.T) {

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	frame := testFrame()
	defer frame.Close()

	r := NewRemote(inferURL, client)

	httpmock.RegisterResponder(http.MethodPost, inferURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := r.Detect(context.Background(), frame, 0)
	assert.ErrorContains(t, err, "status: 500")

	httpmock.RegisterResponder(http.MethodPost, inferURL,
		httpmock.NewStringResponder(http.StatusOK, "not json"))

	_, err = r.Detect(context.Background(), frame, 0)
	assert.ErrorContains(t, err, "decode response")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Detect(ctx, frame, 0)
	assert.Error(t, err)
}

func TestNewONNXValidation(t *testing.T) {

	_, err := NewONNX(ONNXConfig{Model: "model.onnx", InputSize: 640})
	assert.Error(t, err)

	_, err = NewONNX(ONNXConfig{Model: "model.onnx", Labels: []string{"tungro"}})
	assert.Error(t, err)
}
