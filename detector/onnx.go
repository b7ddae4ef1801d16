// Package detector provides Detector implementations backed by a local ONNX
// model or a remote inference service
package detector

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-cropwatch/postprocess"
	"github.com/swdee/go-cropwatch/preprocess"
	"gocv.io/x/gocv"
)

// letterboxColor is the padding color used when letterbox resizing frames
var letterboxColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// ONNXConfig holds the settings for loading a YOLOv8 ONNX model
type ONNXConfig struct {
	// Model is the path to the .onnx model file
	Model string
	// Labels are the class names the Model was trained with, in class id order
	Labels []string
	// InputSize is the square input tensor size of the Model, eg: 640
	InputSize int
	// Params are the YOLOv8 post processing parameters
	Params postprocess.YOLOv8Params
}

// ONNX runs a YOLOv8 model exported to ONNX through the OpenCV DNN module.
// An ONNX detector is not safe for concurrent use.
type ONNX struct {
	net       gocv.Net
	yolo      *postprocess.YOLOv8
	inputSize int
	// resizer is rebuilt when the source frame size changes
	resizer *preprocess.Resizer
	resized gocv.Mat
}

// NewONNX loads the model described by cfg
func NewONNX(cfg ONNXConfig) (*ONNX, error) {

	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("no labels given for model %s", cfg.Model)
	}

	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("invalid model input size %d", cfg.InputSize)
	}

	net := gocv.ReadNetFromONNX(cfg.Model)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model from %s", cfg.Model)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &ONNX{
		net:       net,
		yolo:      postprocess.NewYOLOv8(cfg.Params, cfg.Labels),
		inputSize: cfg.InputSize,
		resized:   gocv.NewMat(),
	}, nil
}

// Detect runs inference on frame
func (o *ONNX) Detect(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if frame.Empty() {
		return nil, fmt.Errorf("empty frame %d", frameIndex)
	}

	if o.resizer == nil || !o.resizer.Matches(frame.Cols(), frame.Rows()) {
		if o.resizer != nil {
			o.resizer.Close()
		}
		o.resizer = preprocess.NewResizer(frame.Cols(), frame.Rows(),
			o.inputSize, o.inputSize)
	}

	o.resizer.LetterBoxResize(frame, &o.resized, letterboxColor)

	blob := gocv.BlobFromImage(o.resized, 1.0/255.0, image.Pt(o.inputSize, o.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	o.net.SetInput(blob, "")

	output := o.net.Forward("")
	defer output.Close()

	// output shape is [1, 4+classes, boxes]
	dims := output.Size()

	if len(dims) != 3 || dims[1] != 4+o.yolo.ClassNum() {
		return nil, fmt.Errorf("unexpected model output shape %v for %d classes",
			dims, o.yolo.ClassNum())
	}

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading model output: %w", err)
	}

	return o.yolo.DetectObjects(data, dims[2], o.resizer, frameIndex)
}

// Close frees the model and working buffers
func (o *ONNX) Close() error {

	if o.resizer != nil {
		o.resizer.Close()
	}

	o.resized.Close()

	return o.net.Close()
}
