package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/swdee/go-cropwatch/postprocess"
	"gocv.io/x/gocv"
)

// remoteDetection is a single object in the inference service response
type remoteDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
}

// Remote sends frames as JPEG to an HTTP inference service and reads back the
// detections.  It is safe for concurrent use.
type Remote struct {
	url    string
	client *http.Client
}

// NewRemote returns a Remote detector posting to url.  A nil client uses a
// client with a 30 second timeout.
func NewRemote(url string, client *http.Client) *Remote {

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Remote{
		url:    url,
		client: client,
	}
}

// Detect encodes frame and posts it to the inference service as the "file"
// field of a multipart form
func (r *Remote) Detect(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error) {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)

	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", frameIndex, err)
	}

	defer buf.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")

	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}

	if _, err := part.Write(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("copy frame data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, body)

	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []remoteDetection `json:"detections"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	dets := make([]postprocess.Detection, 0, len(result.Detections))

	for _, d := range result.Detections {
		dets = append(dets, postprocess.Detection{
			Label:      d.Label,
			Confidence: d.Confidence,
			Box: postprocess.BoxRect{
				Left:   d.X1,
				Top:    d.Y1,
				Right:  d.X2,
				Bottom: d.Y2,
			},
			FrameIndex: frameIndex,
		})
	}

	return dets, nil
}

// Close does nothing, the http client is owned by the caller
func (r *Remote) Close() error {
	return nil
}
