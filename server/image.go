package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/swdee/go-cropwatch/pipeline"
	"go.uber.org/zap"
)

type imageRequest struct {
	// Image is base64 encoded, optionally as a data URI
	Image string `json:"image"`
}

type imageResponse struct {
	// Image is the annotated frame as a JPEG data URI
	Image      string                     `json:"image"`
	Detections []pipeline.DetectionRecord `json:"detections"`
	Message    string                     `json:"message"`
}

// recordSink keeps the accepted detections and error of the frames written to
// it
type recordSink struct {
	records []pipeline.DetectionRecord
	err     error
}

func (r *recordSink) Write(res *pipeline.FrameResult) error {

	for _, acc := range res.Accepted {
		r.records = append(r.records, pipeline.BoxRecord(acc.Detection))
	}

	if res.Err != nil && r.err == nil {
		r.err = res.Err
	}

	return nil
}

func (r *recordSink) Close() error {
	return nil
}

// handleImage runs a single image session on a base64 encoded image and
// returns the annotated image with the accepted detections
func (s *Server) handleImage(c echo.Context) error {

	var req imageRequest

	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON")
	}

	if req.Image == "" {
		return fail(c, http.StatusBadRequest, "No image provided in JSON")
	}

	data, err := decodeBase64(req.Image)

	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid base64 encoding")
	}

	src, err := pipeline.NewImageSource(data)

	if err != nil {
		return fail(c, http.StatusBadRequest, "Error processing image")
	}

	defer src.Close()

	sess, err := s.newSession()

	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	last := pipeline.NewLastFrame()
	defer last.Close()

	records := &recordSink{}

	_, err = sess.Run(c.Request().Context(), src, pipeline.MultiSink{last, records})

	if err != nil {
		return fail(c, http.StatusBadRequest, "Error processing image")
	}

	if errors.Is(records.err, pipeline.ErrDetection) {
		s.logger.Warn("Image detection failed", zap.String("session", sess.ID()), zap.Error(records.err))
		return fail(c, http.StatusInternalServerError, "Error during detection")
	}

	jpeg, err := last.JPEG()

	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error saving image")
	}

	msg := "No detections found"

	if n := len(records.records); n > 0 {
		msg = fmt.Sprintf("%d detections found", n)
	}

	if records.records == nil {
		records.records = []pipeline.DetectionRecord{}
	}

	return c.JSON(http.StatusOK, imageResponse{
		Image:      "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
		Detections: records.records,
		Message:    msg,
	})
}

// decodeBase64 decodes standard base64, stripping any data URI prefix, eg:
// "data:image/png;base64,"
func decodeBase64(s string) ([]byte, error) {

	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")

		if !ok {
			return nil, fmt.Errorf("data uri has no payload")
		}

		s = payload
	}

	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
