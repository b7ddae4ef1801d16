package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/swdee/go-cropwatch/pipeline"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// videoFormat restricts the container extension used for temp files
var videoFormat = regexp.MustCompile(`^[a-zA-Z0-9]{1,8}$`)

type videoRequest struct {
	// Video is the base64 encoded video file
	Video string `json:"video"`
	// Format is the container extension, default mp4
	Format string `json:"format"`
}

type videoResponse struct {
	ProcessedVideo string                     `json:"processed_video"`
	Detections     []pipeline.DetectionRecord `json:"detections"`
	Message        string                     `json:"message"`
}

// handleVideo runs a stream session over an uploaded video and returns the
// annotated video along with the geo-tagged detections recorded
func (s *Server) handleVideo(c echo.Context) error {

	var req videoRequest

	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON")
	}

	if req.Video == "" {
		return fail(c, http.StatusBadRequest, "No video data provided")
	}

	if req.Format == "" {
		req.Format = "mp4"
	}

	if !videoFormat.MatchString(req.Format) {
		return fail(c, http.StatusBadRequest, "Invalid video format")
	}

	data, err := decodeBase64(req.Video)

	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid base64 encoding")
	}

	dir, err := os.MkdirTemp("", "cropwatch-video-")

	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error creating temp files")
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Failed to clean up temp files", zap.String("dir", dir), zap.Error(err))
		}
	}()

	in := filepath.Join(dir, "input."+req.Format)
	out := filepath.Join(dir, "processed."+req.Format)

	if err := os.WriteFile(in, data, 0o600); err != nil {
		return fail(c, http.StatusInternalServerError, "Error creating temp files")
	}

	report, err := s.processVideo(c, in, out)

	if err != nil {
		s.logger.Warn("Error processing video", zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	processed, err := os.ReadFile(out)

	if err != nil {
		return fail(c, http.StatusInternalServerError, "No processed video produced")
	}

	return c.JSON(http.StatusOK, videoResponse{
		ProcessedVideo: base64.StdEncoding.EncodeToString(processed),
		Detections:     report.Records(),
		Message:        "Video processed successfully",
	})
}

func (s *Server) processVideo(c echo.Context, in, out string) (report *pipeline.Report, err error) {

	src, err := pipeline.OpenVideo(in)

	if err != nil {
		return nil, err
	}

	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	sess, err := s.newSession()

	if err != nil {
		return nil, err
	}

	sink := pipeline.NewVideoSink(out, s.cfg.Codec, src.FPS())

	return sess.Run(c.Request().Context(), src, sink)
}
