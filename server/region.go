package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/region"
)

type regionRequest struct {
	// Coordinates are [lat, lon] pairs
	Coordinates [][2]float64 `json:"coordinates"`
}

type regionResponse struct {
	EnclosedRegion region.Region `json:"enclosed_region"`
}

// handleRegion returns the closed convex polygon enclosing the posted
// coordinates.  Coordinates are accepted as a JSON body or as a JSON encoded
// form field.
func (s *Server) handleRegion(c echo.Context) error {

	points, err := regionPoints(c)

	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if len(points) < 3 {
		return fail(c, http.StatusBadRequest, "At least 3 points are required to form a region")
	}

	for _, p := range points {
		if err := p.Validate(); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(http.StatusOK, regionResponse{EnclosedRegion: region.Enclose(points)})
}

func regionPoints(c echo.Context) ([]geo.Point, error) {

	var req regionRequest

	ctype := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return nil, errors.New("invalid JSON")
		}
	} else {
		field := c.FormValue("coordinates")

		if field == "" {
			field = "[]"
		}

		if err := json.Unmarshal([]byte(field), &req.Coordinates); err != nil {
			return nil, errors.New("invalid coordinates")
		}
	}

	points := make([]geo.Point, len(req.Coordinates))

	for i, pair := range req.Coordinates {
		points[i] = geo.Point{Lat: pair[0], Lon: pair[1]}
	}

	return points, nil
}
