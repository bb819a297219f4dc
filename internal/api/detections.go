package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aviarylab/roost/internal/datastore"
)

// DetectionResponse is one classifier result in a retrieval response.
type DetectionResponse struct {
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Confidence     float64 `json:"confidence"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
}

// RecordingResponse is the metadata for one stored recording. The id is the
// lookup key and is not echoed back.
type RecordingResponse struct {
	Detections []DetectionResponse `json:"detections"`
	CapturedAt int64               `json:"captured_at"`
	Latitude   float64             `json:"lat"`
	Longitude  float64             `json:"lon"`
}

// GetDetection returns the stored metadata for one recording.
func (c *Controller) GetDetection(ctx echo.Context) error {
	recording, err := c.DS.Get(ctx.Param("id"))
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toRecordingResponse(recording))
}

// ListIDs returns every stored recording id as a string array.
func (c *Controller) ListIDs(ctx echo.Context) error {
	ids, err := c.DS.AllIDs()
	if err != nil {
		return c.handleError(ctx, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, ids)
}

func toRecordingResponse(recording *datastore.Recording) RecordingResponse {
	resp := RecordingResponse{
		Detections: make([]DetectionResponse, 0, len(recording.Detections)),
		CapturedAt: recording.CapturedAt,
		Latitude:   recording.Latitude,
		Longitude:  recording.Longitude,
	}
	for _, d := range recording.Detections {
		resp.Detections = append(resp.Detections, DetectionResponse{
			CommonName:     d.CommonName,
			ScientificName: d.ScientificName,
			Confidence:     d.Confidence,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
		})
	}
	return resp
}
