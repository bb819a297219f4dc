package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aviarylab/roost/internal/errors"
)

// UploadResponse is returned for every accepted chunk, whether or not the
// analysis produced detections. detections_count reports the classifier
// result even when nothing was persisted.
type UploadResponse struct {
	Message         string `json:"message"`
	BytesReceived   int    `json:"bytes_received"`
	ContentType     string `json:"content_type"`
	DetectionsCount int    `json:"detections_count"`
}

// Upload ingests one raw PCM chunk and runs an analysis cycle over the
// rolling window.
func (c *Controller) Upload(ctx echo.Context) error {
	req := ctx.Request()

	maxBytes := int64(c.Settings.Audio.MaxUploadKB) * 1024
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBytes+1))
	if err != nil {
		return c.handleError(ctx, errors.New(fmt.Errorf("reading upload body: %w", err)).
			Component("api").
			Category(errors.CategoryNetwork).
			Build())
	}
	if len(body) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "No binary data received"})
	}
	if int64(len(body)) > maxBytes {
		return ctx.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "Upload too large"})
	}

	result, err := c.Uploader.ProcessChunk(req.Context(), body)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, UploadResponse{
		Message:         "Binary blob received",
		BytesReceived:   len(body),
		ContentType:     req.Header.Get(echo.HeaderContentType),
		DetectionsCount: result.DetectionsCount,
	})
}
