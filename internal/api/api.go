// Package api exposes the ingestion HTTP surface: chunk upload, detection
// retrieval, range-capable audio streaming and the id listing.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/datastore"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/logging"
	"github.com/aviarylab/roost/internal/observability"
	"github.com/aviarylab/roost/internal/processor"
)

// Uploader is the slice of the processor the API needs.
type Uploader interface {
	ProcessChunk(ctx context.Context, chunk []byte) (processor.Result, error)
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DS       datastore.Interface
	Uploader Uploader
	Metrics  *observability.Metrics

	logger *slog.Logger
}

// New wires the controller and registers all routes.
func New(settings *conf.Settings, ds datastore.Interface, uploader Uploader, metrics *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:     e,
		Settings: settings,
		DS:       ds,
		Uploader: uploader,
		Metrics:  metrics,
		logger:   logging.ForService("api"),
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Echo.POST("/upload", c.Upload)
	c.Echo.GET("/detections/:id", c.GetDetection)
	c.Echo.GET("/detections/:id/audio", c.ServeDetectionAudio)
	c.Echo.GET("/uids", c.ListIDs)
	c.Echo.GET("/healthz", c.Healthz)
	if c.Metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.Metrics.Handler()))
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (c *Controller) Start(addr string) error {
	return c.Echo.Start(addr)
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Echo.Shutdown(ctx)
}

// Healthz reports liveness.
func (c *Controller) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError maps pipeline errors onto HTTP responses. Client mistakes get
// specific messages, internal failures are logged with detail but answered
// with a generic body so internals never leak.
func (c *Controller) handleError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errors.ErrEmptyInput):
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "No binary data received"})
	case errors.Is(err, errors.ErrInvalidID):
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid id"})
	case errors.Is(err, errors.ErrNotFound):
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}

	c.logger.Error("request failed",
		"path", ctx.Path(),
		"category", string(errors.CategoryOf(err)),
		"error", err)
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
