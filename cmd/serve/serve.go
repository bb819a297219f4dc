// Package serve implements the serve subcommand running the ingestion
// service.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aviarylab/roost/internal/analyzer"
	"github.com/aviarylab/roost/internal/api"
	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/datastore"
	"github.com/aviarylab/roost/internal/logging"
	"github.com/aviarylab/roost/internal/mqttpub"
	"github.com/aviarylab/roost/internal/myaudio"
	"github.com/aviarylab/roost/internal/observability"
	"github.com/aviarylab/roost/internal/processor"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ingestion HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logging.Init(settings.Debug)
	logger := logging.ForService("serve")

	window, err := myaudio.NewWindow(settings.Window.Capacity)
	if err != nil {
		return fmt.Errorf("creating rolling window: %w", err)
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing datastore", "error", err)
		}
	}()

	metrics := observability.NewMetrics()
	clf := analyzer.NewClient(settings.Classifier.Endpoint)
	proc := processor.New(settings, window, clf, store, metrics)

	if settings.MQTT.Enabled {
		publisher, err := mqttpub.New(&settings.MQTT)
		if err != nil {
			// Detection publishing is best-effort, the station keeps
			// running without it.
			logger.Warn("MQTT publishing disabled", "error", err)
		} else {
			proc.SetPublisher(publisher)
			defer publisher.Close()
		}
	}

	controller := api.New(settings, store, proc, metrics)
	addr := net.JoinHostPort(settings.HTTP.Host, settings.HTTP.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := controller.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("ingestion service started",
		"addr", addr,
		"window_capacity", settings.Window.Capacity,
		"sample_rate", settings.Audio.SampleRate)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
