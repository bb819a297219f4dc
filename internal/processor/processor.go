// Package processor drives one analysis cycle per uploaded chunk: buffer the
// chunk, analyze the rolling window, transcode it, and persist the result
// when the classifier found something.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aviarylab/roost/internal/analyzer"
	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/datastore"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/logging"
	"github.com/aviarylab/roost/internal/myaudio"
	"github.com/aviarylab/roost/internal/observability"
)

// Result summarizes one analysis cycle for the caller.
type Result struct {
	RecordingID     string // empty when nothing was persisted
	Detections      []analyzer.Detection
	DetectionsCount int
	Audio           []byte // the transcoded window, also when nothing was persisted
}

// Publisher receives saved recordings for best-effort fan-out.
type Publisher interface {
	PublishRecording(recording *datastore.Recording) error
}

// Processor owns the rolling window and orchestrates codec, classifier and
// store for each upload.
type Processor struct {
	settings  *conf.Settings
	window    *myaudio.Window
	analyzer  analyzer.Interface
	store     datastore.Interface
	metrics   *observability.Metrics
	publisher Publisher
	logger    *slog.Logger

	// exportFn is swapped in tests to avoid a hard ffmpeg dependency.
	exportFn func(wavData []byte, settings *conf.AudioSettings) ([]byte, error)
}

// New creates a processor. The window is injected so its lifetime matches
// the process, not a request.
func New(settings *conf.Settings, window *myaudio.Window, clf analyzer.Interface, store datastore.Interface, metrics *observability.Metrics) *Processor {
	return &Processor{
		settings: settings,
		window:   window,
		analyzer: clf,
		store:    store,
		metrics:  metrics,
		logger:   logging.ForService("processor"),
		exportFn: myaudio.ExportMP3,
	}
}

// SetPublisher attaches an optional detection publisher. A nil publisher
// disables fan-out.
func (p *Processor) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// ProcessChunk runs one analysis cycle. The chunk is appended to the window
// unconditionally; every downstream failure leaves the buffer as is, so
// ingestion always succeeds locally and analysis is best-effort.
//
// Only the append+snapshot pair holds the window lock. Classifier inference
// and transcoding run outside it so concurrent uploads keep flowing while
// one analysis is in flight.
func (p *Processor) ProcessChunk(ctx context.Context, chunk []byte) (Result, error) {
	start := time.Now()
	defer func() {
		p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	if len(chunk) == 0 {
		return Result{}, errors.New(fmt.Errorf("%w: chunk has no samples", errors.ErrEmptyInput)).
			Component("processor").
			Category(errors.CategoryValidation).
			Build()
	}

	p.metrics.UploadsTotal.Inc()
	p.metrics.UploadBytesTotal.Add(float64(len(chunk)))

	windowPCM := p.window.AppendAndSnapshot(chunk)

	wavData, err := myaudio.EncodeWAV(windowPCM,
		p.settings.Audio.SampleRate,
		p.settings.Audio.Channels,
		p.settings.Audio.BitDepth)
	if err != nil {
		return Result{}, err
	}

	detections, err := p.analyze(ctx, wavData)
	if err != nil {
		p.metrics.AnalysisErrors.Inc()
		return Result{}, err
	}

	mp3Data, err := p.exportFn(wavData, &p.settings.Audio)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Detections:      detections,
		DetectionsCount: len(detections),
		Audio:           mp3Data,
	}

	if len(detections) == 0 {
		// A silent window is a valid outcome, it just isn't persisted.
		p.logger.Debug("no detections in window", "window_bytes", len(windowPCM))
		return result, nil
	}
	p.metrics.DetectionsTotal.Add(float64(len(detections)))

	recording := p.buildRecording(detections)
	id, err := p.store.Save(recording, mp3Data)
	if err != nil {
		return Result{}, err
	}
	p.metrics.RecordingsSaved.Inc()
	result.RecordingID = id

	p.logger.Info("recording saved",
		"recording_id", id,
		"detections", len(detections),
		"top_species", detections[0].CommonName,
		"elapsed", time.Since(start))

	p.publish(recording)
	return result, nil
}

// analyze invokes the classifier under a bounded deadline so one stuck
// inference cannot delay its caller forever.
func (p *Processor) analyze(ctx context.Context, wavData []byte) ([]analyzer.Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.Classifier.Timeout)
	defer cancel()

	return p.analyzer.Analyze(ctx, wavData, analyzer.Hints{
		Latitude:      p.settings.Station.Latitude,
		Longitude:     p.settings.Station.Longitude,
		Date:          p.settings.Classifier.DateHint,
		MinConfidence: p.settings.Classifier.MinConfidence,
	})
}

// buildRecording assembles the persisted record with a fresh timestamp and
// jittered coordinates.
func (p *Processor) buildRecording(detections []analyzer.Detection) *datastore.Recording {
	recording := &datastore.Recording{
		CapturedAt: time.Now().Unix(),
		Latitude:   jitterCoordinate(p.settings.Station.Latitude, p.settings.Station.JitterDegrees),
		Longitude:  jitterCoordinate(p.settings.Station.Longitude, p.settings.Station.JitterDegrees),
	}
	for _, d := range detections {
		recording.Detections = append(recording.Detections, datastore.Detection{
			CommonName:     d.CommonName,
			ScientificName: d.ScientificName,
			Confidence:     d.Confidence,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
		})
	}
	return recording
}

func (p *Processor) publish(recording *datastore.Recording) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishRecording(recording); err != nil {
		// Fan-out failures never affect the already persisted record.
		p.logger.Warn("failed to publish recording", "recording_id", recording.ID, "error", err)
	}
}

// jitterCoordinate perturbs the station coordinate by an independent uniform
// offset in [-eps, eps]. The exact sensor position is never persisted.
func jitterCoordinate(base, eps float64) float64 {
	if eps == 0 {
		return base
	}
	return base + (rand.Float64()*2-1)*eps
}
