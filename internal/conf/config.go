// Package conf loads and validates the service configuration. It follows the
// viper + embedded-default-config pattern: a config.yaml found on the search
// path overrides the embedded defaults, and individual keys can be overridden
// through ROOST_* environment variables.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// AudioSettings describes the fixed capture format pushed by sensor clients
// and the export encoding for stored clips.
type AudioSettings struct {
	SampleRate  int // samples per second, e.g. 8000
	Channels    int // channel count, sensors push mono
	BitDepth    int // bits per sample, sensors push PCM16LE
	MaxUploadKB int // reject request bodies larger than this
	Export      struct {
		Type       string // compressed clip format, only "mp3" is wired
		Bitrate    string // encoder bitrate, e.g. "96k"
		Path       string // clip export directory
		FfmpegPath string // ffmpeg binary, resolved from PATH when empty
	}
}

// WindowSettings controls the rolling analysis window.
type WindowSettings struct {
	Capacity int // number of most recent chunks analyzed together
}

// StationSettings holds the fixed sensor coordinates and the privacy jitter
// applied before a location is persisted.
type StationSettings struct {
	Latitude      float64 // station base latitude
	Longitude     float64 // station base longitude
	JitterDegrees float64 // uniform ±jitter applied per axis per record
}

// ClassifierSettings configures the external acoustic classifier service.
type ClassifierSettings struct {
	Endpoint      string        // analyzer HTTP endpoint
	MinConfidence float64       // detections below this are dropped by the model
	DateHint      string        // optional YYYY-MM-DD hint passed to the model
	Timeout       time.Duration // per-inference deadline
}

// OutputSettings selects the persistence backend.
type OutputSettings struct {
	SQLite struct {
		Path string // database file path
	}
}

// HTTPSettings configures the ingestion HTTP server.
type HTTPSettings struct {
	Host string
	Port string
}

// MQTTSettings configures optional detection publishing.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // e.g. tcp://localhost:1883
	Topic    string
	Username string
	Password string
}

// Settings is the root configuration for the roost service.
type Settings struct {
	Debug      bool
	Audio      AudioSettings
	Window     WindowSettings
	Station    StationSettings
	Classifier ClassifierSettings
	Output     OutputSettings
	HTTP       HTTPSettings
	MQTT       MQTTSettings
}

// Load reads configuration from the search path, falling back to the
// embedded defaults, and validates the result.
func Load() (*Settings, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "roost"))
	}
	viper.AddConfigPath("/etc/roost")

	viper.SetEnvPrefix("roost")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file on disk, run on embedded defaults.
		embedded, err := configFiles.Open("config.yaml")
		if err != nil {
			return nil, fmt.Errorf("opening embedded config: %w", err)
		}
		defer embedded.Close()
		if err := viper.ReadConfig(embedded); err != nil {
			return nil, fmt.Errorf("reading embedded config: %w", err)
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.samplerate must be positive, got %d", s.Audio.SampleRate)
	}
	if s.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be positive, got %d", s.Audio.Channels)
	}
	if s.Audio.BitDepth != 16 {
		return fmt.Errorf("audio.bitdepth must be 16, got %d", s.Audio.BitDepth)
	}
	if s.Window.Capacity < 1 {
		return fmt.Errorf("window.capacity must be at least 1, got %d", s.Window.Capacity)
	}
	if s.Station.JitterDegrees < 0 {
		return fmt.Errorf("station.jitterdegrees must not be negative, got %f", s.Station.JitterDegrees)
	}
	if s.Classifier.MinConfidence < 0 || s.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.minconfidence must be within [0,1], got %f", s.Classifier.MinConfidence)
	}
	if s.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive, got %s", s.Classifier.Timeout)
	}
	return nil
}

// SampleWidthBytes returns bytes per sample per channel.
func (s *AudioSettings) SampleWidthBytes() int {
	return s.BitDepth / 8
}

// FrameSize returns bytes per frame across all channels. Uploads whose
// length is not a multiple of this are rejected by the codec.
func (s *AudioSettings) FrameSize() int {
	return s.Channels * s.SampleWidthBytes()
}
