package conf

import "github.com/spf13/viper"

// setDefaults registers the baseline configuration. Values mirror the sensor
// firmware's capture format: 8 kHz mono PCM16LE.
func setDefaults() {
	viper.SetDefault("debug", false)

	// Audio capture and export
	viper.SetDefault("audio.samplerate", 8000)
	viper.SetDefault("audio.channels", 1)
	viper.SetDefault("audio.bitdepth", 16)
	viper.SetDefault("audio.maxuploadkb", 4096)
	viper.SetDefault("audio.export.type", "mp3")
	viper.SetDefault("audio.export.bitrate", "96k")
	viper.SetDefault("audio.export.path", "clips/")
	viper.SetDefault("audio.export.ffmpegpath", "")

	// Rolling analysis window
	viper.SetDefault("window.capacity", 1)

	// Station location and privacy jitter
	viper.SetDefault("station.latitude", 35.4244)
	viper.SetDefault("station.longitude", -120.7463)
	viper.SetDefault("station.jitterdegrees", 0.0002)

	// External classifier
	viper.SetDefault("classifier.endpoint", "http://localhost:7667/analyze")
	viper.SetDefault("classifier.minconfidence", 0.25)
	viper.SetDefault("classifier.datehint", "2022-05-10")
	viper.SetDefault("classifier.timeout", "30s")

	// Persistence
	viper.SetDefault("output.sqlite.path", "roost.db")

	// HTTP server
	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", "5000")

	// MQTT publishing
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "roost/detections")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
}
