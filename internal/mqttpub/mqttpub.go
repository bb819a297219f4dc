// Package mqttpub publishes saved detections to an MQTT broker so downstream
// consumers (dashboards, alerting) can follow the station in real time.
// Publishing is strictly best-effort: a broker outage never affects
// persistence.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/datastore"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/logging"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Publisher wraps a paho MQTT client bound to one topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// detectionMessage is the wire shape published per saved recording.
type detectionMessage struct {
	RecordingID string                `json:"recording_id"`
	CapturedAt  int64                 `json:"captured_at"`
	Latitude    float64               `json:"lat"`
	Longitude   float64               `json:"lon"`
	Detections  []detectionJSONRecord `json:"detections"`
}

type detectionJSONRecord struct {
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Confidence     float64 `json:"confidence"`
}

// New connects to the configured broker. Returns an error when the broker is
// unreachable so the caller can decide whether to run without publishing.
func New(settings *conf.MQTTSettings) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(settings.Broker).
		SetClientID("roost-station").
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if err := waitToken(token, connectTimeout); err != nil {
		return nil, errors.New(fmt.Errorf("connecting to MQTT broker: %w", err)).
			Component("mqttpub").
			Category(errors.CategoryMQTTPublish).
			Context("broker", settings.Broker).
			Build()
	}

	return &Publisher{
		client: client,
		topic:  settings.Topic,
		logger: logging.ForService("mqttpub"),
	}, nil
}

// PublishRecording pushes a saved recording's summary to the topic.
func (p *Publisher) PublishRecording(recording *datastore.Recording) error {
	msg := detectionMessage{
		RecordingID: recording.ID,
		CapturedAt:  recording.CapturedAt,
		Latitude:    recording.Latitude,
		Longitude:   recording.Longitude,
	}
	for _, d := range recording.Detections {
		msg.Detections = append(msg.Detections, detectionJSONRecord{
			CommonName:     d.CommonName,
			ScientificName: d.ScientificName,
			Confidence:     d.Confidence,
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.New(fmt.Errorf("marshaling detection message: %w", err)).
			Component("mqttpub").
			Category(errors.CategoryMQTTPublish).
			Build()
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if err := waitToken(token, publishTimeout); err != nil {
		return errors.New(fmt.Errorf("publishing detection message: %w", err)).
			Component("mqttpub").
			Category(errors.CategoryMQTTPublish).
			Context("topic", p.topic).
			Build()
	}
	p.logger.Debug("detection published", "recording_id", recording.ID, "topic", p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func waitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("operation timed out after %s", timeout)
	}
	return token.Error()
}
