// Package mqtt mirrors controller telemetry and events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"controlling_pump/internal/models"
)

// DefaultTopic is the topic prefix when none is configured.
const DefaultTopic = "home/pool/pump"

// Publisher publishes controller data to MQTT.
type Publisher interface {
	// PublishTelemetry sends the per-tick snapshot. Errors must not stop the control loop.
	PublishTelemetry(t models.Telemetry) error

	// PublishEvent sends a pump event.
	PublishEvent(e models.PumpEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Topics holds the derived topic names for a prefix.
type Topics struct {
	Telemetry string
	Events    string
}

// TopicsFor derives topic names from prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopic
	}
	return Topics{Telemetry: prefix + "/telemetry", Events: prefix + "/events"}
}

// TelemetryPayload is the wire shape of a telemetry message.
type TelemetryPayload struct {
	Timestamp string         `json:"timestamp"`
	Pump      PumpPayload    `json:"pump"`
	Ambient   ChannelPayload `json:"ambient"`
	Water     ChannelPayload `json:"water"`
}

// PumpPayload is the pump part of a telemetry message.
type PumpPayload struct {
	State         string `json:"state"`
	StateTimeSecs uint32 `json:"state_time_secs"`
}

// ChannelPayload is one probe in a telemetry message. TempC is omitted when disconnected.
type ChannelPayload struct {
	TempC     *float32 `json:"temp_c,omitempty"`
	Connected bool     `json:"connected"`
}

// EventPayload is the wire shape of an event message.
type EventPayload struct {
	Timestamp   string `json:"timestamp"`
	ID          string `json:"id"`
	Event       string `json:"event"`
	Description string `json:"description"`
	Metadata    any    `json:"metadata,omitempty"`
}

func channelPayload(v float32, valid bool) ChannelPayload {
	if !valid {
		return ChannelPayload{}
	}
	return ChannelPayload{TempC: &v, Connected: true}
}

// FormatTelemetry creates the JSON payload for a telemetry snapshot.
func FormatTelemetry(t models.Telemetry) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
		Pump:      PumpPayload{State: t.PumpState, StateTimeSecs: t.StateTimeSecs},
		Ambient:   channelPayload(t.AmbientC, t.AmbientValid),
		Water:     channelPayload(t.WaterC, t.WaterValid),
	})
}

// FormatEvent creates the JSON payload for a pump event.
func FormatEvent(e models.PumpEvent) ([]byte, error) {
	return json.Marshal(EventPayload{
		Timestamp:   e.OccurredAt.UTC().Format(time.RFC3339),
		ID:          e.EventID,
		Event:       e.Type,
		Description: e.Description,
		Metadata:    e.Metadata,
	})
}

// NopPublisher drops everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTelemetry(models.Telemetry) error { return nil }
func (NopPublisher) PublishEvent(models.PumpEvent) error     { return nil }
func (NopPublisher) Close() error                            { return nil }
