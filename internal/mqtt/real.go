package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"controlling_pump/internal/models"
)

const publishTimeout = 5 * time.Second

// connectTimeout bounds how long NewRealPublisher waits for the first connection.
var connectTimeout = 10 * time.Second

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
}

// NewRealPublisher connects to broker and publishes under topicPrefix. A broker
// that is unreachable at boot is not an error: the client keeps retrying in
// the background and IsConnected reports false until it succeeds.
func NewRealPublisher(broker, clientID, topicPrefix string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = "pool-pump"
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			client.Disconnect(0)
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	}

	return &RealPublisher{client: client, topics: TopicsFor(topicPrefix)}, nil
}

// PublishTelemetry sends a telemetry snapshot, QoS 0, retained so new
// subscribers see the latest state.
func (p *RealPublisher) PublishTelemetry(t models.Telemetry) error {
	payload, err := FormatTelemetry(t)
	if err != nil {
		return fmt.Errorf("format telemetry: %w", err)
	}
	return p.publish(p.topics.Telemetry, 0, true, payload)
}

// PublishEvent sends a pump event, QoS 1.
func (p *RealPublisher) PublishEvent(e models.PumpEvent) error {
	payload, err := FormatEvent(e)
	if err != nil {
		return fmt.Errorf("format event: %w", err)
	}
	return p.publish(p.topics.Events, 1, false, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
