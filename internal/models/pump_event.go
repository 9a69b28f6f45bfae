package models

import "time"

// Event types written to the pump event log.
const (
	EventTransition       = "TRANSITION"
	EventSettings         = "SETTINGS"
	EventSettingsRejected = "SETTINGS_REJECTED"
	EventSensorFault      = "SENSOR_FAULT"
	EventStartup          = "STARTUP"
)

// PumpEvent is a single log entry.
type PumpEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TRANSITION | SETTINGS | SETTINGS_REJECTED | SENSOR_FAULT | STARTUP
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
