package models

import "time"

// PumpState is the actuator state of the circulation pump.
type PumpState bool

const (
	PumpOff PumpState = false
	PumpOn  PumpState = true
)

func (s PumpState) String() string {
	if s {
		return "ON"
	}
	return "OFF"
}

// Uint32 is the wire value used in telemetry frames.
func (s PumpState) Uint32() uint32 {
	if s {
		return 1
	}
	return 0
}

// PumpStatus is a point-in-time view of the controller.
type PumpStatus struct {
	State          string          `json:"state"` // ON | OFF
	StateTimeSecs  uint32          `json:"state_time_secs"`
	Readings       []SensorReading `json:"readings"`
	Settings       Settings        `json:"settings"`
	AmbientIntent  string          `json:"ambient_intent"`
	WaterIntent    string          `json:"water_intent"`
	LastTickAt     time.Time       `json:"last_tick_at,omitempty"`
	ActiveSessions map[string]int  `json:"active_sessions"`
}

// Telemetry is the per-tick record mirrored to external consumers.
type Telemetry struct {
	Timestamp     time.Time `json:"timestamp"`
	PumpState     string    `json:"pump_state"`
	StateTimeSecs uint32    `json:"state_time_secs"`
	AmbientC      float32   `json:"ambient_c"`
	WaterC        float32   `json:"water_c"`
	AmbientValid  bool      `json:"ambient_valid"`
	WaterValid    bool      `json:"water_valid"`
}
