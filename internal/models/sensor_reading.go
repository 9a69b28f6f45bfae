package models

// ChannelID identifies a temperature probe slot.
type ChannelID int

const (
	ChannelAmbient ChannelID = iota
	ChannelWater
	ChannelCount
)

// DisconnectedSentinel is reported for a probe that could not be read.
const DisconnectedSentinel float32 = -127.0

func (c ChannelID) String() string {
	switch c {
	case ChannelAmbient:
		return "ambient"
	case ChannelWater:
		return "water"
	default:
		return "unknown"
	}
}

// SensorReading is one sample of one probe, produced fresh every tick.
type SensorReading struct {
	Channel ChannelID `json:"channel"`
	ValueC  float32   `json:"value_c"` // °C, DisconnectedSentinel when unreadable
	Valid   bool      `json:"valid"`
}

// IsDisconnected reports whether v is the disconnected sentinel (or below it).
func IsDisconnected(v float32) bool {
	return v < DisconnectedSentinel+1.0
}

// NewSensorReading builds a reading and derives its validity from the value.
func NewSensorReading(ch ChannelID, v float32) SensorReading {
	return SensorReading{Channel: ch, ValueC: v, Valid: !IsDisconnected(v)}
}
