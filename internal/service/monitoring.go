package service

import (
	"context"

	"controlling_pump/internal/control"
	"controlling_pump/internal/models"
)

// StatusEngine is the read side of the control engine.
type StatusEngine interface {
	PumpState() models.PumpState
	StateTimeSecs() uint32
	Settings() models.Settings
	Latched() [models.ChannelCount]control.ChannelDecision
}

// Snapshotter exposes the latest tick.
type Snapshotter interface {
	Snapshot() LoopSnapshot
}

// SessionCounter reports live websocket sessions per type.
type SessionCounter interface {
	Counts() map[string]int
}

type StatusService struct {
	engine   StatusEngine
	loop     Snapshotter
	sessions SessionCounter
}

func NewStatusService(engine StatusEngine, loop Snapshotter, sessions SessionCounter) *StatusService {
	return &StatusService{engine: engine, loop: loop, sessions: sessions}
}

// GetStatus returns the live controller state. Before the first tick the
// readings report both channels as disconnected.
func (s *StatusService) GetStatus(ctx context.Context) (models.PumpStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.PumpStatus{}, err
	}
	snap := s.loop.Snapshot()
	readings := snap.Readings[:]
	if snap.At.IsZero() {
		readings = baselineReadings()
	}
	latched := s.engine.Latched()

	st := models.PumpStatus{
		State:         s.engine.PumpState().String(),
		StateTimeSecs: s.engine.StateTimeSecs(),
		Readings:      append([]models.SensorReading(nil), readings...),
		Settings:      s.engine.Settings(),
		AmbientIntent: latched[models.ChannelAmbient].Intent.String(),
		WaterIntent:   latched[models.ChannelWater].Intent.String(),
		LastTickAt:    normalizeToUTC(snap.At),
	}
	if s.sessions != nil {
		st.ActiveSessions = s.sessions.Counts()
	}
	return st, nil
}

func baselineReadings() []models.SensorReading {
	out := make([]models.SensorReading, models.ChannelCount)
	for ch := range out {
		out[ch] = models.NewSensorReading(models.ChannelID(ch), models.DisconnectedSentinel)
	}
	return out
}
