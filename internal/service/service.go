package service

import (
	"context"
	"time"

	"controlling_pump/internal/control"
	"controlling_pump/internal/gpio"
	"controlling_pump/internal/logger"
	"controlling_pump/internal/models"
	"controlling_pump/internal/mqtt"
	"controlling_pump/internal/repository"
	"controlling_pump/internal/sensor"
)

// Settings exposes the remotely configurable thresholds.
type Settings interface {
	Current() models.Settings
	// ApplySettings validates each field independently, applies the accepted
	// ones and persists the result.
	ApplySettings(ctx context.Context, s models.Settings) (models.SettingsResult, error)
	// ApplyPatch is ApplySettings restricted to the provided fields.
	ApplyPatch(ctx context.Context, p models.SettingsPatch) (models.SettingsResult, error)
	// Restore loads persisted settings into the engine at boot.
	Restore(ctx context.Context) error
}

// Monitoring exposes a read-only snapshot of the controller.
type Monitoring interface {
	GetStatus(ctx context.Context) (models.PumpStatus, error)
}

// EventLog exposes the append-only pump event history.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error)
	Record(ctx context.Context, e models.PumpEvent)
}

// ControlLoop runs the periodic sample, decide, commit, broadcast cycle.
// Stop via context cancellation in main() for graceful shutdown.
type ControlLoop interface {
	Run(ctx context.Context, period time.Duration)
}

// Heartbeat blinks the status LED.
type Heartbeat interface {
	Run(ctx context.Context, period time.Duration)
}

// Sampler produces one fresh reading per channel.
type Sampler interface {
	SampleAll() sensor.Readings
}

// Broadcaster pushes per-tick telemetry to connected clients.
type Broadcaster interface {
	BroadcastTick(state models.PumpState, waterC, ambientC float32)
	Counts() map[string]int
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos          *repository.Repository
	Engine         *control.Engine
	Sampler        Sampler
	Hub            Broadcaster
	Publisher      mqtt.Publisher
	LED            gpio.Output
	WatchdogPeriod time.Duration
	Log            *logger.Logger
}

// Service aggregates all sub-services.
type Service struct {
	Settings
	Monitoring
	EventLog
	Control   ControlLoop
	Heartbeat Heartbeat
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = mqtt.NopPublisher{}
	}
	events := NewEventLogService(d.Repos.EventRepo, d.Publisher, d.Log)
	loop := NewControlLoopService(LoopDeps{
		Engine:    d.Engine,
		Sampler:   d.Sampler,
		Hub:       d.Hub,
		Publisher: d.Publisher,
		Events:    events,
		Watchdog:  NewWatchdog(d.WatchdogPeriod, 0),
	}, d.Log)

	return &Service{
		Settings:   NewSettingsService(d.Engine, d.Repos.SettingsRepo, events, d.Log),
		Monitoring: NewStatusService(d.Engine, loop, d.Hub),
		EventLog:   events,
		Control:    loop,
		Heartbeat:  NewHeartbeatService(d.LED, d.Log),
	}
}
