package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"controlling_pump/internal/control"
	"controlling_pump/internal/logger"
	"controlling_pump/internal/metrics"
	"controlling_pump/internal/models"
	"controlling_pump/internal/mqtt"
)

const DefaultControlPeriod = 10 * time.Second

// LoopDeps are the collaborators of one control loop.
type LoopDeps struct {
	Engine    *control.Engine
	Sampler   Sampler
	Hub       Broadcaster
	Publisher mqtt.Publisher
	Events    EventLog
	Watchdog  *Watchdog
}

// LoopSnapshot is the outcome of the latest tick.
type LoopSnapshot struct {
	At       time.Time
	Readings [models.ChannelCount]models.SensorReading
	Decision control.Decision
}

// ControlLoopService samples, decides, commits and broadcasts once per period.
type ControlLoopService struct {
	engine    *control.Engine
	sampler   Sampler
	hub       Broadcaster
	publisher mqtt.Publisher
	events    EventLog
	watchdog  *Watchdog
	log       *logger.Logger

	mu        sync.RWMutex
	last      LoopSnapshot
	connected [models.ChannelCount]bool
}

func NewControlLoopService(d LoopDeps, log *logger.Logger) *ControlLoopService {
	if d.Publisher == nil {
		d.Publisher = mqtt.NopPublisher{}
	}
	if d.Watchdog == nil {
		d.Watchdog = NewWatchdog(DefaultWatchdogPeriod, 0)
	}
	s := &ControlLoopService{
		engine:    d.Engine,
		sampler:   d.Sampler,
		hub:       d.Hub,
		publisher: d.Publisher,
		events:    d.Events,
		watchdog:  d.Watchdog,
		log:       log,
	}
	for i := range s.connected {
		s.connected[i] = true
	}
	return s
}

// Run waits one period, then ticks, until ctx is canceled.
func (s *ControlLoopService) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultControlPeriod
	}
	s.watchdog.Arm()
	defer s.watchdog.Stop()

	t := time.NewTicker(period)
	defer t.Stop()
	s.log.Infow("control_loop_started", "period", period)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("control_loop_stopped")
			return
		case now := <-t.C:
			s.Step(ctx, now, period)
		}
	}
}

// Step runs one tick: sample, decide and commit, broadcast, then poll the
// watchdog queue without blocking.
func (s *ControlLoopService) Step(ctx context.Context, now time.Time, period time.Duration) control.Decision {
	started := time.Now()

	readings := s.sampler.SampleAll()
	s.observeReadings(ctx, now, readings)

	d := s.engine.Tick(now, readings, period)
	switch {
	case d.Transitioned:
		metrics.RecordTransition(d.State.String())
		s.events.Record(ctx, models.PumpEvent{
			OccurredAt:  now.UTC(),
			Type:        models.EventTransition,
			Description: fmt.Sprintf("pump %s", d.State),
			Metadata: map[string]any{
				"to":             d.State.String(),
				"ambient_intent": d.Intents[models.ChannelAmbient].String(),
				"water_intent":   d.Intents[models.ChannelWater].String(),
				"scheduled":      d.Scheduled,
				"ambient_c":      readings.Ambient().ValueC,
				"water_c":        readings.Water().ValueC,
			},
		})
	case d.Deferred:
		metrics.RecordDeferred()
	}

	if s.hub != nil {
		s.hub.BroadcastTick(d.State, readings.Water().ValueC, readings.Ambient().ValueC)
	}

	if err := s.publisher.PublishTelemetry(models.Telemetry{
		Timestamp:     now.UTC(),
		PumpState:     d.State.String(),
		StateTimeSecs: uint32(d.StateTime / time.Second),
		AmbientC:      readings.Ambient().ValueC,
		WaterC:        readings.Water().ValueC,
		AmbientValid:  readings.Ambient().Valid,
		WaterValid:    readings.Water().Valid,
	}); err != nil {
		s.log.Warnw("telemetry_publish_failed", "err", err)
	}

	s.mu.Lock()
	s.last = LoopSnapshot{At: now, Readings: readings, Decision: d}
	s.mu.Unlock()

	metrics.ObserveTick(d.State == models.PumpOn, d.StateTime, time.Since(started))
	s.log.Debugw("control_tick",
		"ambient_c", readings.Ambient().ValueC,
		"water_c", readings.Water().ValueC,
		"state", d.State.String(),
		"state_time", d.StateTime)

	if v, ok := s.watchdog.Poll(); ok {
		metrics.RecordWatchdog()
		s.log.Infow("watchdog_expired", "queue_value", v)
		s.watchdog.Arm()
	}
	return d
}

// observeReadings logs and records a sensor fault once per disconnect.
func (s *ControlLoopService) observeReadings(ctx context.Context, now time.Time, readings [models.ChannelCount]models.SensorReading) {
	for ch, r := range readings {
		channel := models.ChannelID(ch)
		metrics.ObserveReading(channel.String(), r.ValueC, r.Valid)

		s.mu.Lock()
		was := s.connected[ch]
		s.connected[ch] = r.Valid
		s.mu.Unlock()

		switch {
		case was && !r.Valid:
			s.log.Warnw("sensor_disconnected", "channel", channel.String())
			s.events.Record(ctx, models.PumpEvent{
				OccurredAt:  now.UTC(),
				Type:        models.EventSensorFault,
				Description: fmt.Sprintf("%s sensor disconnected, holding last intent", channel),
				Metadata:    map[string]any{"channel": channel.String()},
			})
		case !was && r.Valid:
			s.log.Infow("sensor_reconnected", "channel", channel.String(), "value_c", r.ValueC)
		}
	}
}

// Snapshot returns the outcome of the latest tick.
func (s *ControlLoopService) Snapshot() LoopSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
