// Package control holds the pump decision engine: per-channel hysteresis with
// latched intents, OR-combination of channel demands, and minimum dwell times
// gating every actuator transition.
package control

import (
	"math"
	"sync"
	"time"

	"controlling_pump/internal/gpio"
	"controlling_pump/internal/logger"
	"controlling_pump/internal/models"
)

// minSetting is the exclusive lower bound for every threshold and hysteresis.
const minSetting float32 = 1.0

// DefaultSettings are used until valid settings are applied.
var DefaultSettings = models.Settings{
	MinAmbient:        38.0,
	AmbientHysteresis: 2.0,
	MinWater:          35.0,
	WaterHysteresis:   4.0,
}

// Config holds the engine's static parameters.
type Config struct {
	MinRunTime time.Duration // minimum time On before turning Off
	MinOffTime time.Duration // minimum time Off before turning On
	Settings   models.Settings
	Schedule   Schedule // nil means NoSchedule
}

// ChannelDecision is the last On/Off recommendation of one channel. It is held
// across ticks so a disconnected probe keeps its previous intent.
type ChannelDecision struct {
	Intent models.PumpState
}

// Decision is the outcome of one Tick.
type Decision struct {
	Intents      [models.ChannelCount]models.PumpState
	Scheduled    bool
	Commanded    models.PumpState
	State        models.PumpState
	Transitioned bool
	Deferred     bool
	StateTime    time.Duration
}

// Engine is the single owner of thresholds, latched intents and pump state.
// All methods are safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	thresholds [models.ChannelCount]models.ControlThresholds
	latched    [models.ChannelCount]ChannelDecision
	state      models.PumpState
	stateTime  time.Duration
	minRun     time.Duration
	minOff     time.Duration
	pump       gpio.Output
	schedule   Schedule
	log        *logger.Logger
}

// NewEngine creates an engine with the pump Off. The state timer starts past
// both dwell limits so the first commanded transition is not deferred.
func NewEngine(cfg Config, pump gpio.Output, log *logger.Logger) *Engine {
	e := &Engine{
		minRun:   cfg.MinRunTime,
		minOff:   cfg.MinOffTime,
		pump:     pump,
		schedule: cfg.Schedule,
		log:      log,
	}
	if e.schedule == nil {
		e.schedule = NoSchedule{}
	}
	e.stateTime = max(e.minRun, e.minOff)
	e.thresholds[models.ChannelAmbient] = models.ControlThresholds{
		MinTemperature: DefaultSettings.MinAmbient,
		Hysteresis:     DefaultSettings.AmbientHysteresis,
	}
	e.thresholds[models.ChannelWater] = models.ControlThresholds{
		MinTemperature: DefaultSettings.MinWater,
		Hysteresis:     DefaultSettings.WaterHysteresis,
	}
	e.ApplySettings(cfg.Settings)

	if err := pump.Set(false); err != nil {
		log.Errorw("pump_init_write_failed", "err", err)
	}
	return e
}

// Tick runs one decision step on freshly sampled readings and advances the
// state timer by period.
func (e *Engine) Tick(now time.Time, readings [models.ChannelCount]models.SensorReading, period time.Duration) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	var d Decision
	for ch := range e.latched {
		d.Intents[ch] = e.latch(models.ChannelID(ch), readings[ch])
	}

	demand := false
	for _, in := range d.Intents {
		demand = demand || in == models.PumpOn
	}
	d.Scheduled = e.schedule.Demand(now)
	d.Commanded = models.PumpState(demand || d.Scheduled)

	d.Transitioned, d.Deferred = e.commit(d.Commanded)

	e.stateTime += period
	d.State = e.state
	d.StateTime = e.stateTime
	return d
}

// latch updates and returns the intent of one channel. Must hold e.mu.
func (e *Engine) latch(ch models.ChannelID, r models.SensorReading) models.PumpState {
	dec := &e.latched[ch]
	if models.IsDisconnected(r.ValueC) {
		return dec.Intent
	}
	th := e.thresholds[ch]
	if e.state == models.PumpOff {
		if r.ValueC < th.MinTemperature {
			dec.Intent = models.PumpOn
		}
	} else if r.ValueC > th.MinTemperature+th.Hysteresis {
		dec.Intent = models.PumpOff
	}
	return dec.Intent
}

// commit drives the actuator toward want if the dwell time of the current
// state has elapsed. Must hold e.mu.
func (e *Engine) commit(want models.PumpState) (transitioned, deferred bool) {
	if want == e.state {
		return false, false
	}
	need := e.minOff
	if e.state == models.PumpOn {
		need = e.minRun
	}
	if e.stateTime < need {
		e.log.Debugw("pump_transition_deferred",
			"from", e.state.String(), "to", want.String(),
			"state_time", e.stateTime, "required", need)
		return false, true
	}
	if err := e.pump.Set(bool(want)); err != nil {
		e.log.Errorw("pump_write_failed", "to", want.String(), "err", err)
		return false, true
	}
	e.log.Infow("pump_transition", "from", e.state.String(), "to", want.String(), "after", e.stateTime)
	e.state = want
	e.stateTime = 0
	return true, false
}

func validSetting(v float32) bool {
	return v > minSetting && !math.IsInf(float64(v), 0)
}

func (e *Engine) set(field string, dst *float32, v float32) bool {
	if !validSetting(v) {
		e.log.Warnw("setting_rejected", "field", field, "value", v)
		return false
	}
	e.mu.Lock()
	*dst = v
	e.mu.Unlock()
	e.log.Infow("setting_applied", "field", field, "value", v)
	return true
}

// SetMinAmbientTemperature sets the ambient set point. Values <= 1.0 are rejected.
func (e *Engine) SetMinAmbientTemperature(v float32) bool {
	return e.set("min_ambient", &e.thresholds[models.ChannelAmbient].MinTemperature, v)
}

// SetAmbientHysteresis sets the ambient dead band. Values <= 1.0 are rejected.
func (e *Engine) SetAmbientHysteresis(v float32) bool {
	return e.set("ambient_hysteresis", &e.thresholds[models.ChannelAmbient].Hysteresis, v)
}

// SetMinWaterTemperature sets the water set point. Values <= 1.0 are rejected.
func (e *Engine) SetMinWaterTemperature(v float32) bool {
	return e.set("min_water", &e.thresholds[models.ChannelWater].MinTemperature, v)
}

// SetWaterHysteresis sets the water dead band. Values <= 1.0 are rejected.
func (e *Engine) SetWaterHysteresis(v float32) bool {
	return e.set("water_hysteresis", &e.thresholds[models.ChannelWater].Hysteresis, v)
}

// ApplySettings runs every setter independently.
func (e *Engine) ApplySettings(s models.Settings) models.SettingsResult {
	return e.ApplyPatch(s.Patch())
}

// ApplyPatch runs the setter of each provided field. Omitted fields are not
// touched and are reported as accepted.
func (e *Engine) ApplyPatch(p models.SettingsPatch) models.SettingsResult {
	res := models.SettingsResult{MinAmbient: true, AmbientHysteresis: true, MinWater: true, WaterHysteresis: true}
	if p.MinAmbient != nil {
		res.MinAmbient = e.SetMinAmbientTemperature(*p.MinAmbient)
	}
	if p.AmbientHysteresis != nil {
		res.AmbientHysteresis = e.SetAmbientHysteresis(*p.AmbientHysteresis)
	}
	if p.MinWater != nil {
		res.MinWater = e.SetMinWaterTemperature(*p.MinWater)
	}
	if p.WaterHysteresis != nil {
		res.WaterHysteresis = e.SetWaterHysteresis(*p.WaterHysteresis)
	}
	return res
}

// MinAmbientTemperature returns the ambient set point in °C.
func (e *Engine) MinAmbientTemperature() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds[models.ChannelAmbient].MinTemperature
}

// AmbientHysteresis returns the ambient dead band in °C.
func (e *Engine) AmbientHysteresis() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds[models.ChannelAmbient].Hysteresis
}

// MinWaterTemperature returns the water set point in °C.
func (e *Engine) MinWaterTemperature() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds[models.ChannelWater].MinTemperature
}

// WaterHysteresis returns the water dead band in °C.
func (e *Engine) WaterHysteresis() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds[models.ChannelWater].Hysteresis
}

// Settings returns all four settings under one lock.
func (e *Engine) Settings() models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.Settings{
		MinAmbient:        e.thresholds[models.ChannelAmbient].MinTemperature,
		AmbientHysteresis: e.thresholds[models.ChannelAmbient].Hysteresis,
		MinWater:          e.thresholds[models.ChannelWater].MinTemperature,
		WaterHysteresis:   e.thresholds[models.ChannelWater].Hysteresis,
	}
}

// PumpState returns the committed actuator state.
func (e *Engine) PumpState() models.PumpState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StateTimeSecs returns whole seconds since the last committed transition.
func (e *Engine) StateTimeSecs() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint32(e.stateTime / time.Second)
}

// Latched returns the held intent of every channel.
func (e *Engine) Latched() [models.ChannelCount]ChannelDecision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latched
}
