package control

import "time"

// Schedule is a time-based demand source OR-combined with the sensor intents.
type Schedule interface {
	Demand(now time.Time) bool
}

// NoSchedule never demands the pump.
type NoSchedule struct{}

// Demand always returns false.
func (NoSchedule) Demand(time.Time) bool { return false }

// ScheduleFunc adapts a function to Schedule.
type ScheduleFunc func(now time.Time) bool

// Demand calls f(now).
func (f ScheduleFunc) Demand(now time.Time) bool { return f(now) }
