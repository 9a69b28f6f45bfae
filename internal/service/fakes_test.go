package service

import (
	"context"
	"sync"

	"controlling_pump/internal/models"
	"controlling_pump/internal/repository"
	"controlling_pump/internal/sensor"
)

// fakeEventRepo is a minimal stub that satisfies repository.EventRepo.
type fakeEventRepo struct {
	mu sync.Mutex

	gotFilter repository.EventFilter
	events    []models.PumpEvent
	appended  []models.PumpEvent
	listErr   error
	appendErr error

	calls int
}

func (f *fakeEventRepo) List(_ context.Context, filter repository.EventFilter) ([]models.PumpEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFilter = filter
	return f.events, f.listErr
}

func (f *fakeEventRepo) Append(_ context.Context, e models.PumpEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.appended))
	for i, e := range f.appended {
		out[i] = e.Type
	}
	return out
}

// fakeSettingsRepo is a stub for repository.SettingsRepo.
type fakeSettingsRepo struct {
	stored  models.Settings
	found   bool
	loadErr error
	saveErr error
	saves   []models.Settings
}

func (f *fakeSettingsRepo) Save(_ context.Context, s models.Settings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, s)
	f.stored, f.found = s, true
	return nil
}

func (f *fakeSettingsRepo) Load(context.Context) (models.Settings, bool, error) {
	return f.stored, f.found, f.loadErr
}

// recordingEventLog captures Record calls.
type recordingEventLog struct {
	mu     sync.Mutex
	events []models.PumpEvent
}

func (r *recordingEventLog) List(context.Context, LogFilter) ([]models.PumpEvent, error) {
	return nil, nil
}

func (r *recordingEventLog) Record(_ context.Context, e models.PumpEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingEventLog) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// scriptedSampler returns one scripted reading pair per call, repeating the last.
type scriptedSampler struct {
	script [][2]float32
	calls  int
}

func (s *scriptedSampler) SampleAll() sensor.Readings {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	v := s.script[i]
	return sensor.Readings{
		models.NewSensorReading(models.ChannelAmbient, v[0]),
		models.NewSensorReading(models.ChannelWater, v[1]),
	}
}

type tickFrame struct {
	state          models.PumpState
	water, ambient float32
}

// fakeBroadcaster records BroadcastTick calls.
type fakeBroadcaster struct {
	mu     sync.Mutex
	ticks  []tickFrame
	counts map[string]int
}

func (f *fakeBroadcaster) BroadcastTick(state models.PumpState, waterC, ambientC float32) {
	f.mu.Lock()
	f.ticks = append(f.ticks, tickFrame{state, waterC, ambientC})
	f.mu.Unlock()
}

func (f *fakeBroadcaster) Counts() map[string]int {
	return f.counts
}
