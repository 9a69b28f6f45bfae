package handlers

import (
	"context"
	"sync"
	"time"

	"controlling_pump/internal/models"
	"controlling_pump/internal/service"
	"controlling_pump/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

// mockSettings doubles as service.Settings and the hub's settings source and applier.
type mockSettings struct {
	mu       sync.Mutex
	current  models.Settings
	applyErr error
	applied  []models.Settings
	patches  []models.SettingsPatch
}

func (m *mockSettings) Current() models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockSettings) Settings() models.Settings { return m.Current() }

func (m *mockSettings) ApplySettings(ctx context.Context, s models.Settings) (models.SettingsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, s)
	var res models.SettingsResult
	if s.MinAmbient > 1.0 {
		m.current.MinAmbient, res.MinAmbient = s.MinAmbient, true
	}
	if s.AmbientHysteresis > 1.0 {
		m.current.AmbientHysteresis, res.AmbientHysteresis = s.AmbientHysteresis, true
	}
	if s.MinWater > 1.0 {
		m.current.MinWater, res.MinWater = s.MinWater, true
	}
	if s.WaterHysteresis > 1.0 {
		m.current.WaterHysteresis, res.WaterHysteresis = s.WaterHysteresis, true
	}
	return res, m.applyErr
}

func (m *mockSettings) ApplyPatch(ctx context.Context, p models.SettingsPatch) (models.SettingsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, p)
	res := models.SettingsResult{MinAmbient: true, AmbientHysteresis: true, MinWater: true, WaterHysteresis: true}
	set := func(dst *float32, v *float32, ok *bool) {
		if v == nil {
			return
		}
		if *ok = *v > 1.0; *ok {
			*dst = *v
		}
	}
	set(&m.current.MinAmbient, p.MinAmbient, &res.MinAmbient)
	set(&m.current.AmbientHysteresis, p.AmbientHysteresis, &res.AmbientHysteresis)
	set(&m.current.MinWater, p.MinWater, &res.MinWater)
	set(&m.current.WaterHysteresis, p.WaterHysteresis, &res.WaterHysteresis)
	return res, m.applyErr
}

// setCurrent changes a value behind the handler's back, like a websocket client would.
func (m *mockSettings) setCurrent(s models.Settings) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

func (m *mockSettings) patchCalls() []models.SettingsPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SettingsPatch(nil), m.patches...)
}

func (m *mockSettings) Restore(ctx context.Context) error { return nil }

func (m *mockSettings) calls() []models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Settings(nil), m.applied...)
}

type mockMonitoring struct {
	status models.PumpStatus
	err    error
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (models.PumpStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp      []models.PumpEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
	listCalls int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PumpEvent, error) {
	m.listCalls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

func (m *mockEventLog) Record(ctx context.Context, e models.PumpEvent) {}

// ---- Shared Test Helpers ----

func defaultTestSettings() models.Settings {
	return models.Settings{MinAmbient: 38, AmbientHysteresis: 2, MinWater: 35, WaterHysteresis: 4}
}

func newTestHub(settings *mockSettings, maxSessions int) *telemetry.Hub {
	return telemetry.NewHub(telemetry.Options{
		MaxSessions: maxSessions,
		Settings:    settings,
		Applier:     settings,
	}, nil)
}

func newTestRouter(s *service.Service, hub *telemetry.Hub) *gin.Engine {
	h := NewHandler(s, hub, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
