package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"controlling_pump/internal/metrics"
	"controlling_pump/internal/models"
	"controlling_pump/internal/service"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["status"] != statusOK {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestStatusHandler(t *testing.T) {
	mon := &mockMonitoring{status: models.PumpStatus{
		State:         "ON",
		StateTimeSecs: 42,
		Settings:      defaultTestSettings(),
		Readings: []models.SensorReading{
			models.NewSensorReading(models.ChannelAmbient, 30),
			models.NewSensorReading(models.ChannelWater, models.DisconnectedSentinel),
		},
	}}
	r := newTestRouter(&service.Service{Monitoring: mon}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var st models.PumpStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.State != "ON" || st.StateTimeSecs != 42 || len(st.Readings) != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Readings[1].Valid {
		t.Fatalf("disconnected water probe must be reported invalid")
	}

	mon.err = errors.New("boom")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on service error, got %d", w.Code)
	}
}

func TestSettingsHandlers(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		applyErr   error
		wantCode   int
		wantCalled bool
		want       models.Settings
	}{
		{
			name:       "full_update",
			body:       `{"min_ambient":30,"ambient_hysteresis":3,"min_water":28,"water_hysteresis":5}`,
			wantCode:   http.StatusOK,
			wantCalled: true,
			want:       models.Settings{MinAmbient: 30, AmbientHysteresis: 3, MinWater: 28, WaterHysteresis: 5},
		},
		{
			name:       "partial_update_keeps_other_fields",
			body:       `{"min_water":30}`,
			wantCode:   http.StatusOK,
			wantCalled: true,
			want:       models.Settings{MinAmbient: 38, AmbientHysteresis: 2, MinWater: 30, WaterHysteresis: 4},
		},
		{
			name:       "rejected_field_keeps_value",
			body:       `{"min_ambient":0.5,"min_water":30}`,
			wantCode:   http.StatusUnprocessableEntity,
			wantCalled: true,
			want:       models.Settings{MinAmbient: 38, AmbientHysteresis: 2, MinWater: 30, WaterHysteresis: 4},
		},
		{
			name:     "empty_body_object",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
			want:     defaultTestSettings(),
		},
		{
			name:     "malformed_json",
			body:     `{"min_ambient":`,
			wantCode: http.StatusBadRequest,
			want:     defaultTestSettings(),
		},
		{
			name:       "persist_failure",
			body:       `{"min_ambient":30}`,
			applyErr:   errors.New("disk full"),
			wantCode:   http.StatusInternalServerError,
			wantCalled: true,
			want:       models.Settings{MinAmbient: 30, AmbientHysteresis: 2, MinWater: 35, WaterHysteresis: 4},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := &mockSettings{current: defaultTestSettings(), applyErr: tc.applyErr}
			r := newTestRouter(&service.Service{Settings: settings}, newTestHub(settings, 0))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if called := len(settings.patchCalls()) > 0; called != tc.wantCalled {
				t.Fatalf("apply called=%v, want %v", called, tc.wantCalled)
			}
			if got := settings.Current(); got != tc.want {
				t.Fatalf("settings=%+v, want %+v", got, tc.want)
			}

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
			var got models.Settings
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("unmarshal settings: %v", err)
			}
			if got != tc.want {
				t.Fatalf("GET settings=%+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSettingsHandler_ReportsAcceptedFields(t *testing.T) {
	settings := &mockSettings{current: defaultTestSettings()}
	r := newTestRouter(&service.Service{Settings: settings}, newTestHub(settings, 0))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewBufferString(`{"water_hysteresis":1.0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var out SettingsUpdateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := models.SettingsResult{MinAmbient: true, AmbientHysteresis: true, MinWater: true, WaterHysteresis: false}
	if out.Accepted != want {
		t.Fatalf("accepted=%+v, want %+v", out.Accepted, want)
	}
	if out.Settings.WaterHysteresis != 4 {
		t.Fatalf("rejected hysteresis must keep its value, got %v", out.Settings.WaterHysteresis)
	}
}

func TestSettingsHandler_PatchLeavesOmittedFields(t *testing.T) {
	settings := &mockSettings{current: defaultTestSettings()}
	r := newTestRouter(&service.Service{Settings: settings}, newTestHub(settings, 0))

	// min_water changes through another channel before the PUT is handled
	changed := defaultTestSettings()
	changed.MinWater = 33
	settings.setCurrent(changed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewBufferString(`{"min_ambient":30}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	patches := settings.patchCalls()
	if len(patches) != 1 {
		t.Fatalf("patches=%d, want 1", len(patches))
	}
	p := patches[0]
	if p.MinAmbient == nil || *p.MinAmbient != 30 {
		t.Fatalf("min_ambient not forwarded: %+v", p)
	}
	if p.AmbientHysteresis != nil || p.MinWater != nil || p.WaterHysteresis != nil {
		t.Fatalf("omitted fields must stay nil: %+v", p)
	}
	want := changed
	want.MinAmbient = 30
	if got := settings.Current(); got != want {
		t.Fatalf("settings=%+v, want %+v", got, want)
	}
}

func TestSessionsHandler_NoHub(t *testing.T) {
	r := newTestRouter(&service.Service{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 0 {
		t.Fatalf("count=%d", out.Count)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.ObserveReading("ambient", 21.5, true)

	r := newTestRouter(&service.Service{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("poolpump_temperature_celsius")) {
		t.Fatalf("metrics output misses temperature gauge")
	}
}
