package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"controlling_pump/internal/models"
	"controlling_pump/internal/service"
	"controlling_pump/internal/telemetry"

	"github.com/gorilla/websocket"
)

type wsFixture struct {
	settings *mockSettings
	hub      *telemetry.Hub
	srv      *httptest.Server
}

func newWSFixture(t *testing.T, maxSessions int) *wsFixture {
	t.Helper()
	settings := &mockSettings{current: defaultTestSettings()}
	hub := newTestHub(settings, maxSessions)
	srv := httptest.NewServer(newTestRouter(&service.Service{Settings: settings}, hub))
	t.Cleanup(srv.Close)
	return &wsFixture{settings: settings, hub: hub, srv: srv}
}

func (f *wsFixture) dial(t *testing.T, endpoint string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u, _ := url.Parse(f.srv.URL)
	u.Scheme = "ws"
	u.Path = "/api/v1/ws/" + endpoint
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	return dialer.Dial(u.String(), nil)
}

func (f *wsFixture) mustDial(t *testing.T, endpoint string) *websocket.Conn {
	t.Helper()
	conn, _, err := f.dial(t, endpoint)
	if err != nil {
		t.Fatalf("dial %s: %v", endpoint, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wireFrame struct {
	dt    telemetry.DataType
	value uint32
}

func (w wireFrame) float() float32 { return math.Float32frombits(w.value) }

func readFrames(t *testing.T, conn *websocket.Conn, n int) []wireFrame {
	t.Helper()
	out := make([]wireFrame, 0, n)
	for i := 0; i < n; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		mt, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if mt != websocket.BinaryMessage {
			t.Fatalf("frame %d: message type %d, want binary", i, mt)
		}
		dt, v, err := telemetry.DecodeFrame(payload)
		if err != nil {
			t.Fatalf("decode frame %d: %v", i, err)
		}
		out = append(out, wireFrame{dt: dt, value: v})
	}
	return out
}

func assertSettingsFrames(t *testing.T, frames []wireFrame, want models.Settings) {
	t.Helper()
	expected := []struct {
		dt telemetry.DataType
		v  float32
	}{
		{telemetry.DataSettingMinAmbient, want.MinAmbient},
		{telemetry.DataSettingAmbHysteresis, want.AmbientHysteresis},
		{telemetry.DataSettingMinWater, want.MinWater},
		{telemetry.DataSettingWaterHysteresis, want.WaterHysteresis},
	}
	if len(frames) != len(expected) {
		t.Fatalf("got %d frames, want %d", len(frames), len(expected))
	}
	for i, e := range expected {
		if frames[i].dt != e.dt || frames[i].float() != e.v {
			t.Fatalf("frame %d = %s/%v, want %s/%v", i, frames[i].dt, frames[i].float(), e.dt, e.v)
		}
	}
}

func TestWebSocket_UnknownEndpointRejectedBeforeUpgrade(t *testing.T) {
	f := newWSFixture(t, 0)
	_, resp, err := f.dial(t, "bogus")
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
	if n := len(f.hub.Sessions()); n != 0 {
		t.Fatalf("rejected handshake must not register a session, got %d", n)
	}
}

func TestWebSocket_DataSessionReceivesSettingsReplay(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.mustDial(t, telemetry.EndpointData)

	assertSettingsFrames(t, readFrames(t, conn, 4), defaultTestSettings())

	f.hub.BroadcastTick(models.PumpOn, 25.5, 30)
	tick := readFrames(t, conn, 3)
	if tick[0].dt != telemetry.DataPumpState || tick[0].value != 1 {
		t.Fatalf("pump frame = %+v", tick[0])
	}
	if tick[1].dt != telemetry.DataWaterTemp || tick[1].float() != 25.5 {
		t.Fatalf("water frame = %+v", tick[1])
	}
	if tick[2].dt != telemetry.DataAmbientTemp || tick[2].float() != 30 {
		t.Fatalf("ambient frame = %+v", tick[2])
	}
}

func TestWebSocket_SettingsFrameAppliedAndRebroadcast(t *testing.T) {
	f := newWSFixture(t, 0)
	writer := f.mustDial(t, telemetry.EndpointData)
	observer := f.mustDial(t, telemetry.EndpointData)
	readFrames(t, writer, 4)
	readFrames(t, observer, 4)

	update := models.Settings{MinAmbient: 30, AmbientHysteresis: 3, MinWater: 28, WaterHysteresis: 5}
	if err := writer.WriteMessage(websocket.BinaryMessage, telemetry.EncodeSettingsFrame(update)); err != nil {
		t.Fatalf("write settings frame: %v", err)
	}

	assertSettingsFrames(t, readFrames(t, observer, 4), update)
	assertSettingsFrames(t, readFrames(t, writer, 4), update)

	calls := f.settings.calls()
	if len(calls) != 1 || calls[0] != update {
		t.Fatalf("applier calls = %+v", calls)
	}
}

func TestWebSocket_MalformedFrameIgnored(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.mustDial(t, telemetry.EndpointData)
	readFrames(t, conn, 4)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{8, 0, 0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A valid frame afterwards still works, proving the session survived.
	update := models.Settings{MinAmbient: 31, AmbientHysteresis: 2, MinWater: 35, WaterHysteresis: 4}
	if err := conn.WriteMessage(websocket.BinaryMessage, telemetry.EncodeSettingsFrame(update)); err != nil {
		t.Fatalf("write: %v", err)
	}
	assertSettingsFrames(t, readFrames(t, conn, 4), update)
	if calls := f.settings.calls(); len(calls) != 1 {
		t.Fatalf("malformed frame must not reach the applier: %+v", calls)
	}
}

func TestWebSocket_RemoteDebuggerEcho(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.mustDial(t, telemetry.EndpointRemoteDebugger)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// No settings replay on a debug session: the first message is the ack.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage || string(payload) != telemetry.DebugAck {
		t.Fatalf("got %d %q, want text %q", mt, payload, telemetry.DebugAck)
	}

	f.hub.WriteLine("pump ON")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err = conn.ReadMessage()
	if err != nil || string(payload) != "pump ON" {
		t.Fatalf("log line: %q, err=%v", payload, err)
	}
}

func TestWebSocket_SessionLimit(t *testing.T) {
	f := newWSFixture(t, 1)
	first := f.mustDial(t, telemetry.EndpointData)
	readFrames(t, first, 4)

	_, resp, err := f.dial(t, telemetry.EndpointData)
	if err == nil {
		t.Fatalf("expected second session to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %+v", resp)
	}
}

func TestWebSocket_DetachOnClose(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.mustDial(t, telemetry.EndpointData)
	readFrames(t, conn, 4)
	if n := len(f.hub.Sessions()); n != 1 {
		t.Fatalf("sessions=%d, want 1", n)
	}

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(f.hub.Sessions()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session not detached after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
