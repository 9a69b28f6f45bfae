package telemetry

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"controlling_pump/internal/logger"
	"controlling_pump/internal/metrics"
	"controlling_pump/internal/models"
)

const (
	DefaultMaxSessions = 7
	// DebugLineLimit caps the size of a forwarded log line.
	DebugLineLimit = 128
	// DebugAck is echoed to a debug session for every text frame it sends.
	DebugAck = "Debugger Message Received"
)

// AllSessions targets every Telemetry session in SendData.
var AllSessions = uuid.Nil

var (
	ErrTooManySessions = errors.New("telemetry: session limit reached")
	ErrSessionNotFound = errors.New("telemetry: session not found")
)

// SettingsSource provides the currently held settings for replay.
type SettingsSource interface {
	Settings() models.Settings
}

// SettingsApplier applies an inbound settings update.
type SettingsApplier interface {
	ApplySettings(ctx context.Context, s models.Settings) (models.SettingsResult, error)
}

// Options configures a Hub.
type Options struct {
	MaxSessions int
	Settings    SettingsSource
	Applier     SettingsApplier
}

// Hub is the bounded registry of live websocket sessions.
//
// Lock order: Session.mu before Hub.mu. Broadcasts snapshot the registry
// under h.mu and write without holding it.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	max      int

	settings SettingsSource
	applier  SettingsApplier
	log      *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(opts Options, log *logger.Logger) *Hub {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		sessions: make(map[uuid.UUID]*Session),
		max:      opts.MaxSessions,
		settings: opts.Settings,
		applier:  opts.Applier,
		log:      log,
	}
}

// SetApplier installs the handler for inbound settings frames.
func (h *Hub) SetApplier(a SettingsApplier) {
	h.mu.Lock()
	h.applier = a
	h.mu.Unlock()
}

// Full reports whether no more sessions can attach.
func (h *Hub) Full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions) >= h.max
}

// Attach registers s. A Telemetry session receives the four current settings
// before any broadcast can reach it.
func (h *Hub) Attach(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.mu.Lock()
	if len(h.sessions) >= h.max {
		h.mu.Unlock()
		return ErrTooManySessions
	}
	h.sessions[s.ID] = s
	h.updateGaugesLocked()
	h.mu.Unlock()

	h.log.Infow("ws_session_attached", "session_id", s.ID, "type", s.Type.String(), "remote_addr", s.RemoteAddr)

	if s.Type == SessionTelemetry && h.settings != nil {
		for _, frame := range settingsFrames(h.settings.Settings()) {
			if err := s.writeLocked(websocket.BinaryMessage, frame); err != nil {
				metrics.RecordSendFailure(s.Type.String())
				h.log.Warnw("ws_replay_failed", "session_id", s.ID, "err", err)
				break
			}
		}
	}
	// Broadcasts queued during the replay wait here; the writer needs s.mu.
	go s.writeLoop(func(err error) { h.writeFailed(s, err) })
	return nil
}

// writeFailed accounts for a failed queued write. Debug sessions are not
// logged: their traffic is the log itself.
func (h *Hub) writeFailed(s *Session, err error) {
	metrics.RecordSendFailure(s.Type.String())
	if s.Type == SessionTelemetry {
		h.log.Warnw("ws_send_failed", "session_id", s.ID, "err", err)
	}
}

// Detach removes the session with id. It reports whether it was registered.
func (h *Hub) Detach(id uuid.UUID) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
		h.updateGaugesLocked()
	}
	h.mu.Unlock()

	if ok {
		s.stop()
		h.log.Infow("ws_session_detached", "session_id", id, "type", s.Type.String())
	}
	return ok
}

func (h *Hub) updateGaugesLocked() {
	counts := map[SessionType]int{SessionDebugLog: 0, SessionTelemetry: 0}
	for _, s := range h.sessions {
		counts[s.Type]++
	}
	for t, n := range counts {
		metrics.SetSessions(t.String(), n)
	}
}

// Sessions returns a snapshot of all live sessions.
func (h *Hub) Sessions() []SessionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]SessionInfo, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s.info())
	}
	return out
}

// Counts returns the number of live sessions per type.
func (h *Hub) Counts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := map[string]int{SessionDebugLog.String(): 0, SessionTelemetry.String(): 0}
	for _, s := range h.sessions {
		counts[s.Type.String()]++
	}
	return counts
}

func (h *Hub) snapshot(t SessionType) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// SendData queues one [dataType][value] frame for target, or for every
// Telemetry session when target is AllSessions. It never blocks: a session
// whose queue is full misses the frame, which counts as a send failure. It
// returns the number of sessions the frame was queued for.
func (h *Hub) SendData(dt DataType, value uint32, target uuid.UUID) int {
	var targets []*Session
	if target == AllSessions {
		targets = h.snapshot(SessionTelemetry)
	} else {
		h.mu.RLock()
		s, ok := h.sessions[target]
		h.mu.RUnlock()
		if !ok {
			h.log.Debugw("ws_send_unknown_session", "session_id", target, "data_type", dt.String())
			return 0
		}
		targets = []*Session{s}
	}

	frame := EncodeFrame(dt, value)
	sent := 0
	for _, s := range targets {
		if !s.enqueue(websocket.BinaryMessage, frame) {
			metrics.RecordSendFailure(s.Type.String())
			h.log.Warnw("ws_send_dropped", "session_id", s.ID, "data_type", dt.String())
			continue
		}
		sent++
	}
	return sent
}

// SendFloat is SendData with a float32 value.
func (h *Hub) SendFloat(dt DataType, v float32, target uuid.UUID) int {
	return h.SendData(dt, EncodeFloatBits(v), target)
}

// BroadcastSettings pushes the four current settings to every Telemetry session.
func (h *Hub) BroadcastSettings() {
	if h.settings == nil {
		return
	}
	s := h.settings.Settings()
	h.SendFloat(DataSettingMinAmbient, s.MinAmbient, AllSessions)
	h.SendFloat(DataSettingAmbHysteresis, s.AmbientHysteresis, AllSessions)
	h.SendFloat(DataSettingMinWater, s.MinWater, AllSessions)
	h.SendFloat(DataSettingWaterHysteresis, s.WaterHysteresis, AllSessions)
}

// BroadcastTick pushes the per-tick pump state and temperatures.
func (h *Hub) BroadcastTick(state models.PumpState, waterC, ambientC float32) {
	h.SendData(DataPumpState, state.Uint32(), AllSessions)
	h.SendFloat(DataWaterTemp, waterC, AllSessions)
	h.SendFloat(DataAmbientTemp, ambientC, AllSessions)
}

// HandleFrame processes one inbound frame from s. Malformed settings frames
// are logged and dropped without side effects.
func (h *Hub) HandleFrame(ctx context.Context, s *Session, messageType int, payload []byte) {
	switch s.Type {
	case SessionDebugLog:
		if messageType != websocket.TextMessage {
			metrics.RecordFrameRejected("debug_binary")
			h.log.Debugw("ws_debug_frame_ignored", "session_id", s.ID, "len", len(payload))
			return
		}
		h.log.Infow("ws_debug_message", "session_id", s.ID, "message", truncateLine(string(payload)))
		if err := s.Write(websocket.TextMessage, []byte(DebugAck)); err != nil {
			metrics.RecordSendFailure(s.Type.String())
			h.log.Warnw("ws_debug_ack_failed", "session_id", s.ID, "err", err)
		}

	case SessionTelemetry:
		if messageType != websocket.BinaryMessage {
			metrics.RecordFrameRejected("not_binary")
			h.log.Warnw("ws_frame_rejected", "session_id", s.ID, "reason", "not_binary")
			return
		}
		update, err := DecodeSettingsFrame(payload)
		if err != nil {
			reason := "length"
			if errors.Is(err, ErrFrameTag) {
				reason = "tag"
			}
			metrics.RecordFrameRejected(reason)
			h.log.Warnw("ws_frame_rejected", "session_id", s.ID, "reason", reason, "err", err)
			return
		}
		h.mu.RLock()
		applier := h.applier
		h.mu.RUnlock()
		if applier == nil {
			h.log.Warnw("ws_settings_unhandled", "session_id", s.ID)
			return
		}
		res, err := applier.ApplySettings(ctx, update)
		if err != nil {
			h.log.Errorw("ws_settings_apply_failed", "session_id", s.ID, "err", err)
		}
		h.log.Infow("ws_settings_received", "session_id", s.ID, "accepted_all", res.All())
		h.BroadcastSettings()
	}
}

// WriteLine forwards a log line to every DebugLog session as a text frame.
// It is called from the logger fan-out and must never log.
func (h *Hub) WriteLine(line string) {
	targets := h.snapshot(SessionDebugLog)
	if len(targets) == 0 {
		return
	}
	frame := []byte(truncateLine(line))
	for _, s := range targets {
		if !s.enqueue(websocket.TextMessage, frame) {
			metrics.RecordSendFailure(s.Type.String())
		}
	}
}

func truncateLine(line string) string {
	if len(line) <= DebugLineLimit {
		return line
	}
	cut := DebugLineLimit
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut]
}
