package telemetry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionType tags a session by the endpoint it connected to.
type SessionType int

const (
	SessionDebugLog SessionType = iota
	SessionTelemetry
)

// Endpoint names under /api/v1/ws/.
const (
	EndpointData           = "data"
	EndpointRemoteDebugger = "remoteDebugger"
)

const (
	defaultWriteWait = 10 * time.Second
	// OutboundDepth bounds the frames queued for one session's writer.
	OutboundDepth = 64
)

var ErrUnknownEndpoint = errors.New("telemetry: unknown endpoint")

func (t SessionType) String() string {
	switch t {
	case SessionDebugLog:
		return "debug_log"
	case SessionTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// ClassifyEndpoint maps a handshake path segment to a session type.
func ClassifyEndpoint(name string) (SessionType, error) {
	switch name {
	case EndpointData:
		return SessionTelemetry, nil
	case EndpointRemoteDebugger:
		return SessionDebugLog, nil
	default:
		return 0, ErrUnknownEndpoint
	}
}

// Conn is the subset of *websocket.Conn used for writing.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type outbound struct {
	kind int
	data []byte
}

// Session is one connected websocket client. Writes are serialized by mu.
// Broadcasts are queued on out and written by the session's own writer
// goroutine, so a stalled client never blocks the sender.
type Session struct {
	ID          uuid.UUID
	Type        SessionType
	RemoteAddr  string
	ConnectedAt time.Time

	conn      Conn
	writeWait time.Duration
	mu        sync.Mutex

	out      chan outbound
	done     chan struct{}
	stopOnce sync.Once
}

// SessionInfo is a copy of a session's identity for listings.
type SessionInfo struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// NewSession wraps conn with a fresh id.
func NewSession(t SessionType, conn Conn, remoteAddr string) *Session {
	return &Session{
		ID:          uuid.New(),
		Type:        t,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now().UTC(),
		conn:        conn,
		writeWait:   defaultWriteWait,
		out:         make(chan outbound, OutboundDepth),
		done:        make(chan struct{}),
	}
}

// Write sends one frame with a write deadline.
func (s *Session) Write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(messageType, data)
}

func (s *Session) writeLocked(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// enqueue queues a frame for the writer without blocking. It reports false
// when the queue is full or the session is stopped.
func (s *Session) enqueue(kind int, data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- outbound{kind: kind, data: data}:
		return true
	default:
		return false
	}
}

// writeLoop drains the queue until stop. failed is called for every write error.
func (s *Session) writeLoop(failed func(error)) {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.out:
			if err := s.Write(m.kind, m.data); err != nil && failed != nil {
				failed(err)
			}
		}
	}
}

// stop ends the writer goroutine. Queued frames are discarded.
func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) info() SessionInfo {
	return SessionInfo{ID: s.ID, Type: s.Type.String(), RemoteAddr: s.RemoteAddr, ConnectedAt: s.ConnectedAt}
}
