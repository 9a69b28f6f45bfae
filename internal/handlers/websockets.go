package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"controlling_pump/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Receive timing configuration and message size limits.
const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	errUnknownEndpoint = "unknown websocket endpoint"
	errHubFull         = "too many websocket sessions"
)

// Upgrader for HTTP -> WebSocket. The controller serves a trusted LAN only.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// @Summary      Open a websocket session
// @Description  "data" streams binary telemetry frames and accepts settings frames; "remoteDebugger" streams log lines as text.
// @Tags         websocket
// @Param        endpoint  path  string  true  "Endpoint"  Enums(data,remoteDebugger)
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/ws/{endpoint} [get]
func (h *Handler) wsConnect(c *gin.Context) {
	sessionType, err := telemetry.ClassifyEndpoint(c.Param("endpoint"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownEndpoint})
		return
	}
	if h.hub == nil || h.hub.Full() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errHubFull})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	sess := telemetry.NewSession(sessionType, conn, c.ClientIP())
	if err := h.hub.Attach(sess); err != nil {
		// Another client took the last slot between Full and Attach.
		if errors.Is(err, telemetry.ErrTooManySessions) {
			msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, errHubFull)
			_ = sess.Write(websocket.CloseMessage, msg)
		}
		if h.log != nil {
			h.log.Warnw("ws_attach_failed", "err", err, "type", sessionType.String())
		}
		return
	}
	defer h.hub.Detach(sess.ID)

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()

	// Reader goroutine dispatches inbound frames and detects disconnects.
	done := make(chan struct{})
	go h.startReader(ctx, sess, conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			// Pings share the session write lock with broadcasts.
			if err := sess.Write(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "session_id", sess.ID, "err", err)
				}
				return
			}
		}
	}
}

// startReader hands every inbound frame to the hub until the connection fails.
func (h *Handler) startReader(ctx context.Context, sess *telemetry.Session, conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "session_id", sess.ID, "err", err)
			}
			return
		}
		h.hub.HandleFrame(ctx, sess, messageType, payload)
	}
}
