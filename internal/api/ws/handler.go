package ws

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcontainer/internal/providers"
	"github.com/GriffinCanCode/webcontainer/internal/providers/sqlite"
	"github.com/GriffinCanCode/webcontainer/internal/shared/id"
	"github.com/GriffinCanCode/webcontainer/internal/sysinfo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: allowOrigin,
}

// allowOrigin accepts clients without an Origin header, pages served by this
// host, and pages served from a loopback address.
func allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	hostname := u.Hostname()
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// Handler manages bridge WebSocket connections
type Handler struct {
	host    *providers.Host
	info    sysinfo.SystemInfo
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(host *providers.Host, info sysinfo.SystemInfo, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Handler{
		host:    host,
		info:    info,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection upgrades the request and serves one view session until
// the socket closes
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.Serve(c.Request.Context(), conn)
}

// Serve runs a view session on an upgraded connection
func (h *Handler) Serve(parent context.Context, conn *websocket.Conn) {
	sessionID := id.NewSessionID()
	logger := h.logger.Session(sessionID.String())

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s := &session{
		id:      sessionID,
		conn:    conn,
		slot:    sqlite.NewSlot(),
		loop:    bridge.NewLoop(logger),
		metrics: h.metrics,
		logger:  logger,
	}

	reg, err := h.host.Registry(providers.Session{Slot: s.slot, Navigator: s})
	if err != nil {
		logger.Error("Failed to build plugin registry", zap.Error(err))
		return
	}
	s.dispatcher = bridge.NewDispatcher(reg, s,
		bridge.WithLoop(s.loop),
		bridge.WithLogger(logger),
		bridge.WithObserver(h.metrics))

	h.metrics.SessionOpened()
	logger.Info("View session opened", zap.String("remote", conn.RemoteAddr().String()))
	defer func() {
		s.close()
		h.metrics.SessionClosed()
		logger.Info("View session closed")
	}()

	go func() {
		_ = s.loop.Run(ctx)
	}()

	if err := s.write(bridge.Frame{
		Type:       bridge.FrameReady,
		Session:    sessionID.String(),
		Channels:   reg.Names(),
		SystemInfo: h.info,
	}); err != nil {
		logger.Warn("Failed to send ready frame", zap.Error(err))
		return
	}

	s.readLoop(ctx)
}
