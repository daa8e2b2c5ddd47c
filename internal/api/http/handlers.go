package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/assets"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/sysinfo"
)

// IndexPage is served for "/"
const IndexPage = "index.html"

// Handlers contains the HTTP handlers
type Handlers struct {
	locator  *relaunch.Locator
	prelude  []string
	channels []string
	metrics  *monitoring.Metrics
	breakers *resilience.Group
	logger   *zap.Logger
}

// NewHandlers creates the handlers. Pages are looked up with locator; breakers
// may be nil when transfers do not use the built-in client.
func NewHandlers(
	locator *relaunch.Locator,
	info sysinfo.SystemInfo,
	channels []string,
	metrics *monitoring.Metrics,
	breakers *resilience.Group,
	logger *zap.Logger,
) (*Handlers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	infoScript, err := info.Script()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		locator:  locator,
		prelude:  []string{infoScript, assets.BridgeScript()},
		channels: channels,
		metrics:  metrics,
		breakers: breakers,
		logger:   logger,
	}, nil
}

// Page serves a file from the web directory or bundle. HTML pages get the
// prelude injected.
func (h *Handlers) Page(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	name := c.Request.URL.Path
	if name == "" || strings.HasSuffix(name, "/") {
		name += IndexPage
	}

	target, err := h.locator.Locate(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": c.Request.URL.Path})
		return
	}

	if !isHTML(target.File) {
		c.File(target.File)
		return
	}

	page, err := os.ReadFile(target.File)
	if err != nil {
		h.logger.Error("Failed to read page", zap.String("file", target.File), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read page"})
		return
	}
	out, err := assets.Inject(page, h.prelude...)
	if err != nil {
		h.logger.Error("Failed to inject bridge", zap.String("file", target.File), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare page"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}

// BridgeScript serves the bridge client for pages not served by this host
func (h *Handlers) BridgeScript(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(assets.BridgeScript()))
}

// Health reports dispatch counters, live sessions and transfer breakers
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"metrics": h.metrics.Snapshot(),
	}
	if h.breakers != nil {
		states := make(map[string]string)
		for host, state := range h.breakers.States() {
			states[host] = state.String()
		}
		resp["transfers"] = states
	}
	c.JSON(http.StatusOK, resp)
}

// Capabilities lists the channels every session registers
func (h *Handlers) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"channels": h.channels,
		"count":    len(h.channels),
	})
}

// Metrics exposes the Prometheus registry
func (h *Handlers) Metrics() gin.HandlerFunc {
	return gin.WrapH(h.metrics.Handler())
}

func isHTML(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".html", ".htm":
		return true
	}
	return false
}
