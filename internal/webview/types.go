package webview

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sysinfo"
)

// Config defines view configuration
type Config struct {
	Info     sysinfo.SystemInfo
	Timeout  time.Duration // per script evaluation
	Logger   *zap.Logger
	Observer bridge.Observer
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, info, warn, error
	Message string    // joined arguments
	Time    time.Time // timestamp
}

// DefaultConfig returns the default view configuration
func DefaultConfig() Config {
	return Config{
		Info:    sysinfo.Default(),
		Timeout: 5 * time.Second,
	}
}
