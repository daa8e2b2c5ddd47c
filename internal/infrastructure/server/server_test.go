package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/client"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.Root = t.TempDir()
	cfg.Sandbox.BundleDir = t.TempDir()
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestServerRoutes(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Sandbox.BundleDir, "index.html"),
		[]byte("<html><head></head><body>home</body></html>"), 0644))

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "const systemInfo = "},
		{"/health", http.StatusOK, `"status":"healthy"`},
		{"/capabilities", http.StatusOK, `"count":13`},
		{"/native.js", http.StatusOK, "function Native("},
		{"/metrics", http.StatusOK, "bridge_uptime_seconds"},
		{"/missing.html", http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			body := new(strings.Builder)
			_, _ = io.Copy(body, resp.Body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body.String(), tt.contains)
		})
	}
}

func TestServerBridgeSession(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	table := client.NewTable()
	conn, err := client.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/bridge", table, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello, err := conn.Ready(ctx)
	require.NoError(t, err)
	assert.Len(t, hello.Channels, 13)

	call, err := client.NewProxy(table, conn).RmFile(ctx, "")
	require.NoError(t, err)
	result, err := call.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, table.Len())
}

func TestDeviceInfoAppliesProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("theme: dark\nscreenWidth: 414\n"), 0644))

	info, err := DeviceInfo(config.DeviceConfig{SDKVersion: "2.1", ScreenWidth: 375, ScreenHeight: 812, Theme: "light", Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, "2.1", info.SDKVersion)
	assert.Equal(t, float64(414), info.ScreenWidth)
	assert.Equal(t, float64(812), info.ScreenHeight)
	assert.Equal(t, "dark", info.Theme)

	_, err = DeviceInfo(config.DeviceConfig{Profile: filepath.Join(t.TempDir(), "missing.toml")})
	assert.ErrorContains(t, err, "device profile")
}

func TestHeadlessViewStopsWithContext(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Sandbox.BundleDir, "app.js"), []byte("window.started = true;"), 0644))
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, srv.Headless(ctx, "/app.js"))

	assert.Error(t, srv.Headless(context.Background(), "/missing.js"))
}
