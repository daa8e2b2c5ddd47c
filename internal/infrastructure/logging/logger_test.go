package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bridge.log")
	logger, err := New(Config{Level: "info", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Session("sess_1").Info("Session opened", zap.String("channel", "unzip"))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"message":"Session opened"`)
	assert.Contains(t, line, `"session_id":"sess_1"`)
	assert.Contains(t, line, `"channel":"unzip"`)
	assert.NotContains(t, line, "hidden")
}

func TestComponentNamesLogger(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bridge.log")
	logger, err := New(Config{Level: "debug", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Component("transfer").Debug("ready")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"transfer"`)
}

func TestFallbacks(t *testing.T) {
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewDevelopment())
	assert.NotNil(t, NewNop().Logger)
}
