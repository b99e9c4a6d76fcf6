package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	l := NewLogger()
	require.NotNil(t, l)
	defer l.Close()

	assert.True(t, l.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Zap().Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parser.log")
	l, err := NewLoggerWithConfig(LogConfig{Level: "warn", File: path})
	require.NoError(t, err)

	l.Debug("[test] saved record id=%d", 7)
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "saved record id=7"), "debug entries reach the file: %s", b)
}

func TestNewLoggerWithConfigBadLevel(t *testing.T) {
	_, err := NewLoggerWithConfig(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
