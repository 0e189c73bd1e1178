package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WritesRotatedFile(t *testing.T) {
	defer func() {
		InfoLogger, FatalLogger = zap.NewNop(), zap.NewNop()
	}()

	file := filepath.Join(t.TempDir(), "pnl.log")
	require.NoError(t, Init(Config{Level: "debug", File: file, MaxSizeMB: 1}))

	old := SetServiceName("logger-test")
	defer SetServiceName(old)

	Info("proved %s", "exact")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"proved exact"`)
	assert.Contains(t, string(data), `"service":"logger-test"`)
}

func TestInit_BadLevel(t *testing.T) {
	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestDefaultsDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("a")
		Info("b")
		Warn("c")
		Error("d")
	})
}
