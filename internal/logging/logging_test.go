package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/anp/internal/config"
	"github.com/born-ml/anp/internal/nn"
)

func TestNew_SplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewWithWriters(config.LogConfig{Level: "info", Format: "json"},
		zapcore.AddSync(&out), zapcore.AddSync(&errOut))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("step", zap.Int("step", 3))
	logger.Error("failed")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "step", entry["msg"])
	assert.InDelta(t, 3, entry["step"], 0)
	assert.Contains(t, entry, "caller")

	assert.Contains(t, errOut.String(), "failed")
	assert.NotContains(t, errOut.String(), "step")
}

func TestNew_Console(t *testing.T) {
	var out bytes.Buffer
	logger, err := NewWithWriters(config.LogConfig{Level: "debug", Format: "console"},
		zapcore.AddSync(&out), zapcore.AddSync(&out))
	require.NoError(t, err)

	logger.Debug("visible", zap.String("kind", "mlp"))
	assert.Contains(t, out.String(), "visible")
	assert.Contains(t, out.String(), "mlp")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	assert.ErrorIs(t, err, nn.ErrConfiguration)

	_, err = New(config.LogConfig{Level: "info", Format: "xml"})
	assert.ErrorIs(t, err, nn.ErrConfiguration)
}
