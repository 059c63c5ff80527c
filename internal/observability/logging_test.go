package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"defaults", DefaultLogConfig(), false},
		{"debug json stdout", LogConfig{Level: "debug", Format: "json", Output: "stdout"}, false},
		{"warn console stderr", LogConfig{Level: "warn", Format: "console", Output: "stderr"}, false},
		{"error level", LogConfig{Level: "error", Format: "json", Output: "stdout"}, false},
		{"unknown format falls back to json", LogConfig{Level: "info", Format: "xml", Output: "stdout"}, false},
		{"unknown output falls back to stdout", LogConfig{Level: "info", Format: "json", Output: "syslog"}, false},
		{"invalid level", LogConfig{Level: "loud", Format: "json", Output: "stdout"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNewLogger_LevelGates(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	core := logger.Core()
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}
