package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestDefaultLoggerIsUsableBeforeInitialize(t *testing.T) {
	assert.NotPanics(t, func() {
		Log.Info("before init", WithUserID("u1"))
		WarnWithFields("warn", nil)
		ErrorWithFields("error", assert.AnError)
	})
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "karma", WithKarma(12).Key)
	assert.Equal(t, int64(12), WithKarma(12).Integer)
	assert.Equal(t, "post_id", WithPostID("p1").Key)
	assert.Nil(t, errorFields(nil))
	assert.Len(t, errorFields(assert.AnError), 1)
}

func TestInitializeWritesToFile(t *testing.T) {
	previous := Log
	defer func() { Log = previous }()

	file := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Initialize("debug", file))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))

	Log.Info("hello", zap.String("k", "v"))
	_ = Close()
	assert.FileExists(t, file)
}
