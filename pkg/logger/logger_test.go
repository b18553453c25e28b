package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	l, err := NewLogger(&LoggerConfig{Debug: false})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	dl, err := NewLogger(&LoggerConfig{Debug: true})
	require.NoError(t, err)
	assert.True(t, dl.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_NilConfig(t *testing.T) {
	l, err := NewLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, l)
}
