package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "loud")

	l.Debug().Msg("debug")
	assert.Empty(t, buf.String())

	l.Info().Msg("info")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestInit_ReturnsSameLogger(t *testing.T) {
	first := Init("debug")
	second := Init("error")

	assert.Same(t, first, second)
	assert.Same(t, first, Get())
}
