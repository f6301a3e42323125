package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)

	logger.Info().Str("component", "test").Msg("hidden message")
	logger.Warn().Str("component", "test").Msg("visible message")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "component")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New("debug", &buf).Debug().Msg("decoded page")
	assert.Contains(t, buf.String(), "decoded page")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error().Msg("dropped")
	})
}
