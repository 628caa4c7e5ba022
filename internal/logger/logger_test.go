package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Str("op", "login").Msg("visible")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "login", line["op"])
	assert.Equal(t, "visible", line["message"])
}

func TestNewWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "chatty")

	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
