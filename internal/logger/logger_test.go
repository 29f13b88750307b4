package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTagsJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "debug", "json"), "wizard_service")

	log.Info().Str("flow", "profile").Msg("draft started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "wizard_service", entry["component"])
	assert.Equal(t, "profile", entry["flow"])
	assert.Equal(t, "draft started", entry["message"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "verbose", "json")

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
