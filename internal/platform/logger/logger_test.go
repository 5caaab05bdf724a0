package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/platform/config"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.Config{Environment: config.EnvProduction}, &buf)

	log.Debug("hidden")
	log.Info("reminder sent", "organisationId", "o1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "reminder sent", entry["msg"])
	assert.Equal(t, "o1", entry["organisationId"])
}

func TestPrettyHandlerIncludesAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	log := New(config.Config{Environment: config.EnvLocal}, &buf)

	log.With("job", "reminders").WithGroup("tick").Warn("organisation failed", "err", "boom")

	out := buf.String()
	assert.Contains(t, out, "WARN:")
	assert.Contains(t, out, "organisation failed")
	assert.Contains(t, out, `"job": "reminders"`)
	assert.Contains(t, out, `"tick.err": "boom"`)
}
