package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(buf *bytes.Buffer, service string) *Logger {
	logger := zerolog.New(buf).
		With().
		Str("service", service).
		Logger().
		Hook(OTELHook{})
	return &Logger{Logger: logger}
}

func TestLoggerEmitsServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, "inventory")

	logger.LogCacheHit(context.Background(), "inventory", "111111111111", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "inventory", entry["service"])
	assert.Equal(t, "111111111111", entry["account_id"])
	assert.Equal(t, float64(42), entry["resources"])
}

func TestLogResolutionOmitsEmptyReason(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, "resolver")

	logger.LogResolution(context.Background(), "arn:aws:s3:::b", "inventory", "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "inventory", entry["tag_source"])
	_, hasReason := entry["fallback_reason"]
	assert.False(t, hasReason)
}

func TestOTELHookNoSpanIsNoop(t *testing.T) {
	// Without a recording span the hook must not add trace fields.
	var buf bytes.Buffer
	logger := captureLogger(&buf, "test")

	logger.WithContext(context.Background()).Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasTrace := entry["trace_id"]
	assert.False(t, hasTrace)
}
