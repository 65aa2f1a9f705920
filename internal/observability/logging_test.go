package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", slog.LevelInfo)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithUserID(ctx, 42)
	logger.With("component", "test").InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, float64(42), record["user_id"])
	assert.Equal(t, "test", record["component"])
}

func TestNewLogger_TextOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "development", slog.LevelInfo).Info("plain")

	assert.Contains(t, buf.String(), "msg=plain")
}

func TestGatewayMetrics_TrackCall(t *testing.T) {
	done := GatewayMetrics{}.TrackCall("test_op")
	assert.NotPanics(t, func() { done(200) })

	done = GatewayMetrics{}.TrackCall("test_op")
	assert.NotPanics(t, func() { done(0) })
}
