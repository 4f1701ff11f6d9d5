package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"optionrank/internal/config"
)

func lastEntry(t *testing.T, data []byte) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLoggerWritesFile(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "nested", "optionrank.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("chain scored", "symbol", "XYZ")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entry := lastEntry(t, content)
	assert.Equal(t, "chain scored", entry["msg"])
	assert.Equal(t, "XYZ", entry["symbol"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "req-123")
	logger.InfoContext(ctx, "with request id")
	assert.Equal(t, "req-123", lastEntry(t, buf.Bytes())["trace_id"])

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	buf.Reset()
	logger.InfoContext(spanCtx, "inside span")
	entry := lastEntry(t, buf.Bytes())
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{level: "debug", logged: []string{"DEBUG", "INFO"}},
		{level: "info", logged: []string{"INFO", "WARN"}, dropped: []string{"DEBUG"}},
		{level: "warning", logged: []string{"WARN", "ERROR"}, dropped: []string{"INFO"}},
		{level: "error", logged: []string{"ERROR"}, dropped: []string{"WARN"}},
		{level: "bogus", logged: []string{"INFO"}, dropped: []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(config.LoggingConfig{Level: tt.level, Format: "json"}, &buf)
			require.NoError(t, err)

			logger.Debug("m")
			logger.Info("m")
			logger.Warn("m")
			logger.Error("m")

			out := buf.String()
			for _, l := range tt.logged {
				assert.Contains(t, out, `"level":"`+l+`"`)
			}
			for _, l := range tt.dropped {
				assert.NotContains(t, out, `"level":"`+l+`"`)
			}
		})
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("ranked", "count", 4)
	assert.Contains(t, buf.String(), "msg=ranked")
	assert.Contains(t, buf.String(), "count=4")
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 36)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)), "existing id is kept")
	assert.Empty(t, GetTraceID(context.Background()))
	assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())
}

func TestLoggerHelpers(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	globalLogger = logger

	WithComponent(logger, "pipeline").Info("component test")
	assert.Equal(t, "pipeline", lastEntry(t, buf.Bytes())["component"])

	WithError(logger, os.ErrNotExist).Info("error test")
	assert.Contains(t, lastEntry(t, buf.Bytes())["error"], "file does not exist")
	assert.Same(t, logger, WithError(logger, nil))

	LoggerWithContext(WithTraceID(context.Background(), "abc")).Info("ctx test")
	assert.Equal(t, "abc", lastEntry(t, buf.Bytes())["trace_id"])
}
