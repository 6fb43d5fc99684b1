package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	reqCtx := NewRequestContext(logger, "")
	require.NotEmpty(t, reqCtx.RequestID)
	reqCtx.UserID = "user-42"
	reqCtx.Info("chat handled", slog.Int(LogFieldMessageLen, 12))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, reqCtx.RequestID, line[LogFieldRequestID])
	assert.Equal(t, "user-42", line[LogFieldUserID])
	assert.Equal(t, float64(12), line[LogFieldMessageLen])

	ctx := WithRequestContext(context.Background(), reqCtx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("text", 100*time.Millisecond, false)
	m.RecordRequest("text", 300*time.Millisecond, true)
	m.RecordRequest("voice", time.Second, false)

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.RequestTotal)
	assert.Equal(t, int64(1), s.RequestFailed)
	assert.Equal(t, int64(2), s.Inputs["text"].RequestCount)
	assert.Equal(t, int64(1), s.Inputs["text"].ErrorCount)
	assert.Equal(t, int64(200), s.Inputs["text"].AverageDurationMs)
	assert.InDelta(t, 66.67, s.SuccessRate(), 0.01)
	assert.Equal(t, 100.0, NewMetrics().Snapshot().SuccessRate())
}
