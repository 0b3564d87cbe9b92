package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "rid-1")
	assert.Equal(t, "rid-1", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestLogger_AttachesRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	l := NewLogger(WithRequestID(context.Background(), "abc"), base)
	l.LogError("purchase", errors.New("boom"))
	l.LogInfof("purchase", "plan %s", "p-1")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "abc", entry.ContextMap()["request_id"])
	assert.Equal(t, "purchase", entry.ContextMap()["operation"])
	assert.Equal(t, "plan p-1", logs.All()[1].Message)
}

func TestLogger_UnknownRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	NewLogger(context.Background(), zap.New(core)).LogWarn("op", "careful")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "unknown", logs.All()[0].ContextMap()["request_id"])
}

func TestNew_FallsBackToInfo(t *testing.T) {
	logger, err := New("development", "nonsense")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
