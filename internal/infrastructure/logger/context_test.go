package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_FromContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	retrieved := FromContext(ctx)
	assert.Equal(t, logger, retrieved)
}

func TestFromContext_NotSet(t *testing.T) {
	retrieved := FromContext(context.Background())

	// Should return a usable no-op logger, not nil
	assert.NotNil(t, retrieved)
	assert.NotPanics(t, func() {
		retrieved.Info("test")
	})
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-42")

	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Equal(t, enriched, FromContext(ctx))

	enriched.Info("hello")
	logs := recorded.All()
	assert.Len(t, logs, 1)
	assert.Equal(t, "req-42", logs[0].ContextMap()["request_id"])
}

func TestWithSessionID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithSessionID(context.Background(), logger, "sync-session-7")

	assert.Equal(t, "sync-session-7", GetSessionID(ctx))

	enriched.Info("page fetched")
	logs := recorded.All()
	assert.Len(t, logs, 1)
	assert.Equal(t, "sync-session-7", logs[0].ContextMap()["session_id"])
}

func TestGetRequestID_NotSet(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetSessionID_NotSet(t *testing.T) {
	assert.Empty(t, GetSessionID(context.Background()))
}
