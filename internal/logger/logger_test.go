package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, observed := observer.New(level)
	t.Cleanup(Replace(zap.New(core)))
	return observed
}

func TestInit(t *testing.T) {
	t.Cleanup(Replace(nil))

	t.Run("Production", func(t *testing.T) {
		Init("production", "")
		assert.NotNil(t, log)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Development", func(t *testing.T) {
		Init("development", "")
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("LevelOverride", func(t *testing.T) {
		Init("development", "warn")
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("BadLevelIgnored", func(t *testing.T) {
		Init("production", "loud")
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestL(t *testing.T) {
	t.Cleanup(Replace(nil))
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "")

	l := L()
	assert.NotNil(t, l)
	assert.Same(t, l, L())
}

func TestReplace(t *testing.T) {
	first := zap.NewNop()
	restore := Replace(first)
	assert.Same(t, first, L())

	restore()
	assert.NotSame(t, first, log)
}

func TestContextFunctions(t *testing.T) {
	ctx := context.Background()
	reqID := "test-request-id-123"

	t.Run("WithRequestID", func(t *testing.T) {
		newCtx := WithRequestID(ctx, reqID)
		assert.Equal(t, reqID, newCtx.Value(requestIDKey))
	})

	t.Run("RequestIDFrom", func(t *testing.T) {
		assert.Equal(t, reqID, RequestIDFrom(WithRequestID(ctx, reqID)))
		assert.Equal(t, "", RequestIDFrom(ctx))
	})
}

func TestFromCtx(t *testing.T) {
	observed := observe(t, zapcore.InfoLevel)

	t.Run("WithRequestID", func(t *testing.T) {
		FromCtx(WithRequestID(context.Background(), "req-abc-123")).Info("with id")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-abc-123", logs[0].ContextMap()["request_id"])
	})

	t.Run("WithoutRequestID", func(t *testing.T) {
		FromCtx(context.Background()).Info("without id")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		_, ok := logs[0].ContextMap()["request_id"]
		assert.False(t, ok)
	})

	t.Run("WithFields", func(t *testing.T) {
		ctx := WithFields(context.Background(), zap.String("owner_id", "c-1"))
		ctx = WithFields(ctx, zap.String("device", "till-2"))
		FromCtx(WithRequestID(ctx, "req-1")).Info("with fields")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, "c-1", fields["owner_id"])
		assert.Equal(t, "till-2", fields["device"])
		assert.Equal(t, "req-1", fields["request_id"])
	})
}

func TestSync(t *testing.T) {
	assert.NotPanics(t, Sync)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("GeneratesIDWhenMissing", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("PreservesExistingID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "test-id-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "test-id-123", seen)
		assert.Equal(t, "test-id-123", w.Header().Get(RequestIDHeader))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"OK", http.StatusOK, zapcore.InfoLevel},
		{"ClientError", http.StatusConflict, zapcore.WarnLevel},
		{"ServerError", http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed := observe(t, zapcore.DebugLevel)
			handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/cart/items", nil))

			logs := observed.TakeAll()
			require.Len(t, logs, 1)
			assert.Equal(t, "request handled", logs[0].Message)
			assert.Equal(t, tt.level, logs[0].Level)
			fields := logs[0].ContextMap()
			assert.Equal(t, "/cart/items", fields["path"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(4), fields["bytes"])
		})
	}
}
