package logger

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

const requestIDKey = "request_id"

// Init initializes the global logger. In development mode, it uses a
// human-readable console encoder; in production, it uses JSON.
func Init(isDev bool) {
	once.Do(func() {
		var cfg zap.Config
		if isDev {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
		}
		cfg.InitialFields = map[string]interface{}{"service": "reme-voice"}

		var err error
		globalLogger, err = cfg.Build()
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	})
}

// Get returns the global logger singleton. If Init has not been called,
// it falls back to a no-op logger.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// With returns a child logger with the given fields attached.
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// WithRequestID returns a child logger with a request_id field.
func WithRequestID(requestID string) *zap.Logger {
	return Get().With(zap.String(requestIDKey, requestID))
}

// WithSession returns a child logger tagged with a voice session and the
// conversation it writes to.
func WithSession(sessionID, conversationID string) *zap.Logger {
	return Get().With(
		zap.String("session_id", sessionID),
		zap.String("conversation_id", conversationID),
	)
}

// FromGin returns a logger carrying the request id stored by
// RequestIDMiddleware, or the global logger when there is none.
func FromGin(c *gin.Context) *zap.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return WithRequestID(id)
	}
	return Get()
}

// RequestIDMiddleware stores a request id in the gin context under
// "request_id" and echoes it in the X-Request-ID response header. A valid
// UUID supplied by the caller is reused so the browser can correlate logs.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Sync flushes any buffered log entries. Should be called before the
// application exits.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
