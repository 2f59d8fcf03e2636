package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AccessLog logs one structured line per request, correlated with the trace
// span and request id when present.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	accessLogger := log.Named("HTTP")
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		requestID := c.GetString(requestIDHeader)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
		}
		if requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if span.SpanContext().HasTraceID() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()))
		}
		if user, ok := UserFromContext(c); ok {
			fields = append(fields, zap.String("user_id", user.ID))
		}

		if c.Writer.Status() >= 500 {
			accessLogger.Error("HTTP request failed", fields...)
		} else {
			accessLogger.Info("HTTP request completed", fields...)
		}
	}
}
