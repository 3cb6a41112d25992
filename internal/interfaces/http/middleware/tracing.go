package middleware

import (
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxBranchIDLength caps the branch id copied from the query into spans and logs
const MaxBranchIDLength = 64

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns the otelgin server-span middleware, or a pass-through when disabled.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes must run after Tracing. It copies the request id and the
// requested branch onto the server span, and puts the branch on the request
// context so service logs carry it.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		branch := c.Query("branch_id")
		if len(branch) > MaxBranchIDLength {
			branch = ""
		}
		if branch != "" {
			ctx = logger.WithBranchID(ctx, branch)
			c.Request = c.Request.WithContext(ctx)
		}

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if branch != "" {
				span.SetAttributes(attribute.String("branch_id", branch))
			}
		}
		c.Next()
	}
}
