package utils

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/capitalpay/capitalpay-api/config"
)

// Ginzap returns a gin middleware that writes one access log line per
// request to the given zap logger.
func Ginzap(logger *zap.Logger, timeFormat string, utc bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		query := ctx.Request.URL.RawQuery

		ctx.Next()

		end := time.Now()
		if utc {
			end = end.UTC()
		}
		fields := []zap.Field{
			zap.Int("status", ctx.Writer.Status()),
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", ctx.ClientIP()),
			zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
			zap.Duration("latency", end.Sub(start)),
			zap.String("time", end.Format(timeFormat)),
		}
		if len(ctx.Errors) > 0 {
			logger.Error(ctx.Errors.ByType(gin.ErrorTypePrivate).String(), fields...)
			return
		}
		logger.Info(path, fields...)
	}
}

// RecoveryWithZap returns a gin middleware that recovers from panics, logs
// the stack, and answers with the standard error envelope. The stack is
// echoed in the response body only in development.
func RecoveryWithZap(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", ctx.Request.URL.Path),
					zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
					zap.String("stack", stack),
				)
				resp := JSONResponse{Success: false, Message: "Internal Server Error"}
				if config.IsDevelopment() {
					resp.Stack = stack
				}
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		ctx.Next()
	}
}

// ContextRequestIDKey is the gin context key carrying the request ID.
const ContextRequestIDKey = "request_id"
