package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/platform/ctxutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// quietRoutes log at debug level when they succeed.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one line per request. 5xx logs as error, 4xx as warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		kv = append(kv, requestIdentity(c)...)
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Error())
		}

		switch {
		case status >= 500:
			log.Error("Request failed", kv...)
		case status >= 400:
			log.Warn("Request rejected", kv...)
		case quietRoutes[route]:
			log.Debug("Request served", kv...)
		default:
			log.Info("Request served", kv...)
		}
	}
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}

func requestIdentity(c *gin.Context) []interface{} {
	var kv []interface{}
	ctx := c.Request.Context()
	if td := ctxutil.GetTraceData(ctx); td != nil {
		kv = append(kv, "request_id", td.RequestID, "trace_id", td.TraceID)
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		kv = append(kv, "user_id", rd.UserID)
	}
	return kv
}
