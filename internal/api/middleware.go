package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// observe records every request under its route template so that ids do
// not explode metric cardinality.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		s.metrics.ObserveHTTP(c.Request.Method, route, code, started)

		if code >= http.StatusInternalServerError {
			s.logger.Warn("request failed",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", code),
				zap.Duration("duration", time.Since(started)),
			)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				abort(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}
