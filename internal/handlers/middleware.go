package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request, skipping the noisy probes.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "/health" || path == "/metrics" || path == "/ws" {
		return
	}
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"took", time.Since(start),
	)
}
