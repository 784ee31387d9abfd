package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary      Service health
// @Description  Reports liveness, the number of websocket clients and whether the consumer loop is running.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	clients := 0
	if h.hub != nil {
		clients = h.hub.Count()
	}
	consuming := false
	if h.consumer != nil {
		consuming = h.consumer.Running()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"clients":   clients,
		"consumer":  consuming,
	})
}
