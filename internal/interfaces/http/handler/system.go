package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves liveness and build information.
type SystemHandler struct {
	startedAt time.Time
	version   string
}

// NewSystemHandler creates a SystemHandler anchored at process start.
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{startedAt: time.Now(), version: version}
}

// Health reports process liveness.
func (h *SystemHandler) Health(c *gin.Context) {
	respondOK(c, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	})
}
