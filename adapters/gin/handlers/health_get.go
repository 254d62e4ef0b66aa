package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleHealthGET reports liveness plus which auth mode the server
// selected at startup, which the demo UI surfaces as a banner.
func HandleHealthGET(authMode string, configuredAgents int) gin.HandlerFunc {
	started := time.Now()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "healthy",
			"auth_mode":         authMode,
			"configured_agents": configuredAgents,
			"uptime_seconds":    int(time.Since(started).Seconds()),
		})
	}
}

// HandleRootGET identifies the service for anyone poking the bare origin.
func HandleRootGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "courtedge-ai-demo",
			"message": "CourtEdge multi-agent demo API. See /health and /api/chat.",
		})
	}
}
