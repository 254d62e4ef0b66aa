package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/ginutil"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/audit"
)

const (
	defaultAuditWindowMinutes = 10
	defaultAuditLimit         = 20
	maxAuditLimit             = 200
)

// HandleAuditLogsGET returns recent token-exchange audit events, newest
// first. Window and page size come from the minutes and limit query params.
func HandleAuditLogsGET(rec audit.Recorder, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAuditLogs) {
			ginutil.TooMany(c)
			return
		}

		minutes := intQuery(c, "minutes", defaultAuditWindowMinutes)
		limit := intQuery(c, "limit", defaultAuditLimit)
		if limit > maxAuditLimit {
			limit = maxAuditLimit
		}

		since := time.Now().Add(-time.Duration(minutes) * time.Minute)
		events, err := rec.Recent(c.Request.Context(), since, limit)
		if err != nil {
			ginutil.ServerErr(c, "audit_unavailable")
			return
		}
		if events == nil {
			events = []audit.Event{}
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":           events,
			"count":          len(events),
			"window_minutes": minutes,
		})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
