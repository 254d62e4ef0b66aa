package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/config"
)

// HandleOktaConfigGET exposes the public pieces of the Okta configuration
// the SPA needs to bootstrap its sign-in widget. Client secrets and agent
// keys never leave the server.
func HandleOktaConfigGET(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"domain":    cfg.Domain,
			"clientId":  cfg.ClientID,
			"issuer":    cfg.Issuer,
			"audience":  cfg.Audience,
			"demo_mode": cfg.Domain == "",
		})
	}
}
