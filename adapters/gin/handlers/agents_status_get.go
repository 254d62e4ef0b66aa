package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/orchestrator"
)

type agentStatus struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Color         string   `json:"color"`
	Configured    bool     `json:"configured"`
	HasPrivateKey bool     `json:"has_private_key"`
	Scopes        []string `json:"scopes"`
}

// HandleAgentsStatusGET reports each agent's registration state.
func HandleAgentsStatusGET(orc *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		regs := orc.Agents()
		out := make([]agentStatus, 0, len(regs))
		for _, ag := range regs {
			cfg := ag.Config()
			out = append(out, agentStatus{
				Name:          cfg.Name,
				Type:          string(cfg.Type),
				Description:   cfg.Description,
				Color:         cfg.Color,
				Configured:    ag.Configured(),
				HasPrivateKey: len(cfg.PrivateJWK) > 0,
				Scopes:        cfg.Scopes,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"agents":       out,
			"count":        len(out),
			"orchestrator": "keyword-router",
		})
	}
}
