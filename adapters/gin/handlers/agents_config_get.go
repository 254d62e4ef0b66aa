package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/agents"
)

var agentIcons = map[agents.Type]string{
	agents.TypeSales:     "ShoppingCart",
	agents.TypeInventory: "Package",
	agents.TypeCustomer:  "Users",
	agents.TypePricing:   "DollarSign",
}

// HandleAgentsConfigGET serves the static agent metadata the UI renders
// in the architecture view.
func HandleAgentsConfigGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]gin.H, 0, len(agents.AllTypes()))
		for _, t := range agents.AllTypes() {
			cfg := agents.DemoConfig(t)
			out = append(out, gin.H{
				"type":        string(t),
				"name":        cfg.DisplayName,
				"description": cfg.Description,
				"color":       cfg.Color,
				"icon":        agentIcons[t],
			})
		}
		c.JSON(http.StatusOK, gin.H{"agents": out})
	}
}
