package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authgin "github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/gin"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/ginutil"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/orchestrator"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"session_id"`
	History   []chatMessage `json:"history"`
}

type chatResponse struct {
	Content        string                  `json:"content"`
	SessionID      string                  `json:"session_id"`
	AgentFlow      []orchestrator.FlowStep `json:"agent_flow"`
	TokenExchanges any                     `json:"token_exchanges"`
	UserInfo       *authgin.UserView       `json:"user_info,omitempty"`
}

// HandleChatPOST runs one chat turn through the orchestrator. The gate
// middleware has already admitted the request; the raw bearer token is
// forwarded so agents can perform their delegated exchanges.
func HandleChatPOST(orc *orchestrator.Orchestrator, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLChat) {
			ginutil.TooMany(c)
			return
		}
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "malformed_body")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			ginutil.BadRequest(c, "missing_message")
			return
		}

		user, authed := authgin.CurrentUser(c)
		oreq := orchestrator.Request{
			Message:   req.Message,
			SessionID: req.SessionID,
			UserToken: authgin.RawToken(c),
			User: orchestrator.UserInfo{
				Subject: user.UserID,
				Email:   user.Email,
				Name:    user.Name,
				Groups:  user.Groups,
			},
		}
		res := orc.Process(c.Request.Context(), oreq)

		out := chatResponse{
			Content:        res.Content,
			SessionID:      res.SessionID,
			AgentFlow:      res.AgentFlow,
			TokenExchanges: res.TokenExchanges,
		}
		if authed {
			out.UserInfo = &user
		}
		c.JSON(http.StatusOK, out)
	}
}
