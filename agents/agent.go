// Package agents defines the four domain agents of the demo. Each agent
// is a registered identity in the org; before touching its domain it
// trades the user's ID token for a scoped access token through the
// delegated exchange, so every downstream call is attributable to both
// the agent and the user it acts for.
package agents

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

// Agent binds a Config to the exchanger that gets it tokens.
type Agent struct {
	cfg    Config
	signer *exchange.AssertionSigner
	exch   *exchange.Exchanger
	log    *logrus.Entry
}

// TaskResult is one agent's contribution to a chat turn.
type TaskResult struct {
	Agent    Type            `json:"agent"`
	Summary  string          `json:"summary"`
	Exchange exchange.Result `json:"token_exchange"`
}

// New builds an agent. A config without usable credentials yields an
// agent that operates in demo mode rather than an error, matching the
// demo's graceful degradation.
func New(cfg Config, exch *exchange.Exchanger, log *logrus.Entry) *Agent {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("agent", cfg.Type)
	a := &Agent{cfg: cfg, exch: exch, log: log}
	if cfg.Configured() {
		signer, err := exchange.NewAssertionSigner(cfg.AgentID, cfg.PrivateJWK)
		if err != nil {
			log.WithError(err).Warn("agent private key unusable, falling back to demo mode")
		} else {
			a.signer = signer
		}
	}
	return a
}

// Config returns the agent's registration.
func (a *Agent) Config() Config { return a.cfg }

// Configured reports whether real token exchange is possible.
func (a *Agent) Configured() bool { return a.signer != nil }

// delegation names this agent in an exchange request.
func (a *Agent) delegation(scopes []string) exchange.Delegation {
	if scopes == nil {
		scopes = a.cfg.Scopes
	}
	id := a.cfg.AgentID
	if id == "" {
		id = string(a.cfg.Type)
	}
	return exchange.Delegation{
		AgentID:      id,
		Signer:       a.signer,
		AuthServerID: a.cfg.AuthServerID,
		Audience:     a.cfg.Audience,
		Scopes:       scopes,
	}
}

// Process handles one task for this agent's domain. The token exchange
// always runs first; a policy denial produces a denial summary, not an
// error.
func (a *Agent) Process(ctx context.Context, task, userIDToken string) TaskResult {
	res := a.exch.Exchange(ctx, a.delegation(nil), userIDToken)
	out := TaskResult{Agent: a.cfg.Type, Exchange: res}
	switch {
	case res.AccessDenied:
		out.Summary = fmt.Sprintf("[%s] You don't have access to %s data.", a.cfg.DisplayName, a.cfg.Type)
	case res.Err != "":
		out.Summary = fmt.Sprintf("[%s] Temporarily unable to reach %s systems.", a.cfg.DisplayName, a.cfg.Type)
	default:
		out.Summary = fmt.Sprintf("[%s] Processing: %s", a.cfg.DisplayName, task)
	}
	return out
}
