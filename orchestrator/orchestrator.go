// Package orchestrator routes a chat turn to the agents that can serve
// it, runs their delegated token exchanges in parallel, and folds the
// results into one response with a visible agent flow and exchange trail.
package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/agents"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/audit"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

// UserInfo is the identity context the gate established for the caller.
type UserInfo struct {
	Subject string   `json:"sub,omitempty"`
	Email   string   `json:"email,omitempty"`
	Name    string   `json:"name,omitempty"`
	Groups  []string `json:"groups,omitempty"`
}

// Request is one chat turn.
type Request struct {
	Message   string
	SessionID string
	UserToken string
	User      UserInfo
}

// FlowStep is one node of the agent flow shown in the UI.
type FlowStep struct {
	Step   string   `json:"step"`
	Action string   `json:"action"`
	Status string   `json:"status"`
	Color  string   `json:"color,omitempty"`
	Agents []string `json:"agents,omitempty"`
}

// Response aggregates the turn's outcome.
type Response struct {
	Content        string            `json:"content"`
	SessionID      string            `json:"session_id"`
	AgentFlow      []FlowStep        `json:"agent_flow"`
	TokenExchanges []exchange.Result `json:"token_exchanges"`
}

// Orchestrator owns the agent registry for the process lifetime.
type Orchestrator struct {
	byType map[agents.Type]*agents.Agent
	order  []agents.Type
	rec    audit.Recorder
	log    *logrus.Entry
}

// New builds the registry from the given configs. Unconfigured agents are
// still registered; they respond in demo mode.
func New(exch *exchange.Exchanger, cfgs []agents.Config, rec audit.Recorder, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	o := &Orchestrator{
		byType: make(map[agents.Type]*agents.Agent, len(cfgs)),
		rec:    rec,
		log:    log,
	}
	for _, cfg := range cfgs {
		o.byType[cfg.Type] = agents.New(cfg, exch, log)
		o.order = append(o.order, cfg.Type)
	}
	return o
}

// Agents returns the registry in routing order.
func (o *Orchestrator) Agents() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(o.order))
	for _, t := range o.order {
		out = append(out, o.byType[t])
	}
	return out
}

// routing keywords per agent domain. Multi-agent phrases trigger a
// combined sales+inventory+pricing turn.
var (
	multiPhrases = []string{"create a quote", "process order"}

	keywordRoutes = []struct {
		t     agents.Type
		words []string
	}{
		{agents.TypeSales, []string{"order", "quote", "deal", "sale"}},
		{agents.TypeInventory, []string{"stock", "inventory", "product", "warehouse"}},
		{agents.TypePricing, []string{"price", "discount", "margin", "cost"}},
		{agents.TypeCustomer, []string{"customer", "account", "contact", "client"}},
	}
)

// Route picks the agents for a message. Nil means no domain matched and
// the coordinator answers directly.
func Route(message string) []agents.Type {
	m := strings.ToLower(message)
	for _, p := range multiPhrases {
		if strings.Contains(m, p) {
			return []agents.Type{agents.TypeSales, agents.TypeInventory, agents.TypePricing}
		}
	}
	for _, r := range keywordRoutes {
		for _, w := range r.words {
			if strings.Contains(m, w) {
				return []agents.Type{r.t}
			}
		}
	}
	return nil
}

const fallbackAnswer = "I'm not sure how to help with that. Try asking about orders, inventory, pricing, or customers."

// Process runs one chat turn. Token exchanges for the routed agents run
// in parallel; a denied exchange becomes a denied flow step, never an
// error for the turn.
func (o *Orchestrator) Process(ctx context.Context, req Request) Response {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	routed := Route(req.Message)
	flow := []FlowStep{{
		Step:   "router",
		Action: "Analyzing request",
		Status: "completed",
		Agents: typeNames(routed),
	}}

	if len(routed) == 0 {
		flow = append(flow, FlowStep{Step: "coordinator", Action: "Answering directly", Status: "completed"})
		return Response{
			Content:        fallbackAnswer,
			SessionID:      sessionID,
			AgentFlow:      flow,
			TokenExchanges: []exchange.Result{},
		}
	}

	results := make([]agents.TaskResult, len(routed))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range routed {
		ag, ok := o.byType[t]
		if !ok {
			ag = agents.New(agents.DemoConfig(t), nil, o.log)
		}
		i, ag := i, ag
		g.Go(func() error {
			results[i] = ag.Process(gctx, req.Message, req.UserToken)
			return nil
		})
	}
	// Agents never return errors; denials and failures live in the results.
	_ = g.Wait()

	exchanges := make([]exchange.Result, 0, len(results))
	summaries := make([]string, 0, len(results))
	for _, r := range results {
		exchanges = append(exchanges, r.Exchange)
		summaries = append(summaries, r.Summary)
		flow = append(flow, agentFlowStep(r, o.byType[r.Agent]))
		o.record(ctx, r, req.User)
	}

	flow = append(flow, FlowStep{
		Step:   "coordinator",
		Action: "Combining agent results",
		Status: "completed",
		Agents: typeNames(routed),
	})

	return Response{
		Content:        strings.Join(summaries, "\n"),
		SessionID:      sessionID,
		AgentFlow:      flow,
		TokenExchanges: exchanges,
	}
}

func (o *Orchestrator) record(ctx context.Context, r agents.TaskResult, user UserInfo) {
	if o.rec == nil {
		return
	}
	ev := audit.FromResult(r.Exchange, string(r.Agent), user.Subject, user.Email)
	if err := o.rec.Record(ctx, ev); err != nil {
		o.log.WithError(err).Warn("audit record failed")
	}
}

func agentFlowStep(r agents.TaskResult, ag *agents.Agent) FlowStep {
	step := FlowStep{
		Step:   string(r.Agent) + "-agent",
		Action: "Processing " + string(r.Agent) + " request",
		Status: "completed",
	}
	if ag != nil {
		step.Color = ag.Config().Color
	}
	switch {
	case r.Exchange.AccessDenied:
		step.Status = "denied"
	case r.Exchange.Err != "":
		step.Status = "error"
	}
	return step
}

func typeNames(ts []agents.Type) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
