package orchestrator_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/agents"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/audit"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/orchestrator"
	authtest "github.com/rajeshkumar-okta/courtedge-ai-demo/testing"
)

func demoConfigs() []agents.Config {
	out := make([]agents.Config, 0, 4)
	for _, t := range agents.AllTypes() {
		out = append(out, agents.DemoConfig(t))
	}
	return out
}

func TestRoute(t *testing.T) {
	cases := []struct {
		message string
		want    []agents.Type
	}{
		{"show my open orders", []agents.Type{agents.TypeSales}},
		{"how much stock do we have", []agents.Type{agents.TypeInventory}},
		{"what's the discount on rackets", []agents.Type{agents.TypePricing}},
		{"find the Smith account", []agents.Type{agents.TypeCustomer}},
		{"please create a quote for 50 rackets", []agents.Type{agents.TypeSales, agents.TypeInventory, agents.TypePricing}},
		{"Process order #1234", []agents.Type{agents.TypeSales, agents.TypeInventory, agents.TypePricing}},
		{"hello there", nil},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, orchestrator.Route(tc.message), "message %q", tc.message)
	}
}

func TestProcessFallbackWithoutRoute(t *testing.T) {
	o := orchestrator.New(exchange.New("", "default"), demoConfigs(), nil, nil)

	resp := o.Process(context.Background(), orchestrator.Request{Message: "hello"})
	require.NotEmpty(t, resp.SessionID)
	require.Empty(t, resp.TokenExchanges)
	require.Len(t, resp.AgentFlow, 2)
	require.Equal(t, "router", resp.AgentFlow[0].Step)
	require.Equal(t, "coordinator", resp.AgentFlow[1].Step)
}

func TestProcessSingleAgentTurn(t *testing.T) {
	rec := audit.NewMemoryRecorder(0, nil)
	o := orchestrator.New(exchange.New("", "default"), demoConfigs(), rec, nil)

	resp := o.Process(context.Background(), orchestrator.Request{
		Message:   "show open orders",
		SessionID: "sess-1",
		UserToken: "demo-token-1",
		User:      orchestrator.UserInfo{Subject: "demo-user"},
	})
	require.Equal(t, "sess-1", resp.SessionID)
	require.Len(t, resp.TokenExchanges, 1)
	require.True(t, resp.TokenExchanges[0].DemoMode)
	require.Contains(t, resp.Content, "Processing: show open orders")

	// router + sales agent + coordinator
	require.Len(t, resp.AgentFlow, 3)
	require.Equal(t, "sales-agent", resp.AgentFlow[1].Step)
	require.Equal(t, "completed", resp.AgentFlow[1].Status)
}

func TestProcessMultiAgentParallelExchange(t *testing.T) {
	org := authtest.NewExchangeServer()
	defer org.Close()
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	cfgs := demoConfigs()
	for i := range cfgs {
		cfgs[i].AgentID = "wlp-" + string(cfgs[i].Type)
		cfgs[i].AuthServerID = "aus-" + string(cfgs[i].Type)
		cfgs[i].PrivateJWK = authtest.PrivateJWK(string(cfgs[i].Type) + "-key")
	}

	rec := audit.NewMemoryRecorder(0, nil)
	o := orchestrator.New(exchange.New(org.URL(), "default"), cfgs, rec, nil)

	resp := o.Process(context.Background(), orchestrator.Request{
		Message:   "create a quote for 50 rackets",
		UserToken: issuer.CreateToken("user-3", "u3@example.com"),
		User:      orchestrator.UserInfo{Subject: "user-3", Email: "u3@example.com"},
	})

	require.Len(t, resp.TokenExchanges, 3)
	for _, ex := range resp.TokenExchanges {
		require.True(t, ex.Success, "agent %s", ex.AgentID)
		require.Equal(t, "user-3", ex.UserSubject)
	}

	// One org call per routed agent, each against its own auth server.
	require.Equal(t, 3, org.OrgCalls())
	require.Equal(t, 1, org.AuthServerCalls("aus-sales"))
	require.Equal(t, 1, org.AuthServerCalls("aus-inventory"))
	require.Equal(t, 1, org.AuthServerCalls("aus-pricing"))
}

func TestProcessDeniedAgentBecomesDeniedStep(t *testing.T) {
	org := authtest.NewExchangeServer()
	defer org.Close()
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	org.DenyAuthServer("aus-pricing")

	cfgs := demoConfigs()
	for i := range cfgs {
		cfgs[i].AgentID = "wlp-" + string(cfgs[i].Type)
		cfgs[i].AuthServerID = "aus-" + string(cfgs[i].Type)
		cfgs[i].PrivateJWK = authtest.PrivateJWK(string(cfgs[i].Type) + "-key")
	}

	o := orchestrator.New(exchange.New(org.URL(), "default"), cfgs, nil, nil)

	resp := o.Process(context.Background(), orchestrator.Request{
		Message:   "what discount can we offer",
		UserToken: issuer.CreateToken("user-3", "u3@example.com"),
	})

	require.Len(t, resp.TokenExchanges, 1)
	require.True(t, resp.TokenExchanges[0].AccessDenied)
	require.True(t, strings.Contains(resp.Content, "don't have access"))

	var pricingStep *orchestrator.FlowStep
	for i := range resp.AgentFlow {
		if resp.AgentFlow[i].Step == "pricing-agent" {
			pricingStep = &resp.AgentFlow[i]
		}
	}
	require.NotNil(t, pricingStep)
	require.Equal(t, "denied", pricingStep.Status)
}

func TestProcessRecordsAuditEvents(t *testing.T) {
	rec := audit.NewMemoryRecorder(0, nil)
	o := orchestrator.New(exchange.New("", "default"), demoConfigs(), rec, nil)

	o.Process(context.Background(), orchestrator.Request{
		Message:   "create a quote for rackets",
		UserToken: "demo-token-1",
		User:      orchestrator.UserInfo{Subject: "demo-user", Email: "demo@courtedge.example"},
	})

	events, err := rec.Recent(context.Background(), time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, ev := range events {
		require.Equal(t, "demo", ev.Outcome)
		require.Equal(t, "demo-user", ev.UserSubject)
	}
}
