package agents_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/agents"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
	authtest "github.com/rajeshkumar-okta/courtedge-ai-demo/testing"
)

func TestAgentProcessDemoMode(t *testing.T) {
	exch := exchange.New("", "default")
	a := agents.New(agents.DemoConfig(agents.TypeSales), exch, nil)
	require.False(t, a.Configured())

	res := a.Process(context.Background(), "show open orders", "demo-token-1")
	require.Equal(t, agents.TypeSales, res.Agent)
	require.True(t, res.Exchange.DemoMode)
	require.Contains(t, res.Summary, "Processing: show open orders")
}

func TestAgentProcessRealExchange(t *testing.T) {
	org := authtest.NewExchangeServer()
	defer org.Close()
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	cfg := agents.DemoConfig(agents.TypeCustomer)
	cfg.AgentID = "wlp-customer"
	cfg.AuthServerID = "aus-customer"
	cfg.PrivateJWK = authtest.PrivateJWK("customer-key")

	a := agents.New(cfg, exchange.New(org.URL(), "default"), nil)
	require.True(t, a.Configured())

	res := a.Process(context.Background(), "look up account", issuer.CreateToken("user-9", "u9@example.com"))
	require.True(t, res.Exchange.Success)
	require.False(t, res.Exchange.DemoMode)
	require.Equal(t, "user-9", res.Exchange.UserSubject)
	require.Equal(t, "wlp-customer", res.Exchange.AgentSubject)
}

func TestAgentProcessAccessDenied(t *testing.T) {
	org := authtest.NewExchangeServer()
	defer org.Close()
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	org.DenyAuthServer("aus-pricing")

	cfg := agents.DemoConfig(agents.TypePricing)
	cfg.AgentID = "wlp-pricing"
	cfg.AuthServerID = "aus-pricing"
	cfg.PrivateJWK = authtest.PrivateJWK("pricing-key")

	a := agents.New(cfg, exchange.New(org.URL(), "default"), nil)

	res := a.Process(context.Background(), "what's our margin", issuer.CreateToken("user-9", "u9@example.com"))
	require.True(t, res.Exchange.AccessDenied)
	require.True(t, strings.Contains(res.Summary, "don't have access"))
}

func TestAgentBadPrivateKeyFallsBackToDemo(t *testing.T) {
	cfg := agents.DemoConfig(agents.TypeInventory)
	cfg.AgentID = "wlp-inventory"
	cfg.AuthServerID = "aus-inventory"
	cfg.PrivateJWK = []byte("corrupt")

	a := agents.New(cfg, exchange.New("", "default"), nil)
	require.False(t, a.Configured())
}
