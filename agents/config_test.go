package agents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, s := range []string{"sales", "Sales", " INVENTORY ", "customer", "pricing"} {
		_, ok := ParseType(s)
		require.True(t, ok, "input %q", s)
	}
	_, ok := ParseType("marketing")
	require.False(t, ok)
}

func TestFromEnvPerAgentPrecedence(t *testing.T) {
	t.Setenv("OKTA_AI_AGENT_ID", "wlp-shared")
	t.Setenv("OKTA_AI_AGENT_SALES_ID", "wlp-sales")
	t.Setenv("OKTA_MCP_AUTH_SERVER_ID", "aus-shared")
	t.Setenv("OKTA_SALES_AUTH_SERVER_ID", "aus-sales")
	t.Setenv("OKTA_SALES_AUDIENCE", "api://custom-sales")

	sales := FromEnv(TypeSales)
	require.Equal(t, "wlp-sales", sales.AgentID)
	require.Equal(t, "aus-sales", sales.AuthServerID)
	require.Equal(t, "api://custom-sales", sales.Audience)

	// No per-agent overrides for inventory, shared fallbacks apply.
	inv := FromEnv(TypeInventory)
	require.Equal(t, "wlp-shared", inv.AgentID)
	require.Equal(t, "aus-shared", inv.AuthServerID)
	require.Equal(t, "api://courtedge-inventory", inv.Audience)
}

func TestConfiguredRequiresAllCredentials(t *testing.T) {
	cfg := Config{AgentID: "wlp-1", AuthServerID: "aus-1"}
	require.False(t, cfg.Configured())
	cfg.PrivateJWK = []byte(`{"kty":"RSA"}`)
	require.True(t, cfg.Configured())
}

func TestDemoConfigUnconfigured(t *testing.T) {
	for _, typ := range AllTypes() {
		cfg := DemoConfig(typ)
		require.False(t, cfg.Configured(), "agent %s", typ)
		require.NotEmpty(t, cfg.DisplayName)
		require.NotEmpty(t, cfg.Description)
		require.NotEmpty(t, cfg.Color)
		require.NotEmpty(t, cfg.Scopes)
	}
}

func TestDefaultScopesReadOnlyWhereExpected(t *testing.T) {
	require.Contains(t, DefaultScopes(TypeSales), ScopeSalesRead)
	require.Equal(t, []string{ScopeInventoryRead}, DefaultScopes(TypeInventory))
	require.Equal(t, []string{ScopePricingRead}, DefaultScopes(TypePricing))
}
