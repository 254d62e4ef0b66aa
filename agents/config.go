package agents

import (
	"fmt"
	"os"
	"strings"
)

// Type identifies one of the four agent domains.
type Type string

const (
	TypeSales     Type = "sales"
	TypeInventory Type = "inventory"
	TypeCustomer  Type = "customer"
	TypePricing   Type = "pricing"
)

// AllTypes lists the agents in routing order.
func AllTypes() []Type {
	return []Type{TypeSales, TypeInventory, TypeCustomer, TypePricing}
}

// ParseType validates an agent type string.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeSales, TypeInventory, TypeCustomer, TypePricing:
		return t, true
	}
	return "", false
}

// Config holds one agent's identity provider registration. Each agent is
// a first-class identity in the org with its own private key and its own
// resource authorization server.
type Config struct {
	Type        Type
	Name        string
	DisplayName string
	Description string
	Color       string

	AgentID      string // wlp... entity id
	PrivateJWK   []byte // JWK private key JSON
	AuthServerID string // aus...
	Audience     string // api://courtedge-<type>
	Scopes       []string
}

// Configured reports whether the agent can attempt real token exchange.
// Agents missing credentials still run, in demo mode.
func (c Config) Configured() bool {
	return c.AgentID != "" && c.AuthServerID != "" && len(c.PrivateJWK) > 0
}

// FromEnv reads one agent's configuration. Per-agent variables
// (OKTA_AI_AGENT_<TYPE>_ID, OKTA_AI_AGENT_<TYPE>_PRIVATE_KEY,
// OKTA_<TYPE>_AUTH_SERVER_ID, OKTA_<TYPE>_AUDIENCE) take precedence over
// the shared fallbacks (OKTA_AI_AGENT_ID, OKTA_AI_AGENT_PRIVATE_KEY,
// OKTA_MCP_AUTH_SERVER_ID).
func FromEnv(t Type) Config {
	upper := strings.ToUpper(string(t))
	cfg := Config{
		Type:         t,
		Name:         displayNameFor(t, true),
		DisplayName:  displayNameFor(t, false),
		Description:  descriptionFor(t),
		Color:        colorFor(t),
		AgentID:      envOr("OKTA_AI_AGENT_"+upper+"_ID", "OKTA_AI_AGENT_ID"),
		AuthServerID: envOr("OKTA_"+upper+"_AUTH_SERVER_ID", "OKTA_MCP_AUTH_SERVER_ID"),
		Audience:     envDefault("OKTA_"+upper+"_AUDIENCE", fmt.Sprintf("api://courtedge-%s", t)),
		Scopes:       DefaultScopes(t),
	}
	if key := envOr("OKTA_AI_AGENT_"+upper+"_PRIVATE_KEY", "OKTA_AI_AGENT_PRIVATE_KEY"); key != "" {
		cfg.PrivateJWK = []byte(key)
	}
	return cfg
}

// AllFromEnv reads configuration for every agent type.
func AllFromEnv() []Config {
	types := AllTypes()
	out := make([]Config, 0, len(types))
	for _, t := range types {
		out = append(out, FromEnv(t))
	}
	return out
}

// DemoConfig is the fallback used when an agent has no registration.
func DemoConfig(t Type) Config {
	return Config{
		Type:        t,
		Name:        displayNameFor(t, true),
		DisplayName: displayNameFor(t, false),
		Description: descriptionFor(t),
		Color:       colorFor(t),
		Audience:    fmt.Sprintf("api://courtedge-%s", t),
		Scopes:      demoScopes(t),
	}
}

func displayNameFor(t Type, branded bool) string {
	base := strings.ToUpper(string(t)[:1]) + string(t)[1:] + " Agent"
	if branded {
		return "CourtEdge " + base
	}
	return base
}

func descriptionFor(t Type) string {
	switch t {
	case TypeSales:
		return "Orders, quotes, and sales pipeline"
	case TypeInventory:
		return "Stock levels, products, and warehouse"
	case TypeCustomer:
		return "Accounts, contacts, and purchase history"
	case TypePricing:
		return "Pricing, margins, and discounts"
	}
	return ""
}

func colorFor(t Type) string {
	switch t {
	case TypeSales:
		return "#3b82f6"
	case TypeInventory:
		return "#10b981"
	case TypeCustomer:
		return "#8b5cf6"
	case TypePricing:
		return "#f59e0b"
	}
	return "#888888"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(fallback))
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
