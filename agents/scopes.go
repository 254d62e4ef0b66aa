package agents

// OAuth scopes, one family per agent domain. The resource authorization
// servers grant a subset of these based on the user's group membership;
// agents only ever request their own family.
const (
	ScopeSalesRead  = "sales:read"
	ScopeSalesQuote = "sales:quote"
	ScopeSalesOrder = "sales:order"

	ScopeInventoryRead  = "inventory:read"
	ScopeInventoryWrite = "inventory:write"
	ScopeInventoryAlert = "inventory:alert"

	ScopeCustomerRead    = "customer:read"
	ScopeCustomerLookup  = "customer:lookup"
	ScopeCustomerHistory = "customer:history"

	ScopePricingRead     = "pricing:read"
	ScopePricingMargin   = "pricing:margin"
	ScopePricingDiscount = "pricing:discount"
)

// DefaultScopes returns the scopes an agent requests when the caller does
// not narrow them. Read-heavy agents request only read; the authorization
// server policy decides what is actually granted.
func DefaultScopes(t Type) []string {
	switch t {
	case TypeSales:
		return []string{ScopeSalesRead, ScopeSalesQuote, ScopeSalesOrder}
	case TypeInventory:
		return []string{ScopeInventoryRead}
	case TypeCustomer:
		return []string{ScopeCustomerRead, ScopeCustomerLookup, ScopeCustomerHistory}
	case TypePricing:
		return []string{ScopePricingRead}
	}
	return nil
}

// demoScopes are advertised for unconfigured agents.
func demoScopes(t Type) []string {
	switch t {
	case TypeSales:
		return []string{ScopeSalesRead, ScopeSalesQuote, ScopeSalesOrder}
	case TypeInventory:
		return []string{ScopeInventoryRead, ScopeInventoryWrite, ScopeInventoryAlert}
	case TypeCustomer:
		return []string{ScopeCustomerRead, ScopeCustomerLookup, ScopeCustomerHistory}
	case TypePricing:
		return []string{ScopePricingRead, ScopePricingMargin, ScopePricingDiscount}
	}
	return nil
}
