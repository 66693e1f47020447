package approval

import (
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope says where a rule applies. A nil BranchID is tenant-wide; an empty
// Role applies to every role.
type Scope struct {
	BranchID *uuid.UUID
	Role     enum.Role
}

// Global reports whether the scope covers every branch.
func (s Scope) Global() bool {
	return s.BranchID == nil
}

// Matches reports whether the scope covers the branch and role.
func (s Scope) Matches(branchID uuid.UUID, role enum.Role) bool {
	if s.BranchID != nil && *s.BranchID != branchID {
		return false
	}
	return s.Role == "" || s.Role == role
}

// precedence ranks scopes: branch+role > branch > global+role > global.
func (s Scope) precedence() int {
	p := 0
	if s.BranchID != nil {
		p += 2
	}
	if s.Role != "" {
		p++
	}
	return p
}

// Rule is a tenant-configured approval policy.
type Rule struct {
	ID                                uuid.UUID
	TenantID                          uuid.UUID
	Scope                             Scope
	MaxDiscountPercentWithoutApproval decimal.Decimal
	RequireManagerApprovalForVoid     bool
	CanVoidPaidInvoice                bool
	CanChangePrice                    bool
}

// DefaultRule applies when a tenant has configured nothing: every discount,
// void and price change needs a manager, and paid invoices cannot be voided.
func DefaultRule() Rule {
	return Rule{
		MaxDiscountPercentWithoutApproval: decimal.Zero,
		RequireManagerApprovalForVoid:     true,
	}
}

// Resolve picks the most specific rule matching branch and role. Ties keep
// the first rule given.
func Resolve(rules []Rule, branchID uuid.UUID, role enum.Role) Rule {
	best, found := Rule{}, false
	for _, r := range rules {
		if !r.Scope.Matches(branchID, role) {
			continue
		}
		if !found || r.Scope.precedence() > best.Scope.precedence() {
			best, found = r, true
		}
	}
	if !found {
		return DefaultRule()
	}
	return best
}
