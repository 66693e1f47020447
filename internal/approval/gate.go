// Package approval gates discounts, voids, price overrides and refunds
// behind tenant-configured rules and manager co-signing.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrApprovalRequired  = fmt.Errorf("%w: manager approval required", apperr.ErrApprovalRequired)
	ErrPaidVoidForbidden = fmt.Errorf("%w: paid invoices cannot be voided", apperr.ErrApprovalRequired)
	ErrInvalidPIN        = fmt.Errorf("%w: invalid approver pin", apperr.ErrApprovalRequired)
	ErrApproverRole      = fmt.Errorf("%w: approver must be a manager or owner", apperr.ErrApprovalRequired)
	ErrNegativePercent   = fmt.Errorf("%w: discount percent must be >= 0", apperr.ErrInvalidInput)
	ErrRulesUnavailable  = fmt.Errorf("%w: approval rules", apperr.ErrUnavailable)
)

// RuleSource loads the approval rules of a tenant.
type RuleSource interface {
	ListApprovalRules(ctx context.Context, tenantID uuid.UUID) ([]Rule, error)
}

// PINVerifier checks an approver's PIN and returns their role.
type PINVerifier interface {
	Verify(ctx context.Context, tenantID, userID uuid.UUID, pin string) (enum.Role, error)
}

// Override is a manager co-signature supplied with a request.
type Override struct {
	ApproverID uuid.UUID
	PIN        string
}

// Request identifies who is asking and where.
type Request struct {
	TenantID uuid.UUID
	BranchID uuid.UUID
	ActorID  uuid.UUID
	Role     enum.Role
	Override *Override
}

// Decision is a granted request. ApprovedBy is set when a manager signed
// off, including a manager acting on their own behalf.
type Decision struct {
	Rule       Rule
	ApprovedBy *uuid.UUID
}

// Gate evaluates requests. Rule lookups are bounded by timeout and fail
// closed.
type Gate struct {
	rules   RuleSource
	pins    PINVerifier
	timeout time.Duration
}

// NewGate creates a Gate.
func NewGate(rules RuleSource, pins PINVerifier, timeout time.Duration) *Gate {
	return &Gate{rules: rules, pins: pins, timeout: timeout}
}

// Rule returns the rule in force for the request.
func (g *Gate) Rule(ctx context.Context, req Request) (Rule, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	rules, err := g.rules.ListApprovalRules(ctx, req.TenantID)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrRulesUnavailable, err)
	}
	return Resolve(rules, req.BranchID, req.Role), nil
}

// RequestDiscount allows a discount of percent (of the discounted base)
// when it is within the rule's limit, or when a manager signs off.
func (g *Gate) RequestDiscount(ctx context.Context, req Request, percent decimal.Decimal) (Decision, error) {
	if percent.IsNegative() {
		return Decision{}, ErrNegativePercent
	}
	rule, err := g.Rule(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	if percent.LessThanOrEqual(rule.MaxDiscountPercentWithoutApproval) {
		return Decision{Rule: rule}, nil
	}
	return g.cosign(ctx, req, rule)
}

// RequestVoid decides whether an order may be voided. An order counts as a
// paid invoice when its status is Paid or its payments cover it, whatever
// its kitchen status. A paid invoice under a rule that forbids voiding paid
// invoices is refused no matter who asks.
func (g *Gate) RequestVoid(ctx context.Context, req Request, status enum.OrderStatus, payment enum.PaymentStatus) (Decision, error) {
	rule, err := g.Rule(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	if paidInvoice(status, payment) && !rule.CanVoidPaidInvoice {
		return Decision{}, ErrPaidVoidForbidden
	}
	if !rule.RequireManagerApprovalForVoid {
		return Decision{Rule: rule}, nil
	}
	return g.cosign(ctx, req, rule)
}

func paidInvoice(status enum.OrderStatus, payment enum.PaymentStatus) bool {
	return status == enum.OrderStatusPaid ||
		payment == enum.PaymentStatusPaid ||
		payment == enum.PaymentStatusOverpaid
}

// RequestPriceChange allows overriding a line's base price.
func (g *Gate) RequestPriceChange(ctx context.Context, req Request) (Decision, error) {
	rule, err := g.Rule(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	if rule.CanChangePrice {
		return Decision{Rule: rule}, nil
	}
	return g.cosign(ctx, req, rule)
}

// RequestRefund always needs a manager.
func (g *Gate) RequestRefund(ctx context.Context, req Request) (Decision, error) {
	rule, err := g.Rule(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	return g.cosign(ctx, req, rule)
}

func (g *Gate) cosign(ctx context.Context, req Request, rule Rule) (Decision, error) {
	if req.Role.CanApprove() {
		id := req.ActorID
		return Decision{Rule: rule, ApprovedBy: &id}, nil
	}
	if req.Override == nil || g.pins == nil {
		return Decision{}, ErrApprovalRequired
	}
	role, err := g.pins.Verify(ctx, req.TenantID, req.Override.ApproverID, req.Override.PIN)
	if err != nil {
		if errors.Is(err, ErrInvalidPIN) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("verify approver: %w", err)
	}
	if !role.CanApprove() {
		return Decision{}, ErrApproverRole
	}
	id := req.Override.ApproverID
	return Decision{Rule: rule, ApprovedBy: &id}, nil
}
