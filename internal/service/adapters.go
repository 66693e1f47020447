package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/exchange"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/google/uuid"
)

// ConfigStore reads the tenant configuration the approval gate and the
// exchange resolver depend on. Satisfied by *database.Queries.
type ConfigStore interface {
	ListApprovalRules(ctx context.Context, tenantID uuid.UUID) ([]database.ApprovalRule, error)
	GetLatestExchangeRate(ctx context.Context, arg database.GetLatestExchangeRateParams) (database.ExchangeRate, error)
	GetUserForApproval(ctx context.Context, arg database.GetUserForApprovalParams) (database.User, error)
}

// Lookups adapts a ConfigStore to approval.RuleSource,
// approval.ApproverStore and exchange.Store.
type Lookups struct {
	store ConfigStore
}

// NewLookups creates Lookups.
func NewLookups(store ConfigStore) *Lookups {
	return &Lookups{store: store}
}

// ListApprovalRules implements approval.RuleSource.
func (l *Lookups) ListApprovalRules(ctx context.Context, tenantID uuid.UUID) ([]approval.Rule, error) {
	rows, err := l.store.ListApprovalRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list approval rules: %w", err)
	}
	rules := make([]approval.Rule, len(rows))
	for i, r := range rows {
		rules[i] = approval.Rule{
			ID:       r.ID,
			TenantID: r.TenantID,
			Scope: approval.Scope{
				BranchID: fromUUID(r.BranchID),
				Role:     enum.Role(r.Role.String),
			},
			MaxDiscountPercentWithoutApproval: money.FromNumeric(r.MaxDiscountPercentWithoutApproval),
			RequireManagerApprovalForVoid:     r.RequireManagerApprovalForVoid,
			CanVoidPaidInvoice:                r.CanVoidPaidInvoice,
			CanChangePrice:                    r.CanChangePrice,
		}
	}
	return rules, nil
}

// GetApprover implements approval.ApproverStore.
func (l *Lookups) GetApprover(ctx context.Context, tenantID, userID uuid.UUID) (approval.Approver, error) {
	u, err := l.store.GetUserForApproval(ctx, database.GetUserForApprovalParams{ID: userID, TenantID: tenantID})
	if err != nil {
		return approval.Approver{}, noRows(err, fmt.Errorf("%w: user", apperr.ErrNotFound), "get approver")
	}
	return approval.Approver{UserID: u.ID, Role: enum.Role(u.Role), PINHash: u.PinHash.String}, nil
}

// LatestRate implements exchange.Store.
func (l *Lookups) LatestRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (exchange.Rate, error) {
	r, err := l.store.GetLatestExchangeRate(ctx, database.GetLatestExchangeRateParams{
		TenantID:     tenantID,
		FromCurrency: from,
		ToCurrency:   to,
		At:           at,
	})
	if err != nil {
		return exchange.Rate{}, noRows(err, fmt.Errorf("%w: exchange rate", apperr.ErrNotFound), "get exchange rate")
	}
	return exchange.Rate{
		From:        r.FromCurrency,
		To:          r.ToCurrency,
		Rate:        money.FromNumeric(r.Rate),
		EffectiveAt: r.EffectiveAt,
	}, nil
}
