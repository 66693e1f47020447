package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getTenant = `-- name: GetTenant :one
SELECT id, name, base_currency, created_at FROM tenants WHERE id = $1
`

func (q *Queries) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := q.db.QueryRow(ctx, getTenant, id)
	var i Tenant
	err := row.Scan(&i.ID, &i.Name, &i.BaseCurrency, &i.CreatedAt)
	return i, err
}

const getBranch = `-- name: GetBranch :one
SELECT id, tenant_id, name, currency, service_charge_percent, tax_percent, tax_base, loyalty_earn_rate,
    loyalty_point_value, is_active, created_at
FROM branches WHERE id = $1 AND tenant_id = $2 AND is_active = true
`

type GetBranchParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetBranch(ctx context.Context, arg GetBranchParams) (Branch, error) {
	row := q.db.QueryRow(ctx, getBranch, arg.ID, arg.TenantID)
	var i Branch
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Name,
		&i.Currency,
		&i.ServiceChargePercent,
		&i.TaxPercent,
		&i.TaxBase,
		&i.LoyaltyEarnRate,
		&i.LoyaltyPointValue,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getCurrency = `-- name: GetCurrency :one
SELECT code, decimals FROM currencies WHERE code = $1
`

func (q *Queries) GetCurrency(ctx context.Context, code string) (Currency, error) {
	row := q.db.QueryRow(ctx, getCurrency, code)
	var i Currency
	err := row.Scan(&i.Code, &i.Decimals)
	return i, err
}

const listApprovalRules = `-- name: ListApprovalRules :many
SELECT id, tenant_id, branch_id, role, max_discount_percent_without_approval, require_manager_approval_for_void,
    can_void_paid_invoice, can_change_price
FROM approval_rules WHERE tenant_id = $1
`

func (q *Queries) ListApprovalRules(ctx context.Context, tenantID uuid.UUID) ([]ApprovalRule, error) {
	rows, err := q.db.Query(ctx, listApprovalRules, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ApprovalRule
	for rows.Next() {
		var i ApprovalRule
		if err := rows.Scan(
			&i.ID,
			&i.TenantID,
			&i.BranchID,
			&i.Role,
			&i.MaxDiscountPercentWithoutApproval,
			&i.RequireManagerApprovalForVoid,
			&i.CanVoidPaidInvoice,
			&i.CanChangePrice,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestExchangeRate = `-- name: GetLatestExchangeRate :one
SELECT id, tenant_id, from_currency, to_currency, rate, effective_at
FROM exchange_rates
WHERE tenant_id = $1 AND from_currency = $2 AND to_currency = $3 AND effective_at <= $4
ORDER BY effective_at DESC
LIMIT 1
`

type GetLatestExchangeRateParams struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	At           time.Time `json:"at"`
}

func (q *Queries) GetLatestExchangeRate(ctx context.Context, arg GetLatestExchangeRateParams) (ExchangeRate, error) {
	row := q.db.QueryRow(ctx, getLatestExchangeRate,
		arg.TenantID,
		arg.FromCurrency,
		arg.ToCurrency,
		arg.At,
	)
	var i ExchangeRate
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.FromCurrency,
		&i.ToCurrency,
		&i.Rate,
		&i.EffectiveAt,
	)
	return i, err
}

const getUserForApproval = `-- name: GetUserForApproval :one
SELECT id, tenant_id, branch_id, full_name, role, pin_hash, is_active, created_at
FROM users WHERE id = $1 AND tenant_id = $2 AND is_active = true
`

type GetUserForApprovalParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetUserForApproval(ctx context.Context, arg GetUserForApprovalParams) (User, error) {
	row := q.db.QueryRow(ctx, getUserForApproval, arg.ID, arg.TenantID)
	var i User
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.BranchID,
		&i.FullName,
		&i.Role,
		&i.PinHash,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

// ── Catalog lookups ──

const getMenuItemForOrder = `-- name: GetMenuItemForOrder :one
SELECT id, tenant_id, branch_id, name, base_price, is_active
FROM menu_items WHERE id = $1 AND branch_id = $2 AND is_active = true
`

type GetMenuItemForOrderParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) GetMenuItemForOrder(ctx context.Context, arg GetMenuItemForOrderParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemForOrder, arg.ID, arg.BranchID)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.BranchID,
		&i.Name,
		&i.BasePrice,
		&i.IsActive,
	)
	return i, err
}

const getMenuItemSizeForOrder = `-- name: GetMenuItemSizeForOrder :one
SELECT id, menu_item_id, name, price_adjustment, is_active
FROM menu_item_sizes WHERE id = $1 AND is_active = true
`

func (q *Queries) GetMenuItemSizeForOrder(ctx context.Context, id uuid.UUID) (MenuItemSize, error) {
	row := q.db.QueryRow(ctx, getMenuItemSizeForOrder, id)
	var i MenuItemSize
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.Name,
		&i.PriceAdjustment,
		&i.IsActive,
	)
	return i, err
}

const getModifierForOrder = `-- name: GetModifierForOrder :one
SELECT id, menu_item_id, name, price, is_active
FROM modifiers WHERE id = $1 AND is_active = true
`

func (q *Queries) GetModifierForOrder(ctx context.Context, id uuid.UUID) (Modifier, error) {
	row := q.db.QueryRow(ctx, getModifierForOrder, id)
	var i Modifier
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.Name,
		&i.Price,
		&i.IsActive,
	)
	return i, err
}
