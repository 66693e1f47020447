package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Gift cards ──

const getGiftCard = `-- name: GetGiftCard :one
SELECT id, tenant_id, code, currency, balance, is_active, created_at
FROM gift_cards WHERE id = $1 AND tenant_id = $2
`

type GetGiftCardParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetGiftCard(ctx context.Context, arg GetGiftCardParams) (GiftCard, error) {
	row := q.db.QueryRow(ctx, getGiftCard, arg.ID, arg.TenantID)
	var i GiftCard
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Code,
		&i.Currency,
		&i.Balance,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getGiftCardForUpdate = `-- name: GetGiftCardForUpdate :one
SELECT id, tenant_id, code, currency, balance, is_active, created_at
FROM gift_cards WHERE id = $1 AND tenant_id = $2
FOR UPDATE
`

func (q *Queries) GetGiftCardForUpdate(ctx context.Context, arg GetGiftCardParams) (GiftCard, error) {
	row := q.db.QueryRow(ctx, getGiftCardForUpdate, arg.ID, arg.TenantID)
	var i GiftCard
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Code,
		&i.Currency,
		&i.Balance,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const updateGiftCardBalance = `-- name: UpdateGiftCardBalance :exec
UPDATE gift_cards SET balance = $2 WHERE id = $1
`

type UpdateGiftCardBalanceParams struct {
	ID      uuid.UUID      `json:"id"`
	Balance pgtype.Numeric `json:"balance"`
}

func (q *Queries) UpdateGiftCardBalance(ctx context.Context, arg UpdateGiftCardBalanceParams) error {
	_, err := q.db.Exec(ctx, updateGiftCardBalance, arg.ID, arg.Balance)
	return err
}

const createGiftCardTransaction = `-- name: CreateGiftCardTransaction :exec
INSERT INTO gift_card_transactions (gift_card_id, order_id, payment_id, entry_type, delta, balance_before, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateGiftCardTransactionParams struct {
	GiftCardID    uuid.UUID      `json:"gift_card_id"`
	OrderID       pgtype.UUID    `json:"order_id"`
	PaymentID     pgtype.UUID    `json:"payment_id"`
	EntryType     string         `json:"entry_type"`
	Delta         pgtype.Numeric `json:"delta"`
	BalanceBefore pgtype.Numeric `json:"balance_before"`
	BalanceAfter  pgtype.Numeric `json:"balance_after"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (q *Queries) CreateGiftCardTransaction(ctx context.Context, arg CreateGiftCardTransactionParams) error {
	_, err := q.db.Exec(ctx, createGiftCardTransaction,
		arg.GiftCardID,
		arg.OrderID,
		arg.PaymentID,
		arg.EntryType,
		arg.Delta,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.CreatedAt,
	)
	return err
}

const listGiftCardTransactions = `-- name: ListGiftCardTransactions :many
SELECT id, gift_card_id, order_id, payment_id, entry_type, delta, balance_before, balance_after, created_at
FROM gift_card_transactions WHERE gift_card_id = $1
ORDER BY seq
`

func (q *Queries) ListGiftCardTransactions(ctx context.Context, giftCardID uuid.UUID) ([]GiftCardTransaction, error) {
	rows, err := q.db.Query(ctx, listGiftCardTransactions, giftCardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GiftCardTransaction
	for rows.Next() {
		var i GiftCardTransaction
		if err := rows.Scan(
			&i.ID,
			&i.GiftCardID,
			&i.OrderID,
			&i.PaymentID,
			&i.EntryType,
			&i.Delta,
			&i.BalanceBefore,
			&i.BalanceAfter,
			&i.CreatedAt,
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

// ── Loyalty ──

const getLoyaltyAccount = `-- name: GetLoyaltyAccount :one
SELECT id, tenant_id, customer_name, phone, points_balance, created_at
FROM loyalty_accounts WHERE id = $1 AND tenant_id = $2
`

type GetLoyaltyAccountParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetLoyaltyAccount(ctx context.Context, arg GetLoyaltyAccountParams) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, getLoyaltyAccount, arg.ID, arg.TenantID)
	var i LoyaltyAccount
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.CustomerName,
		&i.Phone,
		&i.PointsBalance,
		&i.CreatedAt,
	)
	return i, err
}

const getLoyaltyAccountForUpdate = `-- name: GetLoyaltyAccountForUpdate :one
SELECT id, tenant_id, customer_name, phone, points_balance, created_at
FROM loyalty_accounts WHERE id = $1 AND tenant_id = $2
FOR UPDATE
`

func (q *Queries) GetLoyaltyAccountForUpdate(ctx context.Context, arg GetLoyaltyAccountParams) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, getLoyaltyAccountForUpdate, arg.ID, arg.TenantID)
	var i LoyaltyAccount
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.CustomerName,
		&i.Phone,
		&i.PointsBalance,
		&i.CreatedAt,
	)
	return i, err
}

const updateLoyaltyBalance = `-- name: UpdateLoyaltyBalance :exec
UPDATE loyalty_accounts SET points_balance = $2 WHERE id = $1
`

type UpdateLoyaltyBalanceParams struct {
	ID            uuid.UUID `json:"id"`
	PointsBalance int64     `json:"points_balance"`
}

func (q *Queries) UpdateLoyaltyBalance(ctx context.Context, arg UpdateLoyaltyBalanceParams) error {
	_, err := q.db.Exec(ctx, updateLoyaltyBalance, arg.ID, arg.PointsBalance)
	return err
}

const createLoyaltyTransaction = `-- name: CreateLoyaltyTransaction :exec
INSERT INTO loyalty_transactions (loyalty_account_id, order_id, payment_id, entry_type, delta, balance_before, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateLoyaltyTransactionParams struct {
	LoyaltyAccountID uuid.UUID   `json:"loyalty_account_id"`
	OrderID          pgtype.UUID `json:"order_id"`
	PaymentID        pgtype.UUID `json:"payment_id"`
	EntryType        string      `json:"entry_type"`
	Delta            int64       `json:"delta"`
	BalanceBefore    int64       `json:"balance_before"`
	BalanceAfter     int64       `json:"balance_after"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (q *Queries) CreateLoyaltyTransaction(ctx context.Context, arg CreateLoyaltyTransactionParams) error {
	_, err := q.db.Exec(ctx, createLoyaltyTransaction,
		arg.LoyaltyAccountID,
		arg.OrderID,
		arg.PaymentID,
		arg.EntryType,
		arg.Delta,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.CreatedAt,
	)
	return err
}

const listLoyaltyTransactions = `-- name: ListLoyaltyTransactions :many
SELECT id, loyalty_account_id, order_id, payment_id, entry_type, delta, balance_before, balance_after, created_at
FROM loyalty_transactions WHERE loyalty_account_id = $1
ORDER BY seq
`

func (q *Queries) ListLoyaltyTransactions(ctx context.Context, loyaltyAccountID uuid.UUID) ([]LoyaltyTransaction, error) {
	rows, err := q.db.Query(ctx, listLoyaltyTransactions, loyaltyAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoyaltyTransaction
	for rows.Next() {
		var i LoyaltyTransaction
		if err := rows.Scan(
			&i.ID,
			&i.LoyaltyAccountID,
			&i.OrderID,
			&i.PaymentID,
			&i.EntryType,
			&i.Delta,
			&i.BalanceBefore,
			&i.BalanceAfter,
			&i.CreatedAt,
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
