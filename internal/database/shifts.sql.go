package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const shiftColumns = `id, tenant_id, branch_id, cashier_id, currency, status, opening_cash, expected_cash, counted_cash,
    cash_difference, opened_at, closed_at, closed_by, close_reason`

func scanShift(row pgx.Row) (Shift, error) {
	var i Shift
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.BranchID,
		&i.CashierID,
		&i.Currency,
		&i.Status,
		&i.OpeningCash,
		&i.ExpectedCash,
		&i.CountedCash,
		&i.CashDifference,
		&i.OpenedAt,
		&i.ClosedAt,
		&i.ClosedBy,
		&i.CloseReason,
	)
	return i, err
}

const createShift = `-- name: CreateShift :one
INSERT INTO shifts (id, tenant_id, branch_id, cashier_id, currency, status, opening_cash, opened_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + shiftColumns

type CreateShiftParams struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	BranchID    uuid.UUID      `json:"branch_id"`
	CashierID   uuid.UUID      `json:"cashier_id"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	OpeningCash pgtype.Numeric `json:"opening_cash"`
	OpenedAt    time.Time      `json:"opened_at"`
}

func (q *Queries) CreateShift(ctx context.Context, arg CreateShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, createShift,
		arg.ID,
		arg.TenantID,
		arg.BranchID,
		arg.CashierID,
		arg.Currency,
		arg.Status,
		arg.OpeningCash,
		arg.OpenedAt,
	)
	return scanShift(row)
}

const getShift = `-- name: GetShift :one
SELECT ` + shiftColumns + `
FROM shifts WHERE id = $1 AND tenant_id = $2
`

type GetShiftParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetShift(ctx context.Context, arg GetShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, getShift, arg.ID, arg.TenantID)
	return scanShift(row)
}

const getShiftForUpdate = `-- name: GetShiftForUpdate :one
SELECT ` + shiftColumns + `
FROM shifts WHERE id = $1 AND tenant_id = $2
FOR UPDATE
`

func (q *Queries) GetShiftForUpdate(ctx context.Context, arg GetShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, getShiftForUpdate, arg.ID, arg.TenantID)
	return scanShift(row)
}

const getShiftForShare = `-- name: GetShiftForShare :one
SELECT ` + shiftColumns + `
FROM shifts WHERE id = $1 AND tenant_id = $2
FOR SHARE
`

func (q *Queries) GetShiftForShare(ctx context.Context, arg GetShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, getShiftForShare, arg.ID, arg.TenantID)
	return scanShift(row)
}

const getOpenShift = `-- name: GetOpenShift :one
SELECT ` + shiftColumns + `
FROM shifts WHERE branch_id = $1 AND cashier_id = $2 AND status = 'OPEN'
`

type GetOpenShiftParams struct {
	BranchID  uuid.UUID `json:"branch_id"`
	CashierID uuid.UUID `json:"cashier_id"`
}

func (q *Queries) GetOpenShift(ctx context.Context, arg GetOpenShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, getOpenShift, arg.BranchID, arg.CashierID)
	return scanShift(row)
}

const closeShift = `-- name: CloseShift :one
UPDATE shifts SET
    status = $2,
    expected_cash = $3,
    counted_cash = $4,
    cash_difference = $5,
    closed_at = $6,
    closed_by = $7,
    close_reason = $8
WHERE id = $1 AND status = 'OPEN'
RETURNING ` + shiftColumns

type CloseShiftParams struct {
	ID             uuid.UUID          `json:"id"`
	Status         string             `json:"status"`
	ExpectedCash   pgtype.Numeric     `json:"expected_cash"`
	CountedCash    pgtype.Numeric     `json:"counted_cash"`
	CashDifference pgtype.Numeric     `json:"cash_difference"`
	ClosedAt       pgtype.Timestamptz `json:"closed_at"`
	ClosedBy       pgtype.UUID        `json:"closed_by"`
	CloseReason    pgtype.Text        `json:"close_reason"`
}

func (q *Queries) CloseShift(ctx context.Context, arg CloseShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, closeShift,
		arg.ID,
		arg.Status,
		arg.ExpectedCash,
		arg.CountedCash,
		arg.CashDifference,
		arg.ClosedAt,
		arg.ClosedBy,
		arg.CloseReason,
	)
	return scanShift(row)
}

const listStaleShifts = `-- name: ListStaleShifts :many
SELECT ` + shiftColumns + `
FROM shifts WHERE status = 'OPEN' AND opened_at < $1
ORDER BY opened_at
LIMIT $2
`

type ListStaleShiftsParams struct {
	OpenedBefore time.Time `json:"opened_before"`
	Limit        int32     `json:"limit"`
}

func (q *Queries) ListStaleShifts(ctx context.Context, arg ListStaleShiftsParams) ([]Shift, error) {
	rows, err := q.db.Query(ctx, listStaleShifts, arg.OpenedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Shift
	for rows.Next() {
		i, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listShiftCashPayments = `-- name: ListShiftCashPayments :many
SELECT currency, amount
FROM order_payments
WHERE shift_id = $1 AND method = 'CASH'
ORDER BY seq
`

type ListShiftCashPaymentsRow struct {
	Currency string         `json:"currency"`
	Amount   pgtype.Numeric `json:"amount"`
}

func (q *Queries) ListShiftCashPayments(ctx context.Context, shiftID pgtype.UUID) ([]ListShiftCashPaymentsRow, error) {
	rows, err := q.db.Query(ctx, listShiftCashPayments, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListShiftCashPaymentsRow
	for rows.Next() {
		var i ListShiftCashPaymentsRow
		if err := rows.Scan(&i.Currency, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
