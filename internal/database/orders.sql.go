package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, tenant_id, branch_id, shift_id, order_seq, order_number, order_type, currency, currency_decimals,
    exchange_rate_to_base, table_number, delivery_address, notes, loyalty_account_id, status, payment_status,
    service_charge_percent, tax_percent, tax_base, bill_discount_type, bill_discount_value, sub_total,
    total_line_discount, bill_discount_amount, service_charge, taxable_amount, tax_amount, delivery_fee, tips,
    loyalty_discount_amount, loyalty_points_redeemed, loyalty_points_earned, grand_total, total_paid, balance_due,
    voided_at, void_reason, void_by, approved_void_by, version, created_by, created_at, updated_at, paid_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.BranchID,
		&i.ShiftID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.OrderType,
		&i.Currency,
		&i.CurrencyDecimals,
		&i.ExchangeRateToBase,
		&i.TableNumber,
		&i.DeliveryAddress,
		&i.Notes,
		&i.LoyaltyAccountID,
		&i.Status,
		&i.PaymentStatus,
		&i.ServiceChargePercent,
		&i.TaxPercent,
		&i.TaxBase,
		&i.BillDiscountType,
		&i.BillDiscountValue,
		&i.SubTotal,
		&i.TotalLineDiscount,
		&i.BillDiscountAmount,
		&i.ServiceCharge,
		&i.TaxableAmount,
		&i.TaxAmount,
		&i.DeliveryFee,
		&i.Tips,
		&i.LoyaltyDiscountAmount,
		&i.LoyaltyPointsRedeemed,
		&i.LoyaltyPointsEarned,
		&i.GrandTotal,
		&i.TotalPaid,
		&i.BalanceDue,
		&i.VoidedAt,
		&i.VoidReason,
		&i.VoidBy,
		&i.ApprovedVoidBy,
		&i.Version,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.PaidAt,
	)
	return i, err
}

const getNextOrderSeq = `-- name: GetNextOrderSeq :one
SELECT (COALESCE(MAX(order_seq), 0) + 1)::int4 FROM orders WHERE branch_id = $1
`

func (q *Queries) GetNextOrderSeq(ctx context.Context, branchID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderSeq, branchID)
	var column_1 int32
	err := row.Scan(&column_1)
	return column_1, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    id, tenant_id, branch_id, shift_id, order_seq, order_number, order_type, currency, currency_decimals,
    exchange_rate_to_base, table_number, delivery_address, notes, loyalty_account_id, status, payment_status,
    service_charge_percent, tax_percent, tax_base, bill_discount_type, bill_discount_value, sub_total,
    total_line_discount, bill_discount_amount, service_charge, taxable_amount, tax_amount, delivery_fee, tips,
    loyalty_discount_amount, grand_total, total_paid, balance_due, version, created_by, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
    $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID                    uuid.UUID      `json:"id"`
	TenantID              uuid.UUID      `json:"tenant_id"`
	BranchID              uuid.UUID      `json:"branch_id"`
	ShiftID               pgtype.UUID    `json:"shift_id"`
	OrderSeq              int32          `json:"order_seq"`
	OrderNumber           string         `json:"order_number"`
	OrderType             string         `json:"order_type"`
	Currency              string         `json:"currency"`
	CurrencyDecimals      int16          `json:"currency_decimals"`
	ExchangeRateToBase    pgtype.Numeric `json:"exchange_rate_to_base"`
	TableNumber           pgtype.Text    `json:"table_number"`
	DeliveryAddress       pgtype.Text    `json:"delivery_address"`
	Notes                 pgtype.Text    `json:"notes"`
	LoyaltyAccountID      pgtype.UUID    `json:"loyalty_account_id"`
	Status                string         `json:"status"`
	PaymentStatus         string         `json:"payment_status"`
	ServiceChargePercent  pgtype.Numeric `json:"service_charge_percent"`
	TaxPercent            pgtype.Numeric `json:"tax_percent"`
	TaxBase               string         `json:"tax_base"`
	BillDiscountType      pgtype.Text    `json:"bill_discount_type"`
	BillDiscountValue     pgtype.Numeric `json:"bill_discount_value"`
	SubTotal              pgtype.Numeric `json:"sub_total"`
	TotalLineDiscount     pgtype.Numeric `json:"total_line_discount"`
	BillDiscountAmount    pgtype.Numeric `json:"bill_discount_amount"`
	ServiceCharge         pgtype.Numeric `json:"service_charge"`
	TaxableAmount         pgtype.Numeric `json:"taxable_amount"`
	TaxAmount             pgtype.Numeric `json:"tax_amount"`
	DeliveryFee           pgtype.Numeric `json:"delivery_fee"`
	Tips                  pgtype.Numeric `json:"tips"`
	LoyaltyDiscountAmount pgtype.Numeric `json:"loyalty_discount_amount"`
	GrandTotal            pgtype.Numeric `json:"grand_total"`
	TotalPaid             pgtype.Numeric `json:"total_paid"`
	BalanceDue            pgtype.Numeric `json:"balance_due"`
	Version               int32          `json:"version"`
	CreatedBy             uuid.UUID      `json:"created_by"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.TenantID,
		arg.BranchID,
		arg.ShiftID,
		arg.OrderSeq,
		arg.OrderNumber,
		arg.OrderType,
		arg.Currency,
		arg.CurrencyDecimals,
		arg.ExchangeRateToBase,
		arg.TableNumber,
		arg.DeliveryAddress,
		arg.Notes,
		arg.LoyaltyAccountID,
		arg.Status,
		arg.PaymentStatus,
		arg.ServiceChargePercent,
		arg.TaxPercent,
		arg.TaxBase,
		arg.BillDiscountType,
		arg.BillDiscountValue,
		arg.SubTotal,
		arg.TotalLineDiscount,
		arg.BillDiscountAmount,
		arg.ServiceCharge,
		arg.TaxableAmount,
		arg.TaxAmount,
		arg.DeliveryFee,
		arg.Tips,
		arg.LoyaltyDiscountAmount,
		arg.GrandTotal,
		arg.TotalPaid,
		arg.BalanceDue,
		arg.Version,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders WHERE id = $1 AND tenant_id = $2
`

type GetOrderParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.TenantID)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders WHERE id = $1 AND tenant_id = $2
FOR NO KEY UPDATE
`

type GetOrderForUpdateParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderForUpdateParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.TenantID)
	return scanOrder(row)
}

const updateOrder = `-- name: UpdateOrder :one
UPDATE orders SET
    status = $3,
    payment_status = $4,
    loyalty_account_id = $5,
    bill_discount_type = $6,
    bill_discount_value = $7,
    sub_total = $8,
    total_line_discount = $9,
    bill_discount_amount = $10,
    service_charge = $11,
    taxable_amount = $12,
    tax_amount = $13,
    delivery_fee = $14,
    tips = $15,
    loyalty_discount_amount = $16,
    loyalty_points_redeemed = $17,
    loyalty_points_earned = $18,
    grand_total = $19,
    total_paid = $20,
    balance_due = $21,
    voided_at = $22,
    void_reason = $23,
    void_by = $24,
    approved_void_by = $25,
    updated_at = $26,
    paid_at = $27,
    version = version + 1
WHERE id = $1 AND version = $2
RETURNING version
`

type UpdateOrderParams struct {
	ID                    uuid.UUID          `json:"id"`
	Version               int32              `json:"version"`
	Status                string             `json:"status"`
	PaymentStatus         string             `json:"payment_status"`
	LoyaltyAccountID      pgtype.UUID        `json:"loyalty_account_id"`
	BillDiscountType      pgtype.Text        `json:"bill_discount_type"`
	BillDiscountValue     pgtype.Numeric     `json:"bill_discount_value"`
	SubTotal              pgtype.Numeric     `json:"sub_total"`
	TotalLineDiscount     pgtype.Numeric     `json:"total_line_discount"`
	BillDiscountAmount    pgtype.Numeric     `json:"bill_discount_amount"`
	ServiceCharge         pgtype.Numeric     `json:"service_charge"`
	TaxableAmount         pgtype.Numeric     `json:"taxable_amount"`
	TaxAmount             pgtype.Numeric     `json:"tax_amount"`
	DeliveryFee           pgtype.Numeric     `json:"delivery_fee"`
	Tips                  pgtype.Numeric     `json:"tips"`
	LoyaltyDiscountAmount pgtype.Numeric     `json:"loyalty_discount_amount"`
	LoyaltyPointsRedeemed int64              `json:"loyalty_points_redeemed"`
	LoyaltyPointsEarned   int64              `json:"loyalty_points_earned"`
	GrandTotal            pgtype.Numeric     `json:"grand_total"`
	TotalPaid             pgtype.Numeric     `json:"total_paid"`
	BalanceDue            pgtype.Numeric     `json:"balance_due"`
	VoidedAt              pgtype.Timestamptz `json:"voided_at"`
	VoidReason            pgtype.Text        `json:"void_reason"`
	VoidBy                pgtype.UUID        `json:"void_by"`
	ApprovedVoidBy        pgtype.UUID        `json:"approved_void_by"`
	UpdatedAt             time.Time          `json:"updated_at"`
	PaidAt                pgtype.Timestamptz `json:"paid_at"`
}

// UpdateOrder returns pgx.ErrNoRows when the version no longer matches.
func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (int32, error) {
	row := q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.Version,
		arg.Status,
		arg.PaymentStatus,
		arg.LoyaltyAccountID,
		arg.BillDiscountType,
		arg.BillDiscountValue,
		arg.SubTotal,
		arg.TotalLineDiscount,
		arg.BillDiscountAmount,
		arg.ServiceCharge,
		arg.TaxableAmount,
		arg.TaxAmount,
		arg.DeliveryFee,
		arg.Tips,
		arg.LoyaltyDiscountAmount,
		arg.LoyaltyPointsRedeemed,
		arg.LoyaltyPointsEarned,
		arg.GrandTotal,
		arg.TotalPaid,
		arg.BalanceDue,
		arg.VoidedAt,
		arg.VoidReason,
		arg.VoidBy,
		arg.ApprovedVoidBy,
		arg.UpdatedAt,
		arg.PaidAt,
	)
	var version int32
	err := row.Scan(&version)
	return version, err
}

// ── Lines ──

const listOrderLines = `-- name: ListOrderLines :many
SELECT id, order_id, item_id, size_id, name, quantity, base_unit_price, modifiers_extra_price,
    effective_unit_price, discount_type, discount_value, discount_amount, line_gross, line_net, notes, status,
    sent_to_kitchen_at, started_at, ready_at, served_at, cancelled_at, created_at
FROM order_lines WHERE order_id = $1
ORDER BY seq
`

func (q *Queries) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLine
	for rows.Next() {
		var i OrderLine
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ItemID,
			&i.SizeID,
			&i.Name,
			&i.Quantity,
			&i.BaseUnitPrice,
			&i.ModifiersExtraPrice,
			&i.EffectiveUnitPrice,
			&i.DiscountType,
			&i.DiscountValue,
			&i.DiscountAmount,
			&i.LineGross,
			&i.LineNet,
			&i.Notes,
			&i.Status,
			&i.SentToKitchenAt,
			&i.StartedAt,
			&i.ReadyAt,
			&i.ServedAt,
			&i.CancelledAt,
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

const createOrderLine = `-- name: CreateOrderLine :exec
INSERT INTO order_lines (
    id, order_id, item_id, size_id, name, quantity, base_unit_price, modifiers_extra_price,
    effective_unit_price, discount_type, discount_value, discount_amount, line_gross, line_net, notes, status,
    sent_to_kitchen_at, started_at, ready_at, served_at, cancelled_at, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
)
`

// CreateOrderLineParams is also used by UpdateOrderLine; OrderID, ItemID,
// SizeID, Name and CreatedAt are ignored on update.
type CreateOrderLineParams struct {
	ID                  uuid.UUID          `json:"id"`
	OrderID             uuid.UUID          `json:"order_id"`
	ItemID              uuid.UUID          `json:"item_id"`
	SizeID              pgtype.UUID        `json:"size_id"`
	Name                string             `json:"name"`
	Quantity            int32              `json:"quantity"`
	BaseUnitPrice       pgtype.Numeric     `json:"base_unit_price"`
	ModifiersExtraPrice pgtype.Numeric     `json:"modifiers_extra_price"`
	EffectiveUnitPrice  pgtype.Numeric     `json:"effective_unit_price"`
	DiscountType        pgtype.Text        `json:"discount_type"`
	DiscountValue       pgtype.Numeric     `json:"discount_value"`
	DiscountAmount      pgtype.Numeric     `json:"discount_amount"`
	LineGross           pgtype.Numeric     `json:"line_gross"`
	LineNet             pgtype.Numeric     `json:"line_net"`
	Notes               pgtype.Text        `json:"notes"`
	Status              string             `json:"status"`
	SentToKitchenAt     pgtype.Timestamptz `json:"sent_to_kitchen_at"`
	StartedAt           pgtype.Timestamptz `json:"started_at"`
	ReadyAt             pgtype.Timestamptz `json:"ready_at"`
	ServedAt            pgtype.Timestamptz `json:"served_at"`
	CancelledAt         pgtype.Timestamptz `json:"cancelled_at"`
	CreatedAt           time.Time          `json:"created_at"`
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) error {
	_, err := q.db.Exec(ctx, createOrderLine,
		arg.ID,
		arg.OrderID,
		arg.ItemID,
		arg.SizeID,
		arg.Name,
		arg.Quantity,
		arg.BaseUnitPrice,
		arg.ModifiersExtraPrice,
		arg.EffectiveUnitPrice,
		arg.DiscountType,
		arg.DiscountValue,
		arg.DiscountAmount,
		arg.LineGross,
		arg.LineNet,
		arg.Notes,
		arg.Status,
		arg.SentToKitchenAt,
		arg.StartedAt,
		arg.ReadyAt,
		arg.ServedAt,
		arg.CancelledAt,
		arg.CreatedAt,
	)
	return err
}

const updateOrderLine = `-- name: UpdateOrderLine :exec
UPDATE order_lines SET
    quantity = $2,
    base_unit_price = $3,
    modifiers_extra_price = $4,
    effective_unit_price = $5,
    discount_type = $6,
    discount_value = $7,
    discount_amount = $8,
    line_gross = $9,
    line_net = $10,
    notes = $11,
    status = $12,
    sent_to_kitchen_at = $13,
    started_at = $14,
    ready_at = $15,
    served_at = $16,
    cancelled_at = $17
WHERE id = $1
`

func (q *Queries) UpdateOrderLine(ctx context.Context, arg CreateOrderLineParams) error {
	_, err := q.db.Exec(ctx, updateOrderLine,
		arg.ID,
		arg.Quantity,
		arg.BaseUnitPrice,
		arg.ModifiersExtraPrice,
		arg.EffectiveUnitPrice,
		arg.DiscountType,
		arg.DiscountValue,
		arg.DiscountAmount,
		arg.LineGross,
		arg.LineNet,
		arg.Notes,
		arg.Status,
		arg.SentToKitchenAt,
		arg.StartedAt,
		arg.ReadyAt,
		arg.ServedAt,
		arg.CancelledAt,
	)
	return err
}

const deleteOrderLine = `-- name: DeleteOrderLine :exec
DELETE FROM order_lines WHERE id = $1 AND status = 'NEW'
`

func (q *Queries) DeleteOrderLine(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderLine, id)
	return err
}

const listOrderLineModifiers = `-- name: ListOrderLineModifiers :many
SELECT m.id, m.order_line_id, m.modifier_id, m.name, m.quantity, m.unit_price
FROM order_line_modifiers m
JOIN order_lines l ON l.id = m.order_line_id
WHERE l.order_id = $1
ORDER BY m.order_line_id, m.id
`

func (q *Queries) ListOrderLineModifiers(ctx context.Context, orderID uuid.UUID) ([]OrderLineModifier, error) {
	rows, err := q.db.Query(ctx, listOrderLineModifiers, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLineModifier
	for rows.Next() {
		var i OrderLineModifier
		if err := rows.Scan(
			&i.ID,
			&i.OrderLineID,
			&i.ModifierID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
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

const createOrderLineModifier = `-- name: CreateOrderLineModifier :exec
INSERT INTO order_line_modifiers (id, order_line_id, modifier_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
`

type CreateOrderLineModifierParams struct {
	ID          uuid.UUID      `json:"id"`
	OrderLineID uuid.UUID      `json:"order_line_id"`
	ModifierID  uuid.UUID      `json:"modifier_id"`
	Name        string         `json:"name"`
	Quantity    int32          `json:"quantity"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
}

func (q *Queries) CreateOrderLineModifier(ctx context.Context, arg CreateOrderLineModifierParams) error {
	_, err := q.db.Exec(ctx, createOrderLineModifier,
		arg.ID,
		arg.OrderLineID,
		arg.ModifierID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
	)
	return err
}

// ── Payments ──

const listOrderPayments = `-- name: ListOrderPayments :many
SELECT id, order_id, kind, method, amount, currency, exchange_rate, amount_in_order_currency, amount_received,
    change_amount, reference, gift_card_id, loyalty_account_id, loyalty_points, reverses_payment_id, shift_id,
    processed_by, approved_by, created_at
FROM order_payments WHERE order_id = $1
ORDER BY seq
`

func (q *Queries) ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]OrderPayment, error) {
	rows, err := q.db.Query(ctx, listOrderPayments, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderPayment
	for rows.Next() {
		var i OrderPayment
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.Kind,
			&i.Method,
			&i.Amount,
			&i.Currency,
			&i.ExchangeRate,
			&i.AmountInOrderCurrency,
			&i.AmountReceived,
			&i.ChangeAmount,
			&i.Reference,
			&i.GiftCardID,
			&i.LoyaltyAccountID,
			&i.LoyaltyPoints,
			&i.ReversesPaymentID,
			&i.ShiftID,
			&i.ProcessedBy,
			&i.ApprovedBy,
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

const createOrderPayment = `-- name: CreateOrderPayment :exec
INSERT INTO order_payments (
    id, order_id, kind, method, amount, currency, exchange_rate, amount_in_order_currency, amount_received,
    change_amount, reference, gift_card_id, loyalty_account_id, loyalty_points, reverses_payment_id, shift_id,
    processed_by, approved_by, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
`

type CreateOrderPaymentParams struct {
	ID                    uuid.UUID      `json:"id"`
	OrderID               uuid.UUID      `json:"order_id"`
	Kind                  string         `json:"kind"`
	Method                string         `json:"method"`
	Amount                pgtype.Numeric `json:"amount"`
	Currency              string         `json:"currency"`
	ExchangeRate          pgtype.Numeric `json:"exchange_rate"`
	AmountInOrderCurrency pgtype.Numeric `json:"amount_in_order_currency"`
	AmountReceived        pgtype.Numeric `json:"amount_received"`
	ChangeAmount          pgtype.Numeric `json:"change_amount"`
	Reference             pgtype.Text    `json:"reference"`
	GiftCardID            pgtype.UUID    `json:"gift_card_id"`
	LoyaltyAccountID      pgtype.UUID    `json:"loyalty_account_id"`
	LoyaltyPoints         int64          `json:"loyalty_points"`
	ReversesPaymentID     pgtype.UUID    `json:"reverses_payment_id"`
	ShiftID               pgtype.UUID    `json:"shift_id"`
	ProcessedBy           uuid.UUID      `json:"processed_by"`
	ApprovedBy            pgtype.UUID    `json:"approved_by"`
	CreatedAt             time.Time      `json:"created_at"`
}

func (q *Queries) CreateOrderPayment(ctx context.Context, arg CreateOrderPaymentParams) error {
	_, err := q.db.Exec(ctx, createOrderPayment,
		arg.ID,
		arg.OrderID,
		arg.Kind,
		arg.Method,
		arg.Amount,
		arg.Currency,
		arg.ExchangeRate,
		arg.AmountInOrderCurrency,
		arg.AmountReceived,
		arg.ChangeAmount,
		arg.Reference,
		arg.GiftCardID,
		arg.LoyaltyAccountID,
		arg.LoyaltyPoints,
		arg.ReversesPaymentID,
		arg.ShiftID,
		arg.ProcessedBy,
		arg.ApprovedBy,
		arg.CreatedAt,
	)
	return err
}

// ── Status history ──

const listOrderStatusHistory = `-- name: ListOrderStatusHistory :many
SELECT id, order_id, from_status, to_status, actor_id, reason, created_at
FROM order_status_history WHERE order_id = $1
ORDER BY seq
`

func (q *Queries) ListOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]OrderStatusHistory, error) {
	rows, err := q.db.Query(ctx, listOrderStatusHistory, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderStatusHistory
	for rows.Next() {
		var i OrderStatusHistory
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.FromStatus,
			&i.ToStatus,
			&i.ActorID,
			&i.Reason,
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

const createOrderStatusHistory = `-- name: CreateOrderStatusHistory :exec
INSERT INTO order_status_history (id, order_id, from_status, to_status, actor_id, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateOrderStatusHistoryParams struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"order_id"`
	FromStatus pgtype.Text `json:"from_status"`
	ToStatus   string      `json:"to_status"`
	ActorID    uuid.UUID   `json:"actor_id"`
	Reason     pgtype.Text `json:"reason"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (q *Queries) CreateOrderStatusHistory(ctx context.Context, arg CreateOrderStatusHistoryParams) error {
	_, err := q.db.Exec(ctx, createOrderStatusHistory,
		arg.ID,
		arg.OrderID,
		arg.FromStatus,
		arg.ToStatus,
		arg.ActorID,
		arg.Reason,
		arg.CreatedAt,
	)
	return err
}
