package order

import (
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentInput is the input to ApplyPayment. Amount is in Currency, which
// defaults to the order currency. ExchangeRate converts Currency into the
// order currency and must be 1 when they are the same.
type PaymentInput struct {
	ID             uuid.UUID
	Method         enum.PaymentMethod
	Amount         decimal.Decimal
	Currency       string
	ExchangeRate   decimal.Decimal
	AmountReceived *decimal.Decimal
	Reference      string
	GiftCardID     *uuid.UUID
	LoyaltyAccount *uuid.UUID
	LoyaltyPoints  int64
	ShiftID        *uuid.UUID
	Actor          Actor
}

// ApplyPayment appends a payment and refreshes balance and payment status.
// A payment may not exceed the balance due; cash overpayment is expressed
// through AmountReceived and recorded as change. A served order that
// becomes fully settled moves to Paid.
func (o *Order) ApplyPayment(in PaymentInput, now time.Time) (Payment, error) {
	if err := o.ensureOpen(); err != nil {
		return Payment{}, err
	}
	if !in.Method.Valid() {
		return Payment{}, ErrInvalidPaymentMethod
	}
	if !in.Amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}
	cur := money.NormalizeCurrency(in.Currency)
	if cur == "" {
		cur = o.Currency
	}
	if len(cur) != 3 {
		return Payment{}, ErrInvalidCurrency
	}
	rate := in.ExchangeRate
	if cur == o.Currency {
		rate = decimal.NewFromInt(1)
	}
	if !rate.IsPositive() {
		return Payment{}, ErrInvalidRate
	}

	switch in.Method {
	case enum.PaymentMethodGiftCard:
		if in.GiftCardID == nil {
			return Payment{}, ErrGiftCardRequired
		}
	case enum.PaymentMethodLoyaltyPoints:
		if in.LoyaltyAccount == nil || in.LoyaltyPoints <= 0 {
			return Payment{}, ErrLoyaltyRequired
		}
	}

	var change *decimal.Decimal
	if in.AmountReceived != nil {
		if in.Method != enum.PaymentMethodCash || in.AmountReceived.LessThan(in.Amount) {
			return Payment{}, ErrAmountReceived
		}
		c := in.AmountReceived.Sub(in.Amount)
		change = &c
	}

	if !o.BalanceDue.IsPositive() {
		return Payment{}, ErrNothingDue
	}
	applied := money.Round(in.Amount.Mul(rate), o.CurrencyDecimals)
	if applied.GreaterThan(o.BalanceDue) {
		return Payment{}, ErrPaymentExceedsBalance
	}

	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	p := Payment{
		ID:                    id,
		OrderID:               o.ID,
		Kind:                  enum.PaymentKindPayment,
		Method:                in.Method,
		Amount:                in.Amount,
		Currency:              cur,
		ExchangeRate:          rate,
		AmountInOrderCurrency: applied,
		AmountReceived:        in.AmountReceived,
		ChangeAmount:          change,
		Reference:             in.Reference,
		GiftCardID:            in.GiftCardID,
		LoyaltyAccountID:      in.LoyaltyAccount,
		LoyaltyPoints:         in.LoyaltyPoints,
		ShiftID:               in.ShiftID,
		ProcessedBy:           in.Actor.UserID,
		CreatedAt:             now,
	}
	o.Payments = append(o.Payments, p)
	o.changes.payments = append(o.changes.payments, p)
	o.settle()
	o.UpdatedAt = now
	o.autoPay(in.Actor, now)
	return p, nil
}

// Reverse appends a reversing entry for part or all of a payment. Amount is
// in the payment's own currency. Paid orders are reversed by voiding.
func (o *Order) Reverse(paymentID uuid.UUID, amount decimal.Decimal, reason string, actor Actor, approvedBy *uuid.UUID, shiftID *uuid.UUID, now time.Time) (Payment, error) {
	switch o.Status {
	case enum.OrderStatusVoided:
		return Payment{}, ErrOrderClosed
	case enum.OrderStatusPaid:
		return Payment{}, ErrRefundPaidOrder
	}
	if reason == "" {
		return Payment{}, ErrReasonRequired
	}
	if !amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}
	orig, err := o.Payment(paymentID)
	if err != nil {
		return Payment{}, err
	}
	if orig.Kind != enum.PaymentKindPayment {
		return Payment{}, ErrNotReversible
	}
	if amount.GreaterThan(o.remaining(orig)) {
		return Payment{}, ErrReversalExceeds
	}

	rev := o.reversal(orig, amount, actor, approvedBy, reason, shiftID, now)
	o.Payments = append(o.Payments, rev)
	o.changes.payments = append(o.changes.payments, rev)
	o.settle()
	o.UpdatedAt = now
	return rev, nil
}

// Payment returns the payment with the given id.
func (o *Order) Payment(id uuid.UUID) (Payment, error) {
	for _, p := range o.Payments {
		if p.ID == id {
			return p, nil
		}
	}
	return Payment{}, ErrPaymentNotFound
}

// RecordLoyaltyEarn stores the points credited for a paid order.
func (o *Order) RecordLoyaltyEarn(points int64, now time.Time) error {
	if o.Status != enum.OrderStatusPaid {
		return ErrNotPaid
	}
	if points < 0 {
		return ErrInvalidPoints
	}
	o.LoyaltyPointsEarned = points
	o.UpdatedAt = now
	return nil
}

// GrandTotalInBase converts the grand total into the tenant base currency
// using the rate snapshotted at creation.
func (o *Order) GrandTotalInBase() decimal.Decimal {
	return o.Totals.GrandTotal.Mul(o.ExchangeRateToBase)
}

// remaining is the part of p, in its own currency, not yet reversed.
func (o *Order) remaining(p Payment) decimal.Decimal {
	left := p.Amount
	for _, r := range o.Payments {
		if r.ReversesPaymentID != nil && *r.ReversesPaymentID == p.ID {
			left = left.Add(r.Amount)
		}
	}
	return left
}

// reversal builds a negative entry for amount of orig. A reversal of the
// whole remainder takes the remaining order-currency amount and points
// exactly so repeated partial refunds never drift.
func (o *Order) reversal(orig Payment, amount decimal.Decimal, actor Actor, approvedBy *uuid.UUID, reason string, shiftID *uuid.UUID, now time.Time) Payment {
	leftAmount := orig.Amount
	leftInOrder := orig.AmountInOrderCurrency
	leftPoints := orig.LoyaltyPoints
	for _, r := range o.Payments {
		if r.ReversesPaymentID != nil && *r.ReversesPaymentID == orig.ID {
			leftAmount = leftAmount.Add(r.Amount)
			leftInOrder = leftInOrder.Add(r.AmountInOrderCurrency)
			leftPoints += r.LoyaltyPoints
		}
	}

	inOrder := leftInOrder
	points := leftPoints
	if amount.LessThan(leftAmount) {
		inOrder = money.Round(amount.Mul(orig.ExchangeRate), o.CurrencyDecimals)
		if orig.LoyaltyPoints > 0 {
			points = decimal.NewFromInt(orig.LoyaltyPoints).Mul(amount).Div(orig.Amount).IntPart()
		}
	}

	origID := orig.ID
	return Payment{
		ID:                    uuid.New(),
		OrderID:               o.ID,
		Kind:                  enum.PaymentKindReversal,
		Method:                orig.Method,
		Amount:                amount.Neg(),
		Currency:              orig.Currency,
		ExchangeRate:          orig.ExchangeRate,
		AmountInOrderCurrency: inOrder.Neg(),
		Reference:             reason,
		GiftCardID:            orig.GiftCardID,
		LoyaltyAccountID:      orig.LoyaltyAccountID,
		LoyaltyPoints:         -points,
		ReversesPaymentID:     &origID,
		ShiftID:               shiftID,
		ProcessedBy:           actor.UserID,
		ApprovedBy:            approvedBy,
		CreatedAt:             now,
	}
}
