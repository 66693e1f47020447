// Package order implements the order aggregate: an order together with its
// lines, modifiers, payments and status history, mutated only through the
// methods in this package. Every mutation that affects money reprices the
// order before returning, so the in-memory aggregate is always consistent
// and can be persisted as-is.
//
// The aggregate never reads the clock; callers pass the time of the
// operation explicitly.
package order

import (
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the verified identity performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enum.Role
}

// Modifier is a price snapshot of a catalog modifier taken when the line
// was added. It is never re-read from the catalog.
type Modifier struct {
	ID         uuid.UUID
	ModifierID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  decimal.Decimal
}

// Extra returns UnitPrice × Quantity.
func (m Modifier) Extra() decimal.Decimal {
	return m.UnitPrice.Mul(decimal.NewFromInt32(m.Quantity))
}

// Line is an order line. Computed amounts are refreshed on every reprice.
type Line struct {
	ID                  uuid.UUID
	ItemID              uuid.UUID
	SizeID              *uuid.UUID
	Name                string
	Quantity            int32
	BaseUnitPrice       decimal.Decimal
	ModifiersExtraPrice decimal.Decimal
	EffectiveUnitPrice  decimal.Decimal
	Discount            pricing.Discount
	DiscountAmount      decimal.Decimal
	LineGross           decimal.Decimal
	LineNet             decimal.Decimal
	Notes               string
	Status              enum.LineStatus
	Modifiers           []Modifier
	SentToKitchenAt     *time.Time
	StartedAt           *time.Time
	ReadyAt             *time.Time
	ServedAt            *time.Time
	CancelledAt         *time.Time
	CreatedAt           time.Time
}

func (l *Line) clone() *Line {
	c := *l
	c.Modifiers = append([]Modifier(nil), l.Modifiers...)
	return &c
}

// Payment is an immutable settlement entry. Reversals carry negative
// amounts and point at the payment they reverse.
type Payment struct {
	ID                    uuid.UUID
	OrderID               uuid.UUID
	Kind                  enum.PaymentKind
	Method                enum.PaymentMethod
	Amount                decimal.Decimal // in Currency
	Currency              string
	ExchangeRate          decimal.Decimal // Currency → order currency
	AmountInOrderCurrency decimal.Decimal
	AmountReceived        *decimal.Decimal
	ChangeAmount          *decimal.Decimal
	Reference             string
	GiftCardID            *uuid.UUID
	LoyaltyAccountID      *uuid.UUID
	LoyaltyPoints         int64
	ReversesPaymentID     *uuid.UUID
	ShiftID               *uuid.UUID
	ProcessedBy           uuid.UUID
	ApprovedBy            *uuid.UUID
	CreatedAt             time.Time
}

// StatusChange is one immutable status-history record.
type StatusChange struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	From    enum.OrderStatus
	To      enum.OrderStatus
	ActorID uuid.UUID
	Reason  string
	At      time.Time
}

// Void holds void metadata.
type Void struct {
	At         time.Time
	Reason     string
	By         uuid.UUID
	ApprovedBy *uuid.UUID
}

// Order is the aggregate root.
type Order struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	BranchID           uuid.UUID
	ShiftID            *uuid.UUID
	Number             string
	Type               enum.OrderType
	Currency           string
	CurrencyDecimals   int32
	ExchangeRateToBase decimal.Decimal
	TableNumber        string
	DeliveryAddress    string
	Notes              string
	LoyaltyAccountID   *uuid.UUID
	Status             enum.OrderStatus
	PaymentStatus      enum.PaymentStatus
	Policy             pricing.Policy

	BillDiscount          pricing.Discount
	DeliveryFee           decimal.Decimal
	Tips                  decimal.Decimal
	LoyaltyDiscountAmount decimal.Decimal
	LoyaltyPointsRedeemed int64
	LoyaltyPointsEarned   int64

	Totals     pricing.Totals
	TotalPaid  decimal.Decimal
	BalanceDue decimal.Decimal

	VoidInfo  *Void
	Version   int32
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time

	Lines    []*Line
	Payments []Payment
	History  []StatusChange

	// Warnings from the last reprice. Not persisted.
	Warnings []pricing.Warning

	changes changeSet
}

// NewParams is the input to New.
type NewParams struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	BranchID           uuid.UUID
	ShiftID            *uuid.UUID
	Number             string
	Type               enum.OrderType
	Currency           string
	CurrencyDecimals   int32
	ExchangeRateToBase decimal.Decimal
	TableNumber        string
	DeliveryAddress    string
	Notes              string
	LoyaltyAccountID   *uuid.UUID
	DeliveryFee        decimal.Decimal
	Policy             pricing.Policy
	CreatedBy          Actor
}

// New creates a Draft order with zero totals and records the initial
// history entry.
func New(p NewParams, now time.Time) (*Order, error) {
	if !p.Type.Valid() {
		return nil, ErrInvalidOrderType
	}
	cur := money.NormalizeCurrency(p.Currency)
	if len(cur) != 3 {
		return nil, ErrInvalidCurrency
	}
	if !p.ExchangeRateToBase.IsPositive() {
		return nil, ErrInvalidRate
	}
	if p.Type == enum.OrderTypeDelivery && p.DeliveryAddress == "" {
		return nil, ErrDeliveryAddress
	}
	if p.DeliveryFee.IsNegative() {
		return nil, pricing.ErrNegativeFee
	}
	if p.Type != enum.OrderTypeDelivery {
		p.DeliveryFee = decimal.Zero
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	decimals := p.CurrencyDecimals
	if decimals < 0 {
		decimals = money.DefaultDecimals
	}

	o := &Order{
		ID:                 p.ID,
		TenantID:           p.TenantID,
		BranchID:           p.BranchID,
		ShiftID:            p.ShiftID,
		Number:             p.Number,
		Type:               p.Type,
		Currency:           cur,
		CurrencyDecimals:   decimals,
		ExchangeRateToBase: p.ExchangeRateToBase,
		TableNumber:        p.TableNumber,
		DeliveryAddress:    p.DeliveryAddress,
		Notes:              p.Notes,
		LoyaltyAccountID:   p.LoyaltyAccountID,
		Status:             enum.OrderStatusDraft,
		PaymentStatus:      enum.PaymentStatusUnpaid,
		Policy:             p.Policy,
		DeliveryFee:        p.DeliveryFee,
		CreatedBy:          p.CreatedBy.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := o.reprice(o.Lines, o.BillDiscount, o.DeliveryFee, o.Tips, o.LoyaltyDiscountAmount); err != nil {
		return nil, err
	}
	o.record("", enum.OrderStatusDraft, p.CreatedBy, "", now)
	return o, nil
}

// Line returns the line with the given id.
func (o *Order) Line(id uuid.UUID) (*Line, error) {
	for _, l := range o.Lines {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, ErrLineNotFound
}

// Payable is the grand total rounded to the order currency precision.
// This is the amount settlement works against.
func (o *Order) Payable() decimal.Decimal {
	return money.Round(o.Totals.GrandTotal, o.CurrencyDecimals)
}

// ensureOpen rejects mutations on terminal orders.
func (o *Order) ensureOpen() error {
	if o.Status.Terminal() {
		return ErrOrderClosed
	}
	return nil
}

// reprice computes totals for a candidate state and, on success, applies
// them to the order. Nothing changes when pricing rejects the input.
func (o *Order) reprice(lines []*Line, bill pricing.Discount, deliveryFee, tips, loyalty decimal.Decimal) (pricing.Result, error) {
	in := pricing.Input{
		Lines:           make([]pricing.Line, len(lines)),
		BillDiscount:    bill,
		DeliveryFee:     deliveryFee,
		Tips:            tips,
		LoyaltyDiscount: loyalty,
		Policy:          o.Policy,
	}
	for i, l := range lines {
		in.Lines[i] = pricing.Line{
			BaseUnitPrice:  l.BaseUnitPrice,
			ModifiersExtra: modifiersExtra(l.Modifiers),
			Quantity:       l.Quantity,
			Discount:       l.Discount,
			Cancelled:      l.Status == enum.LineStatusCancelled,
		}
	}
	res, err := pricing.Compute(in)
	if err != nil {
		return pricing.Result{}, err
	}

	for i, l := range lines {
		lr := res.Lines[i]
		l.ModifiersExtraPrice = in.Lines[i].ModifiersExtra
		l.EffectiveUnitPrice = lr.EffectiveUnitPrice
		l.LineGross = lr.Gross
		l.DiscountAmount = lr.DiscountAmount
		l.LineNet = lr.Net
	}
	o.Lines = lines
	o.BillDiscount = bill
	o.DeliveryFee = deliveryFee
	o.Tips = tips
	o.Totals = res.Totals
	o.LoyaltyDiscountAmount = res.Totals.LoyaltyDiscount
	o.Warnings = res.Warnings
	o.settle()
	return res, nil
}

// settle refreshes balance due and payment status from the payments.
func (o *Order) settle() {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.AmountInOrderCurrency)
	}
	o.TotalPaid = paid
	payable := o.Payable()
	o.BalanceDue = payable.Sub(paid)
	o.PaymentStatus = PaymentStatusFor(paid, payable)
}

// PaymentStatusFor derives the payment status from what was paid against
// what is payable. Nothing paid is Unpaid even when nothing is payable.
func PaymentStatusFor(paid, payable decimal.Decimal) enum.PaymentStatus {
	switch {
	case paid.GreaterThan(payable):
		return enum.PaymentStatusOverpaid
	case !paid.IsPositive():
		return enum.PaymentStatusUnpaid
	case paid.Equal(payable):
		return enum.PaymentStatusPaid
	default:
		return enum.PaymentStatusPartiallyPaid
	}
}

func modifiersExtra(mods []Modifier) decimal.Decimal {
	total := decimal.Zero
	for _, m := range mods {
		total = total.Add(m.Extra())
	}
	return total
}

// record appends a status-history entry and marks it pending.
func (o *Order) record(from, to enum.OrderStatus, actor Actor, reason string, now time.Time) {
	sc := StatusChange{
		ID:      uuid.New(),
		OrderID: o.ID,
		From:    from,
		To:      to,
		ActorID: actor.UserID,
		Reason:  reason,
		At:      now,
	}
	o.History = append(o.History, sc)
	o.changes.history = append(o.changes.history, sc)
	o.UpdatedAt = now
}
