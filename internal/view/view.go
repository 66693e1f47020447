// Package view renders the order and shift aggregates as the JSON shapes
// shared by the HTTP API and the event sinks. Money is rendered as fixed
// point strings in the currency's precision; rates keep full precision.
package view

import (
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/dinerhq/pos-api/internal/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              uuid.UUID          `json:"tenant_id"`
	BranchID              uuid.UUID          `json:"branch_id"`
	ShiftID               *uuid.UUID         `json:"shift_id"`
	OrderNumber           string             `json:"order_number"`
	OrderType             enum.OrderType     `json:"order_type"`
	Status                enum.OrderStatus   `json:"status"`
	PaymentStatus         enum.PaymentStatus `json:"payment_status"`
	Currency              string             `json:"currency"`
	ExchangeRateToBase    string             `json:"exchange_rate_to_base"`
	TableNumber           *string            `json:"table_number"`
	DeliveryAddress       *string            `json:"delivery_address"`
	Notes                 *string            `json:"notes"`
	LoyaltyAccountID      *uuid.UUID         `json:"loyalty_account_id"`
	BillDiscount          *Discount          `json:"bill_discount"`
	SubTotal              string             `json:"sub_total"`
	TotalLineDiscount     string             `json:"total_line_discount"`
	BillDiscountAmount    string             `json:"bill_discount_amount"`
	ServiceCharge         string             `json:"service_charge"`
	TaxableAmount         string             `json:"taxable_amount"`
	Tax                   string             `json:"tax"`
	DeliveryFee           string             `json:"delivery_fee"`
	Tips                  string             `json:"tips"`
	LoyaltyDiscount       string             `json:"loyalty_discount"`
	LoyaltyPointsRedeemed int64              `json:"loyalty_points_redeemed"`
	LoyaltyPointsEarned   int64              `json:"loyalty_points_earned"`
	GrandTotal            string             `json:"grand_total"`
	TotalPaid             string             `json:"total_paid"`
	BalanceDue            string             `json:"balance_due"`
	Void                  *Void              `json:"void,omitempty"`
	Version               int32              `json:"version"`
	CreatedBy             uuid.UUID          `json:"created_by"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	PaidAt                *time.Time         `json:"paid_at"`
	Lines                 []Line             `json:"lines"`
	Payments              []Payment          `json:"payments"`
	History               []StatusChange     `json:"history"`
	Warnings              []Warning          `json:"warnings,omitempty"`
}

type Discount struct {
	Type  enum.DiscountType `json:"type"`
	Value string            `json:"value"`
}

type Void struct {
	At         time.Time  `json:"at"`
	Reason     string     `json:"reason"`
	By         uuid.UUID  `json:"by"`
	ApprovedBy *uuid.UUID `json:"approved_by"`
}

type Line struct {
	ID                  uuid.UUID       `json:"id"`
	ItemID              uuid.UUID       `json:"item_id"`
	SizeID              *uuid.UUID      `json:"size_id"`
	Name                string          `json:"name"`
	Quantity            int32           `json:"quantity"`
	BaseUnitPrice       string          `json:"base_unit_price"`
	ModifiersExtraPrice string          `json:"modifiers_extra_price"`
	EffectiveUnitPrice  string          `json:"effective_unit_price"`
	Discount            *Discount       `json:"discount"`
	DiscountAmount      string          `json:"discount_amount"`
	LineGross           string          `json:"line_gross"`
	LineNet             string          `json:"line_net"`
	Notes               *string         `json:"notes"`
	Status              enum.LineStatus `json:"status"`
	SentToKitchenAt     *time.Time      `json:"sent_to_kitchen_at"`
	StartedAt           *time.Time      `json:"started_at"`
	ReadyAt             *time.Time      `json:"ready_at"`
	ServedAt            *time.Time      `json:"served_at"`
	CancelledAt         *time.Time      `json:"cancelled_at"`
	Modifiers           []Modifier      `json:"modifiers"`
}

type Modifier struct {
	ID         uuid.UUID `json:"id"`
	ModifierID uuid.UUID `json:"modifier_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
}

type Payment struct {
	ID                    uuid.UUID          `json:"id"`
	Kind                  enum.PaymentKind   `json:"kind"`
	Method                enum.PaymentMethod `json:"method"`
	Amount                string             `json:"amount"`
	Currency              string             `json:"currency"`
	ExchangeRate          string             `json:"exchange_rate"`
	AmountInOrderCurrency string             `json:"amount_in_order_currency"`
	AmountReceived        *string            `json:"amount_received"`
	ChangeAmount          *string            `json:"change_amount"`
	Reference             *string            `json:"reference"`
	GiftCardID            *uuid.UUID         `json:"gift_card_id"`
	LoyaltyAccountID      *uuid.UUID         `json:"loyalty_account_id"`
	LoyaltyPoints         int64              `json:"loyalty_points"`
	ReversesPaymentID     *uuid.UUID         `json:"reverses_payment_id"`
	ShiftID               *uuid.UUID         `json:"shift_id"`
	ProcessedBy           uuid.UUID          `json:"processed_by"`
	ApprovedBy            *uuid.UUID         `json:"approved_by"`
	CreatedAt             time.Time          `json:"created_at"`
}

type StatusChange struct {
	From    *enum.OrderStatus `json:"from"`
	To      enum.OrderStatus  `json:"to"`
	ActorID uuid.UUID         `json:"actor_id"`
	Reason  *string           `json:"reason"`
	At      time.Time         `json:"at"`
}

type Warning struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// FromOrder renders o.
func FromOrder(o *order.Order) Order {
	places := o.CurrencyDecimals
	amt := func(d decimal.Decimal) string { return d.StringFixed(places) }

	v := Order{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		BranchID:              o.BranchID,
		ShiftID:               o.ShiftID,
		OrderNumber:           o.Number,
		OrderType:             o.Type,
		Status:                o.Status,
		PaymentStatus:         o.PaymentStatus,
		Currency:              o.Currency,
		ExchangeRateToBase:    o.ExchangeRateToBase.String(),
		TableNumber:           optString(o.TableNumber),
		DeliveryAddress:       optString(o.DeliveryAddress),
		Notes:                 optString(o.Notes),
		LoyaltyAccountID:      o.LoyaltyAccountID,
		BillDiscount:          discount(o.BillDiscount),
		SubTotal:              amt(o.Totals.SubTotal),
		TotalLineDiscount:     amt(o.Totals.LineDiscount),
		BillDiscountAmount:    amt(o.Totals.BillDiscount),
		ServiceCharge:         amt(o.Totals.ServiceCharge),
		TaxableAmount:         amt(o.Totals.TaxableAmount),
		Tax:                   amt(o.Totals.Tax),
		DeliveryFee:           amt(o.Totals.DeliveryFee),
		Tips:                  amt(o.Totals.Tips),
		LoyaltyDiscount:       amt(o.Totals.LoyaltyDiscount),
		LoyaltyPointsRedeemed: o.LoyaltyPointsRedeemed,
		LoyaltyPointsEarned:   o.LoyaltyPointsEarned,
		GrandTotal:            amt(o.Payable()),
		TotalPaid:             amt(o.TotalPaid),
		BalanceDue:            amt(o.BalanceDue),
		Version:               o.Version,
		CreatedBy:             o.CreatedBy,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		PaidAt:                o.PaidAt,
		Lines:                 make([]Line, len(o.Lines)),
		Payments:              make([]Payment, len(o.Payments)),
		History:               make([]StatusChange, len(o.History)),
	}
	if o.VoidInfo != nil {
		v.Void = &Void{At: o.VoidInfo.At, Reason: o.VoidInfo.Reason, By: o.VoidInfo.By, ApprovedBy: o.VoidInfo.ApprovedBy}
	}
	for i, l := range o.Lines {
		v.Lines[i] = fromLine(l, amt)
	}
	for i, p := range o.Payments {
		v.Payments[i] = FromPayment(p)
	}
	for i, h := range o.History {
		sc := StatusChange{To: h.To, ActorID: h.ActorID, Reason: optString(h.Reason), At: h.At}
		if h.From != "" {
			from := h.From
			sc.From = &from
		}
		v.History[i] = sc
	}
	for _, w := range o.Warnings {
		v.Warnings = append(v.Warnings, Warning{Code: w.Code, Line: w.Line, Message: w.Message})
	}
	return v
}

func fromLine(l *order.Line, amt func(decimal.Decimal) string) Line {
	v := Line{
		ID:                  l.ID,
		ItemID:              l.ItemID,
		SizeID:              l.SizeID,
		Name:                l.Name,
		Quantity:            l.Quantity,
		BaseUnitPrice:       l.BaseUnitPrice.String(),
		ModifiersExtraPrice: l.ModifiersExtraPrice.String(),
		EffectiveUnitPrice:  l.EffectiveUnitPrice.String(),
		Discount:            discount(l.Discount),
		DiscountAmount:      amt(l.DiscountAmount),
		LineGross:           amt(l.LineGross),
		LineNet:             amt(l.LineNet),
		Notes:               optString(l.Notes),
		Status:              l.Status,
		SentToKitchenAt:     l.SentToKitchenAt,
		StartedAt:           l.StartedAt,
		ReadyAt:             l.ReadyAt,
		ServedAt:            l.ServedAt,
		CancelledAt:         l.CancelledAt,
		Modifiers:           make([]Modifier, len(l.Modifiers)),
	}
	for i, m := range l.Modifiers {
		v.Modifiers[i] = Modifier{
			ID:         m.ID,
			ModifierID: m.ModifierID,
			Name:       m.Name,
			Quantity:   m.Quantity,
			UnitPrice:  m.UnitPrice.String(),
		}
	}
	return v
}

// FromPayment renders a single payment or reversal.
func FromPayment(p order.Payment) Payment {
	return Payment{
		ID:                    p.ID,
		Kind:                  p.Kind,
		Method:                p.Method,
		Amount:                p.Amount.String(),
		Currency:              p.Currency,
		ExchangeRate:          p.ExchangeRate.String(),
		AmountInOrderCurrency: p.AmountInOrderCurrency.String(),
		AmountReceived:        optDecimal(p.AmountReceived),
		ChangeAmount:          optDecimal(p.ChangeAmount),
		Reference:             optString(p.Reference),
		GiftCardID:            p.GiftCardID,
		LoyaltyAccountID:      p.LoyaltyAccountID,
		LoyaltyPoints:         p.LoyaltyPoints,
		ReversesPaymentID:     p.ReversesPaymentID,
		ShiftID:               p.ShiftID,
		ProcessedBy:           p.ProcessedBy,
		ApprovedBy:            p.ApprovedBy,
		CreatedAt:             p.CreatedAt,
	}
}

type Shift struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	BranchID       uuid.UUID         `json:"branch_id"`
	CashierID      uuid.UUID         `json:"cashier_id"`
	Currency       string            `json:"currency"`
	Status         enum.ShiftStatus  `json:"status"`
	OpeningCash    string            `json:"opening_cash"`
	ExpectedCash   *string           `json:"expected_cash"`
	CountedCash    *string           `json:"counted_cash"`
	CashDifference *string           `json:"cash_difference"`
	ForeignCash    map[string]string `json:"foreign_cash,omitempty"`
	OpenedAt       time.Time         `json:"opened_at"`
	ClosedAt       *time.Time        `json:"closed_at"`
	ClosedBy       *uuid.UUID        `json:"closed_by"`
	CloseReason    *string           `json:"close_reason"`
}

// FromShift renders s.
func FromShift(s *shift.Shift) Shift {
	v := Shift{
		ID:             s.ID,
		TenantID:       s.TenantID,
		BranchID:       s.BranchID,
		CashierID:      s.CashierID,
		Currency:       s.Currency,
		Status:         s.Status,
		OpeningCash:    s.OpeningCash.String(),
		ExpectedCash:   optDecimal(s.ExpectedCash),
		CountedCash:    optDecimal(s.CountedCash),
		CashDifference: optDecimal(s.CashDifference),
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
		ClosedBy:       s.ClosedBy,
		CloseReason:    optString(s.CloseReason),
	}
	if len(s.ForeignCash) > 0 {
		v.ForeignCash = make(map[string]string, len(s.ForeignCash))
		for cur, amt := range s.ForeignCash {
			v.ForeignCash[cur] = amt.String()
		}
	}
	return v
}

// KitchenTicket is what a kitchen display or printer needs to prepare the
// lines just sent.
type KitchenTicket struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	BranchID    uuid.UUID      `json:"branch_id"`
	OrderType   enum.OrderType `json:"order_type"`
	TableNumber *string        `json:"table_number"`
	SentAt      time.Time      `json:"sent_at"`
	Lines       []TicketLine   `json:"lines"`
}

type TicketLine struct {
	LineID    uuid.UUID `json:"line_id"`
	Name      string    `json:"name"`
	Quantity  int32     `json:"quantity"`
	Modifiers []string  `json:"modifiers"`
	Notes     *string   `json:"notes"`
}

// Ticket builds the kitchen ticket for the given lines of o.
func Ticket(o *order.Order, lineIDs []uuid.UUID, sentAt time.Time) KitchenTicket {
	t := KitchenTicket{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		BranchID:    o.BranchID,
		OrderType:   o.Type,
		TableNumber: optString(o.TableNumber),
		SentAt:      sentAt,
		Lines:       make([]TicketLine, 0, len(lineIDs)),
	}
	for _, id := range lineIDs {
		l, err := o.Line(id)
		if err != nil {
			continue
		}
		tl := TicketLine{LineID: l.ID, Name: l.Name, Quantity: l.Quantity, Notes: optString(l.Notes)}
		for _, m := range l.Modifiers {
			tl.Modifiers = append(tl.Modifiers, m.Name)
		}
		t.Lines = append(t.Lines, tl)
	}
	return t
}

func discount(d pricing.Discount) *Discount {
	if d.IsZero() {
		return nil
	}
	return &Discount{Type: d.Type, Value: d.Value.String()}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
