package order

import (
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewLine is the input to AddLine. Prices are catalog snapshots resolved by
// the caller.
type NewLine struct {
	ItemID        uuid.UUID
	SizeID        *uuid.UUID
	Name          string
	Quantity      int32
	BaseUnitPrice decimal.Decimal
	Modifiers     []Modifier
	Notes         string
	Discount      pricing.Discount
}

// LineUpdate changes an unsent line. Nil fields are left alone.
type LineUpdate struct {
	Quantity      *int32
	BaseUnitPrice *decimal.Decimal
	Notes         *string
}

// AddLine appends a New line and reprices the order.
func (o *Order) AddLine(nl NewLine, now time.Time) (*Line, error) {
	if err := o.ensureOpen(); err != nil {
		return nil, err
	}
	mods := make([]Modifier, len(nl.Modifiers))
	for i, m := range nl.Modifiers {
		if m.Quantity <= 0 {
			return nil, pricing.ErrInvalidQuantity
		}
		if m.UnitPrice.IsNegative() {
			return nil, pricing.ErrNegativePrice
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		mods[i] = m
	}

	l := &Line{
		ID:            uuid.New(),
		ItemID:        nl.ItemID,
		SizeID:        nl.SizeID,
		Name:          nl.Name,
		Quantity:      nl.Quantity,
		BaseUnitPrice: nl.BaseUnitPrice,
		Discount:      nl.Discount,
		Notes:         nl.Notes,
		Status:        enum.LineStatusNew,
		Modifiers:     mods,
		CreatedAt:     now,
	}
	lines := append(append(make([]*Line, 0, len(o.Lines)+1), o.Lines...), l)
	if _, err := o.reprice(lines, o.BillDiscount, o.DeliveryFee, o.Tips, o.LoyaltyDiscountAmount); err != nil {
		return nil, err
	}
	o.markNew(l.ID)
	o.UpdatedAt = now
	return l, nil
}

// UpdateLine changes quantity, base price or notes of a line that has not
// been sent to the kitchen.
func (o *Order) UpdateLine(id uuid.UUID, u LineUpdate, now time.Time) (*Line, error) {
	if err := o.ensureOpen(); err != nil {
		return nil, err
	}
	idx, cur, err := o.lineIndex(id)
	if err != nil {
		return nil, err
	}
	if cur.Status != enum.LineStatusNew {
		return nil, ErrLineLocked
	}

	next := cur.clone()
	if u.Quantity != nil {
		next.Quantity = *u.Quantity
	}
	if u.BaseUnitPrice != nil {
		next.BaseUnitPrice = *u.BaseUnitPrice
	}
	if u.Notes != nil {
		next.Notes = *u.Notes
	}
	if err := o.replaceLine(idx, next); err != nil {
		return nil, err
	}
	o.UpdatedAt = now
	return next, nil
}

// RemoveLine deletes a New line outright. A line already in the kitchen is
// cancelled instead so the kitchen display can show it; cancelled lines no
// longer count towards totals. It reports whether the line was cancelled.
func (o *Order) RemoveLine(id uuid.UUID, actor Actor, now time.Time) (bool, error) {
	if err := o.ensureOpen(); err != nil {
		return false, err
	}
	idx, cur, err := o.lineIndex(id)
	if err != nil {
		return false, err
	}

	if cur.Status == enum.LineStatusNew {
		lines := make([]*Line, 0, len(o.Lines)-1)
		lines = append(lines, o.Lines[:idx]...)
		lines = append(lines, o.Lines[idx+1:]...)
		if _, err := o.reprice(lines, o.BillDiscount, o.DeliveryFee, o.Tips, o.LoyaltyDiscountAmount); err != nil {
			return false, err
		}
		o.markRemoved(id)
		o.UpdatedAt = now
		return false, nil
	}

	if !cur.Status.CanTransitionTo(enum.LineStatusCancelled) {
		if cur.Status == enum.LineStatusServed {
			return false, ErrLineServed
		}
		return false, illegalTransition(cur.Status, enum.LineStatusCancelled)
	}
	next := cur.clone()
	next.Status = enum.LineStatusCancelled
	t := now
	next.CancelledAt = &t
	if err := o.replaceLine(idx, next); err != nil {
		return false, err
	}
	o.UpdatedAt = now
	o.syncKitchen(actor, now)
	return true, nil
}

// SetLineDiscount sets or clears (zero Discount) a line discount.
func (o *Order) SetLineDiscount(id uuid.UUID, d pricing.Discount, now time.Time) (*Line, error) {
	if err := o.ensureOpen(); err != nil {
		return nil, err
	}
	idx, cur, err := o.lineIndex(id)
	if err != nil {
		return nil, err
	}
	if cur.Status == enum.LineStatusCancelled {
		return nil, ErrLineCancelled
	}
	next := cur.clone()
	next.Discount = d
	if err := o.replaceLine(idx, next); err != nil {
		return nil, err
	}
	o.UpdatedAt = now
	return next, nil
}

// SetBillDiscount sets or clears (zero Discount) the order-level discount.
func (o *Order) SetBillDiscount(d pricing.Discount, now time.Time) error {
	if err := o.ensureOpen(); err != nil {
		return err
	}
	if _, err := o.reprice(o.Lines, d, o.DeliveryFee, o.Tips, o.LoyaltyDiscountAmount); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

// SetFees replaces the delivery fee and tips. Delivery fees only apply to
// delivery orders.
func (o *Order) SetFees(deliveryFee, tips decimal.Decimal, now time.Time) error {
	if err := o.ensureOpen(); err != nil {
		return err
	}
	if o.Type != enum.OrderTypeDelivery && !deliveryFee.IsZero() {
		return ErrDeliveryFee
	}
	if _, err := o.reprice(o.Lines, o.BillDiscount, deliveryFee, tips, o.LoyaltyDiscountAmount); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

// ApplyLoyaltyDiscount records a loyalty redemption worth amount (in order
// currency). Only one redemption per order. The applied amount may be
// clamped by pricing; the clamped value is returned.
func (o *Order) ApplyLoyaltyDiscount(accountID uuid.UUID, points int64, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := o.ensureOpen(); err != nil {
		return decimal.Zero, err
	}
	if o.LoyaltyPointsRedeemed > 0 {
		return decimal.Zero, ErrLoyaltyRedeemed
	}
	if points <= 0 {
		return decimal.Zero, ErrInvalidPoints
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	res, err := o.reprice(o.Lines, o.BillDiscount, o.DeliveryFee, o.Tips, amount)
	if err != nil {
		return decimal.Zero, err
	}
	id := accountID
	o.LoyaltyAccountID = &id
	o.LoyaltyPointsRedeemed = points
	o.UpdatedAt = now
	return res.Totals.LoyaltyDiscount, nil
}

func (o *Order) lineIndex(id uuid.UUID) (int, *Line, error) {
	for i, l := range o.Lines {
		if l.ID == id {
			return i, l, nil
		}
	}
	return -1, nil, ErrLineNotFound
}

// replaceLine swaps in a modified copy of the line at idx and reprices.
// On failure the original line is kept.
func (o *Order) replaceLine(idx int, next *Line) error {
	lines := append([]*Line(nil), o.Lines...)
	lines[idx] = next
	if _, err := o.reprice(lines, o.BillDiscount, o.DeliveryFee, o.Tips, o.LoyaltyDiscountAmount); err != nil {
		return err
	}
	o.markDirty(next.ID)
	return nil
}
