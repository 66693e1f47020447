// Package pricing computes line and order totals. Compute is a pure
// function: the same input always yields the same totals, and nothing is
// rounded. Rounding to currency precision happens at settlement.
package pricing

import (
	"fmt"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/shopspring/decimal"
)

// Errors returned by Compute. All wrap apperr.ErrInvalidInput.
var (
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be > 0", apperr.ErrInvalidInput)
	ErrNegativePrice        = fmt.Errorf("%w: price must be >= 0", apperr.ErrInvalidInput)
	ErrNegativeDiscount     = fmt.Errorf("%w: discount value must be >= 0", apperr.ErrInvalidInput)
	ErrInvalidDiscountType  = fmt.Errorf("%w: invalid discount_type", apperr.ErrInvalidInput)
	ErrNegativeFee          = fmt.Errorf("%w: fees and tips must be >= 0", apperr.ErrInvalidInput)
	ErrNegativePercent      = fmt.Errorf("%w: percent must be >= 0", apperr.ErrInvalidInput)
	ErrInvalidTaxBase       = fmt.Errorf("%w: invalid tax base", apperr.ErrInvalidInput)
	ErrNegativeLoyaltyValue = fmt.Errorf("%w: loyalty discount must be >= 0", apperr.ErrInvalidInput)
)

// Warning codes attached to a Result when a value was clamped.
const (
	WarnLineDiscountClamped    = "LINE_DISCOUNT_CLAMPED"
	WarnBillDiscountClamped    = "BILL_DISCOUNT_CLAMPED"
	WarnLoyaltyDiscountClamped = "LOYALTY_DISCOUNT_CLAMPED"
)

// Discount is an optional percent or fixed-amount reduction. The zero
// value means no discount.
type Discount struct {
	Type  enum.DiscountType
	Value decimal.Decimal
}

// IsZero reports whether no discount is set.
func (d Discount) IsZero() bool {
	return d.Type == ""
}

// Policy is the branch configuration that shapes totals.
type Policy struct {
	ServiceChargePercent decimal.Decimal
	TaxPercent           decimal.Decimal
	TaxBase              enum.TaxBase
}

// Line is the pricing view of an order line.
type Line struct {
	BaseUnitPrice  decimal.Decimal
	ModifiersExtra decimal.Decimal // per unit, already multiplied by modifier quantity
	Quantity       int32
	Discount       Discount
	Cancelled      bool
}

// Input is everything Compute needs.
type Input struct {
	Lines           []Line
	BillDiscount    Discount
	DeliveryFee     decimal.Decimal
	Tips            decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	Policy          Policy
}

// LineResult holds the computed amounts for one line.
type LineResult struct {
	EffectiveUnitPrice decimal.Decimal
	Gross              decimal.Decimal
	DiscountAmount     decimal.Decimal
	Net                decimal.Decimal
}

// Totals are the order-level amounts.
type Totals struct {
	SubTotal         decimal.Decimal
	LineDiscount     decimal.Decimal
	BillDiscount     decimal.Decimal
	NetAfterDiscount decimal.Decimal
	ServiceCharge    decimal.Decimal
	TaxableAmount    decimal.Decimal
	Tax              decimal.Decimal
	DeliveryFee      decimal.Decimal
	Tips             decimal.Decimal
	LoyaltyDiscount  decimal.Decimal
	GrandTotal       decimal.Decimal
}

// Warning records a clamped value. Line is -1 for order-level warnings.
type Warning struct {
	Code    string
	Line    int
	Message string
}

// Result is the output of Compute. Lines is parallel to Input.Lines.
type Result struct {
	Lines    []LineResult
	Totals   Totals
	Warnings []Warning
}

// Compute prices every line and the order.
//
// sub_total is the sum of active line gross amounts. The bill discount
// percent applies to sub_total minus line discounts. Service charge applies
// to the net after all discounts; tax applies to that net, plus the service
// charge when the policy says so.
func Compute(in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	res := Result{Lines: make([]LineResult, len(in.Lines))}
	t := &res.Totals

	for i, l := range in.Lines {
		lr := priceLine(l)
		if l.Discount.Type != "" {
			want := lineDiscount(l.Discount, lr.Gross)
			if want.GreaterThan(lr.Gross) {
				res.Warnings = append(res.Warnings, Warning{
					Code:    WarnLineDiscountClamped,
					Line:    i,
					Message: fmt.Sprintf("line %d discount %s exceeds gross %s", i, want, lr.Gross),
				})
				want = lr.Gross
			}
			lr.DiscountAmount = want
		}
		lr.Net = lr.Gross.Sub(lr.DiscountAmount)
		res.Lines[i] = lr

		if l.Cancelled {
			continue
		}
		t.SubTotal = t.SubTotal.Add(lr.Gross)
		t.LineDiscount = t.LineDiscount.Add(lr.DiscountAmount)
	}

	afterLines := t.SubTotal.Sub(t.LineDiscount)
	if !in.BillDiscount.IsZero() {
		bill := lineDiscount(in.BillDiscount, afterLines)
		if bill.GreaterThan(afterLines) {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnBillDiscountClamped,
				Line:    -1,
				Message: fmt.Sprintf("bill discount %s exceeds net %s", bill, afterLines),
			})
			bill = afterLines
		}
		t.BillDiscount = bill
	}
	t.NetAfterDiscount = afterLines.Sub(t.BillDiscount)

	t.ServiceCharge = money.Percent(t.NetAfterDiscount, in.Policy.ServiceChargePercent)
	t.TaxableAmount = t.NetAfterDiscount
	if in.Policy.TaxBase == enum.TaxBaseNetPlusServiceCharge {
		t.TaxableAmount = t.TaxableAmount.Add(t.ServiceCharge)
	}
	t.Tax = money.Percent(t.TaxableAmount, in.Policy.TaxPercent)
	t.DeliveryFee = in.DeliveryFee
	t.Tips = in.Tips

	beforeLoyalty := t.NetAfterDiscount.Add(t.ServiceCharge).Add(t.Tax).Add(t.DeliveryFee).Add(t.Tips)
	t.LoyaltyDiscount = in.LoyaltyDiscount
	if t.LoyaltyDiscount.GreaterThan(beforeLoyalty) {
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarnLoyaltyDiscountClamped,
			Line:    -1,
			Message: fmt.Sprintf("loyalty discount %s exceeds total %s", t.LoyaltyDiscount, beforeLoyalty),
		})
		t.LoyaltyDiscount = beforeLoyalty
	}
	t.GrandTotal = beforeLoyalty.Sub(t.LoyaltyDiscount)

	return res, nil
}

// PriceLine returns the amounts for a single line without order context.
// Cancelled lines are priced the same way; callers exclude them from sums.
func PriceLine(l Line) (LineResult, error) {
	if err := validateLine(l); err != nil {
		return LineResult{}, err
	}
	lr := priceLine(l)
	if l.Discount.Type != "" {
		lr.DiscountAmount = decimal.Min(lineDiscount(l.Discount, lr.Gross), lr.Gross)
	}
	lr.Net = lr.Gross.Sub(lr.DiscountAmount)
	return lr, nil
}

func priceLine(l Line) LineResult {
	eff := l.BaseUnitPrice.Add(l.ModifiersExtra)
	return LineResult{
		EffectiveUnitPrice: eff,
		Gross:              eff.Mul(decimal.NewFromInt32(l.Quantity)),
	}
}

// lineDiscount returns the unclamped discount amount against base.
func lineDiscount(d Discount, base decimal.Decimal) decimal.Decimal {
	if d.Type == enum.DiscountTypePercentage {
		return money.Percent(base, d.Value)
	}
	return d.Value
}

func validate(in Input) error {
	for i, l := range in.Lines {
		if err := validateLine(l); err != nil {
			return fmt.Errorf("lines[%d]: %w", i, err)
		}
	}
	if err := validateDiscount(in.BillDiscount); err != nil {
		return fmt.Errorf("bill discount: %w", err)
	}
	if in.DeliveryFee.IsNegative() || in.Tips.IsNegative() {
		return ErrNegativeFee
	}
	if in.LoyaltyDiscount.IsNegative() {
		return ErrNegativeLoyaltyValue
	}
	p := in.Policy
	if p.ServiceChargePercent.IsNegative() || p.TaxPercent.IsNegative() {
		return ErrNegativePercent
	}
	if p.TaxBase != "" && !p.TaxBase.Valid() {
		return ErrInvalidTaxBase
	}
	return nil
}

func validateLine(l Line) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if l.BaseUnitPrice.IsNegative() || l.ModifiersExtra.IsNegative() {
		return ErrNegativePrice
	}
	return validateDiscount(l.Discount)
}

func validateDiscount(d Discount) error {
	if d.Type == "" {
		return nil
	}
	if !d.Type.Valid() {
		return ErrInvalidDiscountType
	}
	if d.Value.IsNegative() {
		return ErrNegativeDiscount
	}
	return nil
}
