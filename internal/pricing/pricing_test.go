package pricing

import (
	"testing"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_GrandTotalIdentity(t *testing.T) {
	in := Input{
		Lines: []Line{
			{BaseUnitPrice: d("12.345"), ModifiersExtra: d("1.1"), Quantity: 3, Discount: Discount{Type: enum.DiscountTypePercentage, Value: d("7.5")}},
			{BaseUnitPrice: d("8"), Quantity: 1, Discount: Discount{Type: enum.DiscountTypeFixed, Value: d("0.99")}},
			{BaseUnitPrice: d("100"), Quantity: 2, Cancelled: true},
		},
		BillDiscount:    Discount{Type: enum.DiscountTypePercentage, Value: d("12.5")},
		DeliveryFee:     d("4.2"),
		Tips:            d("3"),
		LoyaltyDiscount: d("2.75"),
		Policy:          Policy{ServiceChargePercent: d("10"), TaxPercent: d("11"), TaxBase: enum.TaxBaseNetPlusServiceCharge},
	}
	res, err := Compute(in)
	require.NoError(t, err)

	tt := res.Totals
	want := tt.SubTotal.Sub(tt.LineDiscount).Sub(tt.BillDiscount).
		Add(tt.ServiceCharge).Add(tt.Tax).Add(tt.DeliveryFee).Add(tt.Tips).Sub(tt.LoyaltyDiscount)
	assert.True(t, want.Equal(tt.GrandTotal), "identity: %s != %s", want, tt.GrandTotal)
	assert.Empty(t, res.Warnings)
}

func TestCompute_CancelledLinesExcluded(t *testing.T) {
	res, err := Compute(Input{Lines: []Line{
		{BaseUnitPrice: d("10"), Quantity: 1},
		{BaseUnitPrice: d("99"), Quantity: 1, Cancelled: true},
	}})
	require.NoError(t, err)

	assert.True(t, res.Totals.SubTotal.Equal(d("10")))
	// Cancelled lines are still priced so the line row stays meaningful.
	assert.True(t, res.Lines[1].Net.Equal(d("99")))
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Lines:  []Line{{BaseUnitPrice: d("3.333"), Quantity: 7}},
		Policy: Policy{ServiceChargePercent: d("5"), TaxPercent: d("7")},
	}
	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, a.Totals.GrandTotal.Equal(b.Totals.GrandTotal))
}

func TestCompute_ClampsAndWarns(t *testing.T) {
	res, err := Compute(Input{
		Lines: []Line{
			{BaseUnitPrice: d("5"), Quantity: 1, Discount: Discount{Type: enum.DiscountTypePercentage, Value: d("150")}},
			{BaseUnitPrice: d("5"), Quantity: 1},
		},
		LoyaltyDiscount: d("50"),
	})
	require.NoError(t, err)

	assert.True(t, res.Lines[0].Net.IsZero())
	assert.True(t, res.Totals.GrandTotal.IsZero())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarnLineDiscountClamped, res.Warnings[0].Code)
	assert.Equal(t, 0, res.Warnings[0].Line)
	assert.Equal(t, WarnLoyaltyDiscountClamped, res.Warnings[1].Code)
	assert.Equal(t, -1, res.Warnings[1].Line)
}

func TestCompute_InvalidInput(t *testing.T) {
	line := Line{BaseUnitPrice: d("1"), Quantity: 1}
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"zero quantity", Input{Lines: []Line{{BaseUnitPrice: d("1")}}}, ErrInvalidQuantity},
		{"negative price", Input{Lines: []Line{{BaseUnitPrice: d("-1"), Quantity: 1}}}, ErrNegativePrice},
		{"negative discount", Input{Lines: []Line{line}, BillDiscount: Discount{Type: enum.DiscountTypeFixed, Value: d("-1")}}, ErrNegativeDiscount},
		{"unknown discount type", Input{Lines: []Line{line}, BillDiscount: Discount{Type: "BOGO"}}, ErrInvalidDiscountType},
		{"negative tips", Input{Lines: []Line{line}, Tips: d("-0.01")}, ErrNegativeFee},
		{"negative loyalty", Input{Lines: []Line{line}, LoyaltyDiscount: d("-1")}, ErrNegativeLoyaltyValue},
		{"negative tax", Input{Lines: []Line{line}, Policy: Policy{TaxPercent: d("-1")}}, ErrNegativePercent},
		{"bad tax base", Input{Lines: []Line{line}, Policy: Policy{TaxBase: "GROSS"}}, ErrInvalidTaxBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestPriceLine(t *testing.T) {
	lr, err := PriceLine(Line{BaseUnitPrice: d("4"), ModifiersExtra: d("1.5"), Quantity: 2, Discount: Discount{Type: enum.DiscountTypeFixed, Value: d("20")}})
	require.NoError(t, err)

	assert.True(t, lr.EffectiveUnitPrice.Equal(d("5.5")))
	assert.True(t, lr.Gross.Equal(d("11")))
	assert.True(t, lr.DiscountAmount.Equal(d("11")))
	assert.True(t, lr.Net.IsZero())
}

func TestCompute_EmptyOrder(t *testing.T) {
	res, err := Compute(Input{DeliveryFee: d("2")})
	require.NoError(t, err)
	assert.True(t, res.Totals.GrandTotal.Equal(d("2")))
}
