package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/dinerhq/pos-api/internal/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func scenarioOrder(t *testing.T) *order.Order {
	t.Helper()
	actor := order.Actor{UserID: uuid.New(), Role: enum.RoleCashier}
	o, err := order.New(order.NewParams{
		TenantID:           uuid.New(),
		BranchID:           uuid.New(),
		Number:             "A-0001",
		Type:               enum.OrderTypeDineIn,
		Currency:           "USD",
		CurrencyDecimals:   2,
		ExchangeRateToBase: dec("1"),
		TableNumber:        "7",
		Policy:             pricing.Policy{TaxPercent: dec("5"), TaxBase: enum.TaxBaseNet},
		CreatedBy:          actor,
	}, t0)
	require.NoError(t, err)
	_, err = o.AddLine(order.NewLine{ItemID: uuid.New(), Name: "Burger", Quantity: 1, BaseUnitPrice: dec("10"),
		Modifiers: []order.Modifier{{ModifierID: uuid.New(), Name: "No onion", Quantity: 1, UnitPrice: dec("0")}}}, t0)
	require.NoError(t, err)
	_, err = o.AddLine(order.NewLine{ItemID: uuid.New(), Name: "Steak", Quantity: 1, BaseUnitPrice: dec("15")}, t0)
	require.NoError(t, err)
	require.NoError(t, o.SetBillDiscount(pricing.Discount{Type: enum.DiscountTypePercentage, Value: dec("10")}, t0))
	return o
}

func TestFromOrder_RendersAmountsInCurrencyPrecision(t *testing.T) {
	o := scenarioOrder(t)

	v := FromOrder(o)

	assert.Equal(t, "25.00", v.SubTotal)
	assert.Equal(t, "2.50", v.BillDiscountAmount)
	assert.Equal(t, "22.50", v.TaxableAmount)
	assert.Equal(t, "1.13", v.Tax)
	assert.Equal(t, "23.63", v.GrandTotal)
	assert.Equal(t, "23.63", v.BalanceDue)
	assert.Equal(t, enum.PaymentStatusUnpaid, v.PaymentStatus)
	require.NotNil(t, v.BillDiscount)
	assert.Equal(t, enum.DiscountTypePercentage, v.BillDiscount.Type)
	require.Len(t, v.Lines, 2)
	assert.Len(t, v.Lines[0].Modifiers, 1)
	assert.Nil(t, v.Notes)
	require.NotNil(t, v.TableNumber)
	assert.Equal(t, "7", *v.TableNumber)
}

func TestFromOrder_InitialHistoryHasNoFrom(t *testing.T) {
	v := FromOrder(scenarioOrder(t))

	require.Len(t, v.History, 1)
	assert.Nil(t, v.History[0].From)
	assert.Equal(t, enum.OrderStatusDraft, v.History[0].To)

	raw, err := json.Marshal(v.History[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"from":null`)
}

func TestTicket_OnlyListsSentLines(t *testing.T) {
	o := scenarioOrder(t)
	actor := order.Actor{UserID: uuid.New(), Role: enum.RoleWaiter}
	sent, err := o.SendToKitchen(actor, t0)
	require.NoError(t, err)

	ticket := Ticket(o, sent[:1], t0)

	assert.Equal(t, "A-0001", ticket.OrderNumber)
	require.Len(t, ticket.Lines, 1)
	assert.Equal(t, "Burger", ticket.Lines[0].Name)
	assert.Equal(t, []string{"No onion"}, ticket.Lines[0].Modifiers)
}

func TestFromShift_ForeignCash(t *testing.T) {
	s, err := shift.Open(shift.OpenParams{
		TenantID: uuid.New(), BranchID: uuid.New(), CashierID: uuid.New(),
		Currency: "USD", OpeningCash: dec("100"),
	}, t0)
	require.NoError(t, err)
	require.NoError(t, s.Close(dec("120"), []shift.CashPayment{
		{Currency: "USD", Amount: dec("25")},
		{Currency: "EUR", Amount: dec("10")},
	}, uuid.New(), t0.Add(time.Hour)))

	v := FromShift(s)

	assert.Equal(t, enum.ShiftStatusClosed, v.Status)
	require.NotNil(t, v.ExpectedCash)
	assert.Equal(t, "125", *v.ExpectedCash)
	require.NotNil(t, v.CashDifference)
	assert.Equal(t, "-5", *v.CashDifference)
	assert.Equal(t, map[string]string{"EUR": "10"}, v.ForeignCash)
}
