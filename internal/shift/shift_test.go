package shift

import (
	"testing"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openShift(t *testing.T) *Shift {
	t.Helper()
	s, err := Open(OpenParams{BranchID: uuid.New(), CashierID: uuid.New(), Currency: "usd", OpeningCash: d("100")}, t0)
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	s := openShift(t)
	assert.Equal(t, enum.ShiftStatusOpen, s.Status)
	assert.Equal(t, "USD", s.Currency)
	assert.NoError(t, s.EnsureOpen())

	_, err := Open(OpenParams{Currency: "USD", OpeningCash: d("-1")}, t0)
	assert.ErrorIs(t, err, ErrNegativeCash)
	_, err = Open(OpenParams{Currency: "X", OpeningCash: d("1")}, t0)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestClose_Reconciles(t *testing.T) {
	s := openShift(t)
	by := uuid.New()
	payments := []CashPayment{
		{Currency: "USD", Amount: d("23.63")},
		{Currency: "USD", Amount: d("10")},
		{Currency: "USD", Amount: d("-5")},
		{Currency: "EUR", Amount: d("20")},
	}

	require.NoError(t, s.Close(d("127.00"), payments, by, t0.Add(8*time.Hour)))

	assert.Equal(t, enum.ShiftStatusClosed, s.Status)
	assert.True(t, s.ExpectedCash.Equal(d("128.63")), "expected %s", s.ExpectedCash)
	assert.True(t, s.CashDifference.Equal(d("-1.63")), "difference %s", s.CashDifference)
	assert.True(t, s.ForeignCash["EUR"].Equal(d("20")))
	assert.Equal(t, by, *s.ClosedBy)

	err := s.Close(d("1"), nil, by, t0)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, s.EnsureOpen(), apperr.ErrInvalidState)
}

func TestForceClose(t *testing.T) {
	s := openShift(t)
	assert.ErrorIs(t, s.ForceClose("", nil, uuid.Nil, t0), ErrReasonRequired)

	require.NoError(t, s.ForceClose("end of day sweep", []CashPayment{{Currency: "USD", Amount: d("5")}}, uuid.Nil, t0))
	assert.Equal(t, enum.ShiftStatusForceClosed, s.Status)
	assert.Equal(t, "end of day sweep", s.CloseReason)
	assert.True(t, s.ExpectedCash.Equal(d("105")))
	assert.Nil(t, s.CountedCash)
	assert.ErrorIs(t, s.EnsureOpen(), ErrNotOpen)
}

func TestStale(t *testing.T) {
	s := openShift(t)
	assert.False(t, s.Stale(16*time.Hour, t0.Add(15*time.Hour)))
	assert.True(t, s.Stale(16*time.Hour, t0.Add(17*time.Hour)))

	require.NoError(t, s.Close(d("100"), nil, uuid.New(), t0))
	assert.False(t, s.Stale(time.Hour, t0.Add(48*time.Hour)))
}
