// Package ledger holds the arithmetic for append-only balance ledgers used
// by gift cards and loyalty accounts. Every entry records the balance before
// and after it, so the current balance can always be reproduced by replaying
// the entries in order.
package ledger

import (
	"fmt"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = fmt.Errorf("%w: balance would go negative", apperr.ErrInsufficientBalance)
	ErrInvalidAmount       = fmt.Errorf("%w: ledger amount must be > 0", apperr.ErrInvalidInput)
	ErrBrokenChain         = fmt.Errorf("%w: ledger entries do not chain", apperr.ErrInvalidState)
)

// Entry is one ledger row. Delta is signed: credits are positive.
type Entry struct {
	Type          enum.LedgerEntryType
	Delta         decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// Debit takes amount off balance. It fails with ErrInsufficientBalance
// rather than letting the balance go negative.
func Debit(balance, amount decimal.Decimal, typ enum.LedgerEntryType) (Entry, error) {
	if !amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}
	after := balance.Sub(amount)
	if after.IsNegative() {
		return Entry{}, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, balance, amount)
	}
	return Entry{Type: typ, Delta: amount.Neg(), BalanceBefore: balance, BalanceAfter: after}, nil
}

// Credit adds amount to balance.
func Credit(balance, amount decimal.Decimal, typ enum.LedgerEntryType) (Entry, error) {
	if !amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}
	return Entry{Type: typ, Delta: amount, BalanceBefore: balance, BalanceAfter: balance.Add(amount)}, nil
}

// Replay walks entries oldest first and returns the resulting balance. The
// ledger opens at zero, so the balance is exactly the sum of the deltas.
// Each entry must start where the previous one ended and be internally
// consistent.
func Replay(entries []Entry) (decimal.Decimal, error) {
	balance := decimal.Zero
	for i, e := range entries {
		if !e.BalanceBefore.Equal(balance) {
			if i == 0 {
				return decimal.Zero, fmt.Errorf("%w: first entry starts at %s, not 0", ErrBrokenChain, e.BalanceBefore)
			}
			return decimal.Zero, fmt.Errorf("%w: entry %d starts at %s, previous ended at %s", ErrBrokenChain, i, e.BalanceBefore, balance)
		}
		if !e.BalanceBefore.Add(e.Delta).Equal(e.BalanceAfter) {
			return decimal.Zero, fmt.Errorf("%w: entry %d: %s + %s != %s", ErrBrokenChain, i, e.BalanceBefore, e.Delta, e.BalanceAfter)
		}
		if e.BalanceAfter.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: entry %d ends negative", ErrBrokenChain, i)
		}
		balance = e.BalanceAfter
	}
	return balance, nil
}

// Verify replays entries and compares the result with the stored balance.
func Verify(entries []Entry, stored decimal.Decimal) error {
	got, err := Replay(entries)
	if err != nil {
		return err
	}
	if !got.Equal(stored) {
		return fmt.Errorf("%w: replayed %s, stored %s", ErrBrokenChain, got, stored)
	}
	return nil
}

// EarnedPoints returns floor(amount × rate). Negative results are zero.
func EarnedPoints(amount, rate decimal.Decimal) int64 {
	p := amount.Mul(rate).Floor()
	if p.IsNegative() {
		return 0
	}
	return p.IntPart()
}

// PointsValue returns what points are worth at pointValue each.
func PointsValue(points int64, pointValue decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(pointValue)
}
