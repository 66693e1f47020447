// Package shift implements the cashier shift register: opening a drawer,
// reconciling expected against counted cash on close, and force-closing
// shifts that were left open.
package shift

import (
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeCash    = fmt.Errorf("%w: cash amounts must be >= 0", apperr.ErrInvalidInput)
	ErrReasonRequired  = fmt.Errorf("%w: force close reason is required", apperr.ErrInvalidInput)
	ErrInvalidCurrency = fmt.Errorf("%w: invalid currency", apperr.ErrInvalidInput)
	ErrNotOpen         = fmt.Errorf("%w: shift is not open", apperr.ErrInvalidState)
	ErrAlreadyOpen     = fmt.Errorf("%w: cashier already has an open shift in this branch", apperr.ErrConflict)
)

// Shift is a cashier session at one branch.
type Shift struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	BranchID       uuid.UUID
	CashierID      uuid.UUID
	Currency       string
	Status         enum.ShiftStatus
	OpeningCash    decimal.Decimal
	ExpectedCash   *decimal.Decimal
	CountedCash    *decimal.Decimal
	CashDifference *decimal.Decimal
	ForeignCash    map[string]decimal.Decimal
	OpenedAt       time.Time
	ClosedAt       *time.Time
	ClosedBy       *uuid.UUID
	CloseReason    string
}

// OpenParams is the input to Open.
type OpenParams struct {
	TenantID    uuid.UUID
	BranchID    uuid.UUID
	CashierID   uuid.UUID
	Currency    string
	OpeningCash decimal.Decimal
}

// CashPayment is a cash payment or reversal attributed to a shift. Amount
// is signed and in the payment currency.
type CashPayment struct {
	Currency string
	Amount   decimal.Decimal
}

// Summary is the cash the drawer should hold.
type Summary struct {
	Expected decimal.Decimal
	// Foreign cash cannot be reconciled against the drawer count and is
	// reported per currency.
	Foreign map[string]decimal.Decimal
}

// Open starts a shift. Uniqueness of open shifts per cashier and branch is
// enforced by storage.
func Open(p OpenParams, now time.Time) (*Shift, error) {
	if p.OpeningCash.IsNegative() {
		return nil, ErrNegativeCash
	}
	cur := money.NormalizeCurrency(p.Currency)
	if len(cur) != 3 {
		return nil, ErrInvalidCurrency
	}
	return &Shift{
		ID:          uuid.New(),
		TenantID:    p.TenantID,
		BranchID:    p.BranchID,
		CashierID:   p.CashierID,
		Currency:    cur,
		Status:      enum.ShiftStatusOpen,
		OpeningCash: p.OpeningCash,
		OpenedAt:    now,
	}, nil
}

// Reconcile sums cash in the shift currency on top of opening cash.
func Reconcile(opening decimal.Decimal, currency string, payments []CashPayment) Summary {
	s := Summary{Expected: opening}
	for _, p := range payments {
		if p.Currency == currency {
			s.Expected = s.Expected.Add(p.Amount)
			continue
		}
		if s.Foreign == nil {
			s.Foreign = make(map[string]decimal.Decimal)
		}
		s.Foreign[p.Currency] = s.Foreign[p.Currency].Add(p.Amount)
	}
	return s
}

// EnsureOpen fails unless orders may still attach to the shift.
func (s *Shift) EnsureOpen() error {
	if s.Status != enum.ShiftStatusOpen {
		return ErrNotOpen
	}
	return nil
}

// Close reconciles the drawer against counted cash.
func (s *Shift) Close(counted decimal.Decimal, payments []CashPayment, by uuid.UUID, now time.Time) error {
	if err := s.EnsureOpen(); err != nil {
		return err
	}
	if counted.IsNegative() {
		return ErrNegativeCash
	}
	sum := Reconcile(s.OpeningCash, s.Currency, payments)
	diff := counted.Sub(sum.Expected)
	s.ExpectedCash = &sum.Expected
	s.CountedCash = &counted
	s.CashDifference = &diff
	s.ForeignCash = sum.Foreign
	s.finish(enum.ShiftStatusClosed, by, now)
	return nil
}

// ForceClose closes a shift nobody counted. Expected cash is still recorded
// so the next count can be compared against it.
func (s *Shift) ForceClose(reason string, payments []CashPayment, by uuid.UUID, now time.Time) error {
	if err := s.EnsureOpen(); err != nil {
		return err
	}
	if reason == "" {
		return ErrReasonRequired
	}
	sum := Reconcile(s.OpeningCash, s.Currency, payments)
	s.ExpectedCash = &sum.Expected
	s.ForeignCash = sum.Foreign
	s.CloseReason = reason
	s.finish(enum.ShiftStatusForceClosed, by, now)
	return nil
}

// Stale reports whether an open shift has outlived maxAge.
func (s *Shift) Stale(maxAge time.Duration, now time.Time) bool {
	return s.Status == enum.ShiftStatusOpen && now.Sub(s.OpenedAt) > maxAge
}

func (s *Shift) finish(status enum.ShiftStatus, by uuid.UUID, now time.Time) {
	t := now
	id := by
	s.Status = status
	s.ClosedAt = &t
	s.ClosedBy = &id
}
