package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/shift"
	"github.com/dinerhq/pos-api/internal/view"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const staleShiftReason = "shift exceeded maximum open duration"

// OpenShiftRequest opens a drawer. Currency defaults to the branch currency.
type OpenShiftRequest struct {
	Currency    string
	OpeningCash decimal.Decimal
}

// ShiftService runs the cashier shift register.
type ShiftService struct {
	pool     TxBeginner
	newStore NewStore
	deps     Deps
}

// NewShiftService creates a new ShiftService.
func NewShiftService(pool TxBeginner, newStore NewStore, deps Deps) *ShiftService {
	return &ShiftService{pool: pool, newStore: newStore, deps: deps.withDefaults()}
}

// Open starts a shift for the calling cashier in the actor's branch.
func (s *ShiftService) Open(ctx context.Context, actor Actor, req OpenShiftRequest) (*shift.Shift, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	branch, err := store.GetBranch(ctx, database.GetBranchParams{ID: actor.BranchID, TenantID: actor.TenantID})
	if err != nil {
		return nil, noRows(err, ErrBranchNotFound, "get branch")
	}
	cur := money.NormalizeCurrency(req.Currency)
	if cur == "" {
		cur = branch.Currency
	}
	if _, err := store.GetCurrency(ctx, cur); err != nil {
		return nil, noRows(err, shift.ErrInvalidCurrency, "get currency")
	}

	sh, err := shift.Open(shift.OpenParams{
		TenantID:    actor.TenantID,
		BranchID:    actor.BranchID,
		CashierID:   actor.UserID,
		Currency:    cur,
		OpeningCash: req.OpeningCash,
	}, s.deps.Clock.Now())
	if err != nil {
		return nil, err
	}
	row, err := store.CreateShift(ctx, database.CreateShiftParams{
		ID:          sh.ID,
		TenantID:    sh.TenantID,
		BranchID:    sh.BranchID,
		CashierID:   sh.CashierID,
		Currency:    sh.Currency,
		Status:      string(sh.Status),
		OpeningCash: money.ToNumeric(sh.OpeningCash),
		OpenedAt:    sh.OpenedAt,
	})
	if err != nil {
		if isUniqueViolation(err, "shifts_open_cashier_key") {
			return nil, shift.ErrAlreadyOpen
		}
		return nil, fmt.Errorf("create shift: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return shiftFromRow(row), nil
}

// Current returns the calling cashier's open shift in the actor's branch.
func (s *ShiftService) Current(ctx context.Context, actor Actor) (*shift.Shift, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row, err := s.newStore(tx).GetOpenShift(ctx, database.GetOpenShiftParams{BranchID: actor.BranchID, CashierID: actor.UserID})
	if err != nil {
		return nil, noRows(err, ErrNoOpenShift, "get open shift")
	}
	return shiftFromRow(row), nil
}

// Get returns a shift of the actor's branch. Closed shifts carry their
// foreign cash totals.
func (s *ShiftService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*shift.Shift, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	row, err := store.GetShift(ctx, database.GetShiftParams{ID: id, TenantID: actor.TenantID})
	if err != nil {
		return nil, noRows(err, ErrShiftNotFound, "get shift")
	}
	if row.BranchID != actor.BranchID {
		return nil, ErrShiftNotFound
	}
	sh := shiftFromRow(row)
	if sh.Status != enum.ShiftStatusOpen {
		payments, err := cashPayments(ctx, store, sh.ID)
		if err != nil {
			return nil, err
		}
		sh.ForeignCash = shift.Reconcile(sh.OpeningCash, sh.Currency, payments).Foreign
	}
	return sh, nil
}

// Close reconciles and closes a shift. Only its cashier or a manager may
// close it.
func (s *ShiftService) Close(ctx context.Context, actor Actor, id uuid.UUID, counted decimal.Decimal) (*shift.Shift, error) {
	return s.closeShift(ctx, actor, id, func(sh *shift.Shift, payments []shift.CashPayment, now time.Time) error {
		if sh.CashierID != actor.UserID && !actor.Role.CanApprove() {
			return ErrNotShiftOwner
		}
		return sh.Close(counted, payments, actor.UserID, now)
	})
}

// ForceClose closes a shift without a cash count.
func (s *ShiftService) ForceClose(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*shift.Shift, error) {
	if !actor.Role.CanApprove() && actor.Role != enum.RoleSystem {
		return nil, approval.ErrApprovalRequired
	}
	return s.closeShift(ctx, actor, id, func(sh *shift.Shift, payments []shift.CashPayment, now time.Time) error {
		return sh.ForceClose(reason, payments, actor.UserID, now)
	})
}

// CloseStale force-closes up to limit shifts open longer than maxAge and
// returns how many were closed. A failure on one shift does not stop the
// rest.
func (s *ShiftService) CloseStale(ctx context.Context, maxAge time.Duration, limit int32) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rows, err := s.newStore(tx).ListStaleShifts(ctx, database.ListStaleShiftsParams{
		OpenedBefore: s.deps.Clock.Now().Add(-maxAge),
		Limit:        limit,
	})
	tx.Rollback(ctx) //nolint:errcheck
	if err != nil {
		return 0, fmt.Errorf("list stale shifts: %w", err)
	}

	closed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		_, err := s.ForceClose(ctx, SystemActor(row.TenantID, row.BranchID), row.ID, staleShiftReason)
		if err != nil {
			if errors.Is(err, shift.ErrNotOpen) {
				continue
			}
			s.deps.Log.Warn("force close stale shift failed", zap.String("shift_id", row.ID.String()), zap.Error(err))
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *ShiftService) closeShift(ctx context.Context, actor Actor, id uuid.UUID, fn func(sh *shift.Shift, payments []shift.CashPayment, now time.Time) error) (*shift.Shift, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	row, err := store.GetShiftForUpdate(ctx, database.GetShiftParams{ID: id, TenantID: actor.TenantID})
	if err != nil {
		return nil, noRows(err, ErrShiftNotFound, "get shift")
	}
	if row.BranchID != actor.BranchID {
		return nil, ErrShiftNotFound
	}
	sh := shiftFromRow(row)
	payments, err := cashPayments(ctx, store, sh.ID)
	if err != nil {
		return nil, err
	}
	if err := fn(sh, payments, s.deps.Clock.Now()); err != nil {
		return nil, err
	}

	_, err = store.CloseShift(ctx, database.CloseShiftParams{
		ID:             sh.ID,
		Status:         string(sh.Status),
		ExpectedCash:   money.ToNullNumeric(sh.ExpectedCash),
		CountedCash:    money.ToNullNumeric(sh.CountedCash),
		CashDifference: money.ToNullNumeric(sh.CashDifference),
		ClosedAt:       toTime(sh.ClosedAt),
		ClosedBy:       toUUID(sh.ClosedBy),
		CloseReason:    toText(sh.CloseReason),
	})
	if err != nil {
		// Another close won the race after our read.
		return nil, noRows(err, shift.ErrNotOpen, "close shift")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.deps.publish(ctx, events.Event{
		Type:      events.ShiftClosed,
		TenantID:  sh.TenantID,
		BranchID:  sh.BranchID,
		SubjectID: sh.ID,
		At:        *sh.ClosedAt,
		Data:      view.FromShift(sh),
	})
	return sh, nil
}

func cashPayments(ctx context.Context, store ShiftStore, shiftID uuid.UUID) ([]shift.CashPayment, error) {
	rows, err := store.ListShiftCashPayments(ctx, toUUID(&shiftID))
	if err != nil {
		return nil, fmt.Errorf("list shift cash payments: %w", err)
	}
	out := make([]shift.CashPayment, len(rows))
	for i, r := range rows {
		out[i] = shift.CashPayment{Currency: r.Currency, Amount: money.FromNumeric(r.Amount)}
	}
	return out, nil
}

func shiftFromRow(r database.Shift) *shift.Shift {
	return &shift.Shift{
		ID:             r.ID,
		TenantID:       r.TenantID,
		BranchID:       r.BranchID,
		CashierID:      r.CashierID,
		Currency:       r.Currency,
		Status:         enum.ShiftStatus(r.Status),
		OpeningCash:    money.FromNumeric(r.OpeningCash),
		ExpectedCash:   money.FromNullNumeric(r.ExpectedCash),
		CountedCash:    money.FromNullNumeric(r.CountedCash),
		CashDifference: money.FromNullNumeric(r.CashDifference),
		OpenedAt:       r.OpenedAt,
		ClosedAt:       fromTime(r.ClosedAt),
		ClosedBy:       fromUUID(r.ClosedBy),
		CloseReason:    r.CloseReason.String,
	}
}
