// Package service runs the order, settlement and shift operations. Each
// operation is one short PostgreSQL transaction: the order row is locked,
// the aggregate is loaded, mutated through the domain packages and written
// back with an optimistic version check. Events go out after commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/clock"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxOrderNumberRetries = 3

// Errors returned by the services.
var (
	ErrVersionConflict  = fmt.Errorf("%w: order was modified concurrently", apperr.ErrConflict)
	ErrOrderNotFound    = fmt.Errorf("%w: order", apperr.ErrNotFound)
	ErrShiftNotFound    = fmt.Errorf("%w: shift", apperr.ErrNotFound)
	ErrBranchNotFound   = fmt.Errorf("%w: branch", apperr.ErrNotFound)
	ErrNoOpenShift      = fmt.Errorf("%w: cashier has no open shift in this branch", apperr.ErrInvalidState)
	ErrItemNotFound     = fmt.Errorf("%w: menu item not found in branch", apperr.ErrInvalidInput)
	ErrSizeNotFound     = fmt.Errorf("%w: size not found", apperr.ErrInvalidInput)
	ErrSizeMismatch     = fmt.Errorf("%w: size does not belong to item", apperr.ErrInvalidInput)
	ErrModifierNotFound = fmt.Errorf("%w: modifier not found", apperr.ErrInvalidInput)
	ErrModifierMismatch = fmt.Errorf("%w: modifier does not belong to item", apperr.ErrInvalidInput)
	ErrGiftCardNotFound = fmt.Errorf("%w: gift card", apperr.ErrNotFound)
	ErrGiftCardInactive = fmt.Errorf("%w: gift card is not active", apperr.ErrInvalidState)
	ErrGiftCardCurrency = fmt.Errorf("%w: currency does not match gift card", apperr.ErrInvalidInput)
	ErrLoyaltyNotFound  = fmt.Errorf("%w: loyalty account", apperr.ErrNotFound)
	ErrLoyaltyExceeds   = fmt.Errorf("%w: points are worth more than the order", apperr.ErrInvalidInput)
	ErrNotShiftOwner    = fmt.Errorf("%w: only the cashier or a manager may close this shift", apperr.ErrApprovalRequired)
	ErrInvalidDiscount  = fmt.Errorf("%w: invalid discount_type", apperr.ErrInvalidInput)
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RateResolver converts between currencies. Satisfied by *exchange.Resolver.
type RateResolver interface {
	Rate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, error)
}

// Actor is the verified caller together with the branch the request is for.
type Actor struct {
	TenantID uuid.UUID
	BranchID uuid.UUID
	UserID   uuid.UUID
	Role     enum.Role
}

func (a Actor) order() order.Actor {
	return order.Actor{UserID: a.UserID, Role: a.Role}
}

func (a Actor) request(o *approval.Override) approval.Request {
	return approval.Request{
		TenantID: a.TenantID,
		BranchID: a.BranchID,
		ActorID:  a.UserID,
		Role:     a.Role,
		Override: o,
	}
}

// SystemActor is used for work nobody asked for, like the stale shift sweep.
func SystemActor(tenantID, branchID uuid.UUID) Actor {
	return Actor{TenantID: tenantID, BranchID: branchID, Role: enum.RoleSystem}
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Gate   *approval.Gate
	Rates  RateResolver
	Events events.Publisher
	Clock  clock.Clock
	Log    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// publish delivers ev after commit. Delivery failures never fail the
// operation that produced the event.
func (d Deps) publish(ctx context.Context, ev events.Event) {
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.Debug("event not delivered", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// isUniqueViolation checks for a pg unique violation (23505) on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number.
func isOrderNumberConflict(err error) bool {
	return isUniqueViolation(err, "orders_branch_id_order_number_key")
}

// noRows maps pgx.ErrNoRows to notFound and wraps anything else with what.
func noRows(err error, notFound error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", what, err)
}
