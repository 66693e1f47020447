// Package exchange resolves currency pairs to the rate valid at a point in
// time. Lookups go through an optional cache and are bounded by a timeout;
// a lookup that cannot complete fails with apperr.ErrUnavailable rather
// than guessing a rate.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// inversePrecision is the number of places kept when inverting a rate.
const inversePrecision = 12

var (
	ErrRateNotFound = fmt.Errorf("%w: no exchange rate for currency pair", apperr.ErrUnavailable)
	ErrUnavailable  = fmt.Errorf("%w: exchange rates", apperr.ErrUnavailable)
)

// Rate is a stored conversion: one unit of From buys Rate units of To.
type Rate struct {
	From        string
	To          string
	Rate        decimal.Decimal
	EffectiveAt time.Time
}

// Store returns the latest rate for from→to effective at or before at. It
// returns an error wrapping apperr.ErrNotFound when there is none.
type Store interface {
	LatestRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (Rate, error)
}

// Cache holds resolved rates.
type Cache interface {
	GetRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, bool, error)
	SetRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time, rate decimal.Decimal) error
}

// Resolver resolves rates from a Store, through an optional Cache.
type Resolver struct {
	store   Store
	cache   Cache
	timeout time.Duration
	log     *zap.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(store Store, cache Cache, timeout time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, cache: cache, timeout: timeout, log: log}
}

// Rate returns how many units of to one unit of from buys at time at. The
// same currency always converts at 1. When only to→from is stored its
// reciprocal is used.
func (r *Resolver) Rate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, error) {
	from, to = money.NormalizeCurrency(from), money.NormalizeCurrency(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.cache != nil {
		rate, ok, err := r.cache.GetRate(ctx, tenantID, from, to, at)
		if err != nil {
			r.log.Warn("rate cache get failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		} else if ok {
			return rate, nil
		}
	}

	rate, err := r.lookup(ctx, tenantID, from, to, at)
	if err != nil {
		return decimal.Zero, err
	}

	if r.cache != nil {
		if err := r.cache.SetRate(ctx, tenantID, from, to, at, rate); err != nil {
			r.log.Warn("rate cache set failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		}
	}
	return rate, nil
}

func (r *Resolver) lookup(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, error) {
	direct, err := r.store.LatestRate(ctx, tenantID, from, to, at)
	if err == nil {
		return direct.Rate, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s→%s: %v", ErrUnavailable, from, to, err)
	}

	inverse, err := r.store.LatestRate(ctx, tenantID, to, from, at)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %s→%s", ErrRateNotFound, from, to)
		}
		return decimal.Zero, fmt.Errorf("%w: %s→%s: %v", ErrUnavailable, to, from, err)
	}
	if !inverse.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s→%s", ErrRateNotFound, from, to)
	}
	return decimal.NewFromInt(1).DivRound(inverse.Rate, inversePrecision), nil
}
