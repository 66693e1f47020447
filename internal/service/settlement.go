package service

import (
	"context"
	"fmt"

	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/ledger"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRequest is a tender against an order. Amount is in Currency,
// which defaults to the order currency. Gift card payments are always in
// the card's currency; loyalty payments are priced from the points.
type PaymentRequest struct {
	Method           enum.PaymentMethod
	Amount           decimal.Decimal
	Currency         string
	AmountReceived   *decimal.Decimal
	Reference        string
	GiftCardID       *uuid.UUID
	LoyaltyAccountID *uuid.UUID
	LoyaltyPoints    int64
}

// RefundRequest reverses part or all of a payment. Amount is in the
// payment's currency.
type RefundRequest struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
	Reason    string
	Override  *approval.Override
}

// ApplyPayment settles part or all of the balance due. Foreign currency is
// converted at the rate in force now; gift card and loyalty tenders debit
// their ledger in the same transaction.
func (s *OrderService) ApplyPayment(ctx context.Context, actor Actor, orderID uuid.UUID, req PaymentRequest) (*order.Order, order.Payment, error) {
	var paid order.Payment
	o, err := s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		o := u.order
		shiftID, err := paymentShift(u, actor, req.Method)
		if err != nil {
			return err
		}
		in := order.PaymentInput{
			ID:             uuid.New(),
			Method:         req.Method,
			Amount:         req.Amount,
			Currency:       money.NormalizeCurrency(req.Currency),
			AmountReceived: req.AmountReceived,
			Reference:      req.Reference,
			ShiftID:        shiftID,
			Actor:          actor.order(),
		}

		var card database.GiftCard
		switch req.Method {
		case enum.PaymentMethodGiftCard:
			if req.GiftCardID == nil {
				return order.ErrGiftCardRequired
			}
			card, err = u.store.GetGiftCardForUpdate(u.ctx, database.GetGiftCardParams{ID: *req.GiftCardID, TenantID: o.TenantID})
			if err != nil {
				return noRows(err, ErrGiftCardNotFound, "get gift card")
			}
			if !card.IsActive {
				return ErrGiftCardInactive
			}
			if in.Currency != "" && in.Currency != card.Currency {
				return ErrGiftCardCurrency
			}
			in.Currency = card.Currency
			in.GiftCardID = &card.ID
		case enum.PaymentMethodLoyaltyPoints:
			if req.LoyaltyAccountID == nil || req.LoyaltyPoints <= 0 {
				return order.ErrLoyaltyRequired
			}
			in.Amount = pointsInOrderCurrency(u, req.LoyaltyPoints)
			in.Currency = o.Currency
			in.LoyaltyAccount = req.LoyaltyAccountID
			in.LoyaltyPoints = req.LoyaltyPoints
		}

		if in.Currency != "" && in.Currency != o.Currency {
			rate, err := s.deps.Rates.Rate(u.ctx, o.TenantID, in.Currency, o.Currency, u.now)
			if err != nil {
				return err
			}
			in.ExchangeRate = rate
		}

		p, err := o.ApplyPayment(in, u.now)
		if err != nil {
			return err
		}
		switch p.Method {
		case enum.PaymentMethodGiftCard:
			e, err := ledger.Debit(money.FromNumeric(card.Balance), p.Amount, enum.LedgerEntryRedeem)
			if err != nil {
				return err
			}
			if err := writeGiftCardEntry(u, card.ID, e, &p.ID); err != nil {
				return err
			}
		case enum.PaymentMethodLoyaltyPoints:
			if err := postLoyalty(u, *p.LoyaltyAccountID, p.LoyaltyPoints, false, enum.LedgerEntryRedeem, &p.ID); err != nil {
				return err
			}
		}
		paid = p
		return nil
	})
	if err != nil {
		return nil, order.Payment{}, err
	}
	return o, paid, nil
}

// RefundPayment appends a reversing entry for a payment. Refunds always
// need a manager.
func (s *OrderService) RefundPayment(ctx context.Context, actor Actor, orderID uuid.UUID, req RefundRequest) (*order.Order, order.Payment, error) {
	if req.Reason == "" {
		return nil, order.Payment{}, order.ErrReasonRequired
	}
	var rev order.Payment
	o, err := s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		decision, err := s.deps.Gate.RequestRefund(u.ctx, actor.request(req.Override))
		if err != nil {
			return err
		}
		orig, err := u.order.Payment(req.PaymentID)
		if err != nil {
			return err
		}
		shiftID, err := paymentShift(u, actor, orig.Method)
		if err != nil {
			return err
		}
		r, err := u.order.Reverse(req.PaymentID, req.Amount, req.Reason, actor.order(), decision.ApprovedBy, shiftID, u.now)
		if err != nil {
			return err
		}
		rev = r
		return creditBack(u, r)
	})
	if err != nil {
		return nil, order.Payment{}, err
	}
	return o, rev, nil
}

// paymentShift is the shift a tender is booked to: the order's own, else the
// actor's open shift. Cash always needs one.
func paymentShift(u *unit, actor Actor, method enum.PaymentMethod) (*uuid.UUID, error) {
	if u.order.ShiftID != nil {
		return u.order.ShiftID, nil
	}
	id, err := orderShift(u.ctx, u.store, actor, nil)
	if err != nil {
		return nil, err
	}
	if id == nil && method == enum.PaymentMethodCash {
		return nil, ErrNoOpenShift
	}
	return id, nil
}

// RedeemLoyalty turns loyalty points into a discount on the order.
func (s *OrderService) RedeemLoyalty(ctx context.Context, actor Actor, orderID, accountID uuid.UUID, points int64) (*order.Order, error) {
	if points <= 0 {
		return nil, order.ErrInvalidPoints
	}
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		value := pointsInOrderCurrency(u, points)
		applied, err := u.order.ApplyLoyaltyDiscount(accountID, points, value, u.now)
		if err != nil {
			return err
		}
		if applied.LessThan(value) {
			return ErrLoyaltyExceeds
		}
		return postLoyalty(u, accountID, points, false, enum.LedgerEntryRedeem, nil)
	})
}

// VerifyGiftCard replays a gift card's ledger and checks it against the
// stored balance.
func (s *OrderService) VerifyGiftCard(ctx context.Context, actor Actor, cardID uuid.UUID) (decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	card, err := store.GetGiftCard(ctx, database.GetGiftCardParams{ID: cardID, TenantID: actor.TenantID})
	if err != nil {
		return decimal.Zero, noRows(err, ErrGiftCardNotFound, "get gift card")
	}
	rows, err := store.ListGiftCardTransactions(ctx, cardID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list gift card transactions: %w", err)
	}
	entries := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		entries[i] = ledger.Entry{
			Type:          enum.LedgerEntryType(r.EntryType),
			Delta:         money.FromNumeric(r.Delta),
			BalanceBefore: money.FromNumeric(r.BalanceBefore),
			BalanceAfter:  money.FromNumeric(r.BalanceAfter),
		}
	}
	balance := money.FromNumeric(card.Balance)
	if err := ledger.Verify(entries, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// VerifyLoyalty replays a loyalty account's ledger and checks it against
// the stored points balance.
func (s *OrderService) VerifyLoyalty(ctx context.Context, actor Actor, accountID uuid.UUID) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	acct, err := store.GetLoyaltyAccount(ctx, database.GetLoyaltyAccountParams{ID: accountID, TenantID: actor.TenantID})
	if err != nil {
		return 0, noRows(err, ErrLoyaltyNotFound, "get loyalty account")
	}
	rows, err := store.ListLoyaltyTransactions(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list loyalty transactions: %w", err)
	}
	entries := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		entries[i] = ledger.Entry{
			Type:          enum.LedgerEntryType(r.EntryType),
			Delta:         decimal.NewFromInt(r.Delta),
			BalanceBefore: decimal.NewFromInt(r.BalanceBefore),
			BalanceAfter:  decimal.NewFromInt(r.BalanceAfter),
		}
	}
	if err := ledger.Verify(entries, decimal.NewFromInt(acct.PointsBalance)); err != nil {
		return 0, err
	}
	return acct.PointsBalance, nil
}

// earnLoyalty credits points for an order that just became Paid.
func earnLoyalty(u *unit) error {
	o := u.order
	if o.LoyaltyAccountID == nil || o.LoyaltyPointsEarned > 0 {
		return nil
	}
	points := ledger.EarnedPoints(o.GrandTotalInBase(), money.FromNumeric(u.branch.LoyaltyEarnRate))
	if points == 0 {
		return nil
	}
	if err := postLoyalty(u, *o.LoyaltyAccountID, points, true, enum.LedgerEntryEarn, nil); err != nil {
		return err
	}
	return o.RecordLoyaltyEarn(points, u.now)
}

// creditBack returns a reversed gift card or loyalty payment to its ledger.
func creditBack(u *unit, rev order.Payment) error {
	switch {
	case rev.GiftCardID != nil:
		card, err := u.store.GetGiftCardForUpdate(u.ctx, database.GetGiftCardParams{ID: *rev.GiftCardID, TenantID: u.order.TenantID})
		if err != nil {
			return noRows(err, ErrGiftCardNotFound, "get gift card")
		}
		e, err := ledger.Credit(money.FromNumeric(card.Balance), rev.Amount.Neg(), enum.LedgerEntryRefund)
		if err != nil {
			return err
		}
		return writeGiftCardEntry(u, card.ID, e, &rev.ID)
	case rev.LoyaltyAccountID != nil && rev.LoyaltyPoints < 0:
		return postLoyalty(u, *rev.LoyaltyAccountID, -rev.LoyaltyPoints, true, enum.LedgerEntryRefund, &rev.ID)
	}
	return nil
}

func writeGiftCardEntry(u *unit, cardID uuid.UUID, e ledger.Entry, paymentID *uuid.UUID) error {
	err := u.store.UpdateGiftCardBalance(u.ctx, database.UpdateGiftCardBalanceParams{
		ID:      cardID,
		Balance: money.ToNumeric(e.BalanceAfter),
	})
	if err != nil {
		return fmt.Errorf("update gift card balance: %w", err)
	}
	orderID := u.order.ID
	err = u.store.CreateGiftCardTransaction(u.ctx, database.CreateGiftCardTransactionParams{
		GiftCardID:    cardID,
		OrderID:       toUUID(&orderID),
		PaymentID:     toUUID(paymentID),
		EntryType:     string(e.Type),
		Delta:         money.ToNumeric(e.Delta),
		BalanceBefore: money.ToNumeric(e.BalanceBefore),
		BalanceAfter:  money.ToNumeric(e.BalanceAfter),
		CreatedAt:     u.now,
	})
	if err != nil {
		return fmt.Errorf("create gift card transaction: %w", err)
	}
	return nil
}

// postLoyalty locks the account and credits or debits points.
func postLoyalty(u *unit, accountID uuid.UUID, points int64, credit bool, typ enum.LedgerEntryType, paymentID *uuid.UUID) error {
	acct, err := u.store.GetLoyaltyAccountForUpdate(u.ctx, database.GetLoyaltyAccountParams{ID: accountID, TenantID: u.order.TenantID})
	if err != nil {
		return noRows(err, ErrLoyaltyNotFound, "get loyalty account")
	}
	balance, amount := decimal.NewFromInt(acct.PointsBalance), decimal.NewFromInt(points)
	var e ledger.Entry
	if credit {
		e, err = ledger.Credit(balance, amount, typ)
	} else {
		e, err = ledger.Debit(balance, amount, typ)
	}
	if err != nil {
		return err
	}

	if err := u.store.UpdateLoyaltyBalance(u.ctx, database.UpdateLoyaltyBalanceParams{
		ID:            acct.ID,
		PointsBalance: e.BalanceAfter.IntPart(),
	}); err != nil {
		return fmt.Errorf("update loyalty balance: %w", err)
	}
	orderID := u.order.ID
	err = u.store.CreateLoyaltyTransaction(u.ctx, database.CreateLoyaltyTransactionParams{
		LoyaltyAccountID: acct.ID,
		OrderID:          toUUID(&orderID),
		PaymentID:        toUUID(paymentID),
		EntryType:        string(e.Type),
		Delta:            e.Delta.IntPart(),
		BalanceBefore:    e.BalanceBefore.IntPart(),
		BalanceAfter:     e.BalanceAfter.IntPart(),
		CreatedAt:        u.now,
	})
	if err != nil {
		return fmt.Errorf("create loyalty transaction: %w", err)
	}
	return nil
}

// pointsInOrderCurrency prices points. The point value is in the tenant
// base currency.
func pointsInOrderCurrency(u *unit, points int64) decimal.Decimal {
	inBase := ledger.PointsValue(points, money.FromNumeric(u.branch.LoyaltyPointValue))
	return money.Round(inBase.Div(u.order.ExchangeRateToBase), u.order.CurrencyDecimals)
}
