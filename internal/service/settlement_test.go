package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/ledger"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/google/uuid"
)

func TestApplyPayment_CashSettlesServedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger), f.line(f.steak))
	if _, err := f.orders.RequestDiscount(ctx, f.cashier, o.ID, DiscountRequest{
		Discount: pricing.Discount{Type: enum.DiscountTypePercentage, Value: d("10")},
	}); err != nil {
		t.Fatalf("discount: %v", err)
	}
	f.serve(t, o.ID)

	received := d("30")
	o, p, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{
		Method:         enum.PaymentMethodCash,
		Amount:         d("23.63"),
		AmountReceived: &received,
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if o.Status != enum.OrderStatusPaid {
		t.Errorf("expected PAID, got %s", o.Status)
	}
	if o.PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("expected payment status PAID, got %s", o.PaymentStatus)
	}
	if !o.BalanceDue.IsZero() {
		t.Errorf("expected zero balance, got %s", o.BalanceDue)
	}
	if p.ChangeAmount == nil || !p.ChangeAmount.Equal(d("6.37")) {
		t.Errorf("expected change 6.37, got %v", p.ChangeAmount)
	}
	if p.ShiftID == nil || *p.ShiftID != f.shift {
		t.Errorf("expected payment on the order's shift")
	}
	if o.PaidAt == nil {
		t.Errorf("expected paid_at set")
	}
	if count(f.events.types(), events.OrderFinalized) != 1 {
		t.Errorf("expected order.finalized once, got %v", f.events.types())
	}

	_, _, err = f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCash, Amount: d("1")})
	if !errors.Is(err, order.ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed on paid order, got %v", err)
	}
}

func TestApplyPayment_ExceedsBalance(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, f.line(f.burger))
	_, _, err := f.orders.ApplyPayment(context.Background(), f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCard, Amount: d("11")})
	if !errors.Is(err, order.ErrPaymentExceedsBalance) {
		t.Fatalf("expected ErrPaymentExceedsBalance, got %v", err)
	}
}

func TestApplyPayment_ForeignCurrency(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, f.line(f.burger), f.line(f.steak)) // 26.25

	o, p, err := f.orders.ApplyPayment(context.Background(), f.cashier, o.ID, PaymentRequest{
		Method:   enum.PaymentMethodCash,
		Amount:   d("10"),
		Currency: "eur",
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if p.Currency != "EUR" || !p.ExchangeRate.Equal(d("1.10")) {
		t.Errorf("expected EUR at 1.10, got %s at %s", p.Currency, p.ExchangeRate)
	}
	if !p.AmountInOrderCurrency.Equal(d("11")) {
		t.Errorf("expected 11.00 applied, got %s", p.AmountInOrderCurrency)
	}
	if !o.BalanceDue.Equal(d("15.25")) {
		t.Errorf("expected balance 15.25, got %s", o.BalanceDue)
	}
	if o.PaymentStatus != enum.PaymentStatusPartiallyPaid {
		t.Errorf("expected PARTIALLY_PAID, got %s", o.PaymentStatus)
	}
}

func TestApplyPayment_MissingRate(t *testing.T) {
	f := newFixture(t)
	f.db.state.currencies["GBP"] = f.db.state.currencies["USD"]
	o := f.createOrder(t, f.line(f.burger))
	_, _, err := f.orders.ApplyPayment(context.Background(), f.cashier, o.ID, PaymentRequest{
		Method:   enum.PaymentMethodCash,
		Amount:   d("5"),
		Currency: "GBP",
	})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable for missing rate, got %v", err)
	}
}

func TestVoidOrder_SettledDraftIsAPaidInvoice(t *testing.T) {
	f := newFixture(t)
	f.withRules(approval.Rule{RequireManagerApprovalForVoid: false, CanVoidPaidInvoice: false})
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger)) // 10.50

	o, _, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCash, Amount: d("10.50")})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if o.Status != enum.OrderStatusDraft || o.PaymentStatus != enum.PaymentStatusPaid {
		t.Fatalf("expected a settled DRAFT order, got %s/%s", o.Status, o.PaymentStatus)
	}

	_, err = f.orders.VoidOrder(ctx, f.cashier, o.ID, "walked out", nil)
	if !errors.Is(err, approval.ErrPaidVoidForbidden) || !errors.Is(err, apperr.ErrApprovalRequired) {
		t.Fatalf("expected paid invoice void refused, got %v", err)
	}
	if got, _ := f.orders.GetOrder(ctx, f.cashier, o.ID); got.Status == enum.OrderStatusVoided {
		t.Fatalf("order must not be voided")
	}
}

func TestTransition_ServedAfterFullPaymentIsPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger))

	if _, _, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCard, Amount: d("10.50")}); err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	var err error
	for _, to := range []enum.OrderStatus{
		enum.OrderStatusSentToKitchen,
		enum.OrderStatusInPreparation,
		enum.OrderStatusReady,
		enum.OrderStatusServed,
	} {
		if o, err = f.orders.Transition(ctx, f.cashier, o.ID, to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if o.Status != enum.OrderStatusPaid {
		t.Fatalf("expected PAID once served, got %s", o.Status)
	}
	if o.PaidAt == nil {
		t.Errorf("expected paid_at set")
	}
	if count(f.events.types(), events.OrderFinalized) != 1 {
		t.Errorf("expected order.finalized once, got %v", f.events.types())
	}
}

func TestGiftCard_RedeemRefundVoid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger), f.line(f.steak)) // 26.25

	o, p, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{
		Method:     enum.PaymentMethodGiftCard,
		Amount:     d("10"),
		GiftCardID: &f.card,
	})
	if err != nil {
		t.Fatalf("gift card payment: %v", err)
	}
	if got := money.FromNumeric(f.db.snapshot().giftCards[f.card].Balance); !got.IsZero() {
		t.Errorf("expected card drained, got %s", got)
	}

	// The card is empty now.
	_, _, err = f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{
		Method:     enum.PaymentMethodGiftCard,
		Amount:     d("5"),
		GiftCardID: &f.card,
	})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !errors.Is(err, apperr.ErrInsufficientBalance) {
		t.Errorf("expected insufficient balance kind, got %v", err)
	}
	if n := len(f.db.snapshot().payments); n != 1 {
		t.Errorf("expected the failed payment rolled back, got %d payments", n)
	}

	_, _, err = f.orders.RefundPayment(ctx, f.cashier, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("4"), Reason: "wrong card"})
	if !errors.Is(err, approval.ErrApprovalRequired) {
		t.Fatalf("expected refund to need approval, got %v", err)
	}
	_, rev, err := f.orders.RefundPayment(ctx, f.manager, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("4"), Reason: "wrong card"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !rev.Amount.Equal(d("-4")) || rev.ApprovedBy == nil {
		t.Errorf("expected approved reversal of -4, got %s", rev.Amount)
	}
	balance, err := f.orders.VerifyGiftCard(ctx, f.cashier, f.card)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !balance.Equal(d("4")) {
		t.Errorf("expected card balance 4, got %s", balance)
	}

	o, err = f.orders.VoidOrder(ctx, f.manager, o.ID, "customer complaint", nil)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if !o.TotalPaid.IsZero() {
		t.Errorf("expected nothing paid after void, got %s", o.TotalPaid)
	}
	balance, err = f.orders.VerifyGiftCard(ctx, f.cashier, f.card)
	if err != nil {
		t.Fatalf("verify after void: %v", err)
	}
	if !balance.Equal(d("10")) {
		t.Errorf("expected card restored to 10, got %s", balance)
	}

	st := f.db.snapshot()
	want := []enum.LedgerEntryType{enum.LedgerEntryIssue, enum.LedgerEntryRedeem, enum.LedgerEntryRefund, enum.LedgerEntryRefund}
	if len(st.giftTx) != len(want) {
		t.Fatalf("expected %d ledger entries, got %d", len(want), len(st.giftTx))
	}
	for i, e := range st.giftTx {
		if e.EntryType != string(want[i]) {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.EntryType)
		}
		if i > 0 && (!e.PaymentID.Valid || !e.OrderID.Valid) {
			t.Errorf("entry %d: expected order and payment references", i)
		}
	}
}

func TestGiftCard_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger))

	tests := []struct {
		name  string
		setup func()
		req   PaymentRequest
		want  error
	}{
		{
			name: "missing card",
			req:  PaymentRequest{Method: enum.PaymentMethodGiftCard, Amount: d("1")},
			want: order.ErrGiftCardRequired,
		},
		{
			name: "unknown card",
			req:  PaymentRequest{Method: enum.PaymentMethodGiftCard, Amount: d("1"), GiftCardID: ptr(uuid.New())},
			want: ErrGiftCardNotFound,
		},
		{
			name: "other currency",
			req:  PaymentRequest{Method: enum.PaymentMethodGiftCard, Amount: d("1"), Currency: "EUR", GiftCardID: &f.card},
			want: ErrGiftCardCurrency,
		},
		{
			name: "inactive card",
			setup: func() {
				c := f.db.state.giftCards[f.card]
				c.IsActive = false
				f.db.state.giftCards[f.card] = c
			},
			req:  PaymentRequest{Method: enum.PaymentMethodGiftCard, Amount: d("1"), GiftCardID: &f.card},
			want: ErrGiftCardInactive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, _, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRefundPayment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger))
	o, p, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCard, Amount: d("5")})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	_, _, err = f.orders.RefundPayment(ctx, f.manager, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("1")})
	if !errors.Is(err, order.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	_, _, err = f.orders.RefundPayment(ctx, f.manager, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("6"), Reason: "x"})
	if !errors.Is(err, order.ErrReversalExceeds) {
		t.Fatalf("expected ErrReversalExceeds, got %v", err)
	}
	o, _, err = f.orders.RefundPayment(ctx, f.manager, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("5"), Reason: "x"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !o.BalanceDue.Equal(d("10.5")) {
		t.Errorf("expected balance restored to 10.50, got %s", o.BalanceDue)
	}
}

func TestLoyalty_RedeemAsDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger)) // 10.50

	o, err := f.orders.RedeemLoyalty(ctx, f.cashier, o.ID, f.account, 100)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !o.LoyaltyDiscountAmount.Equal(d("1")) {
		t.Errorf("expected loyalty discount 1.00, got %s", o.LoyaltyDiscountAmount)
	}
	if !o.Payable().Equal(d("9.5")) {
		t.Errorf("expected payable 9.50, got %s", o.Payable())
	}
	if got := f.db.snapshot().loyalty[f.account].PointsBalance; got != 400 {
		t.Errorf("expected 400 points left, got %d", got)
	}

	_, err = f.orders.RedeemLoyalty(ctx, f.cashier, o.ID, f.account, 50)
	if !errors.Is(err, order.ErrLoyaltyRedeemed) {
		t.Fatalf("expected ErrLoyaltyRedeemed, got %v", err)
	}

	// 5000 points are worth more than a fresh order; nothing is taken.
	other := f.createOrder(t, f.line(f.burger))
	_, err = f.orders.RedeemLoyalty(ctx, f.cashier, other.ID, f.account, 5000)
	if !errors.Is(err, ErrLoyaltyExceeds) {
		t.Fatalf("expected ErrLoyaltyExceeds, got %v", err)
	}
	if got := f.db.snapshot().loyalty[f.account].PointsBalance; got != 400 {
		t.Errorf("expected balance untouched, got %d", got)
	}

	if _, err := f.orders.RedeemLoyalty(ctx, f.cashier, other.ID, f.account, 0); !errors.Is(err, order.ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints, got %v", err)
	}
}

func TestLoyalty_PaymentAndRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger))

	o, p, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{
		Method:           enum.PaymentMethodLoyaltyPoints,
		LoyaltyAccountID: &f.account,
		LoyaltyPoints:    200,
	})
	if err != nil {
		t.Fatalf("loyalty payment: %v", err)
	}
	if !p.Amount.Equal(d("2")) || p.LoyaltyPoints != 200 {
		t.Errorf("expected 200 points for 2.00, got %d for %s", p.LoyaltyPoints, p.Amount)
	}
	if got := f.db.snapshot().loyalty[f.account].PointsBalance; got != 300 {
		t.Errorf("expected 300 points, got %d", got)
	}

	_, _, err = f.orders.RefundPayment(ctx, f.manager, o.ID, RefundRequest{PaymentID: p.ID, Amount: d("2"), Reason: "changed mind"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	points, err := f.orders.VerifyLoyalty(ctx, f.cashier, f.account)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if points != 500 {
		t.Errorf("expected 500 points after refund, got %d", points)
	}
}

func TestLoyalty_EarnOnPaidAndTakeBackOnVoid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.cashier, CreateOrderRequest{
		Type:             enum.OrderTypeTakeaway,
		LoyaltyAccountID: &f.account,
		Lines:            []LineRequest{f.line(f.burger), f.line(f.steak)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.serve(t, o.ID)

	o, _, err = f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{Method: enum.PaymentMethodCard, Amount: d("26.25")})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if o.Status != enum.OrderStatusPaid {
		t.Fatalf("expected PAID, got %s", o.Status)
	}
	if o.LoyaltyPointsEarned != 26 {
		t.Errorf("expected 26 points earned, got %d", o.LoyaltyPointsEarned)
	}
	if got := f.db.snapshot().loyalty[f.account].PointsBalance; got != 526 {
		t.Errorf("expected 526 points, got %d", got)
	}

	if _, err := f.orders.VoidOrder(ctx, f.manager, o.ID, "chargeback", nil); err != nil {
		t.Fatalf("void paid order: %v", err)
	}
	points, err := f.orders.VerifyLoyalty(ctx, f.manager, f.account)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if points != 500 {
		t.Errorf("expected earned points taken back, got %d", points)
	}
}

func TestLoyalty_UnknownAccountOnCreate(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.CreateOrder(context.Background(), f.cashier, CreateOrderRequest{
		Type:             enum.OrderTypeTakeaway,
		LoyaltyAccountID: ptr(uuid.New()),
	})
	if !errors.Is(err, ErrLoyaltyNotFound) {
		t.Fatalf("expected ErrLoyaltyNotFound, got %v", err)
	}
}

func TestVerifyGiftCard_DetectsTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, f.line(f.burger))
	if _, _, err := f.orders.ApplyPayment(ctx, f.cashier, o.ID, PaymentRequest{
		Method:     enum.PaymentMethodGiftCard,
		Amount:     d("3"),
		GiftCardID: &f.card,
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	c := f.db.state.giftCards[f.card]
	c.Balance = num("99")
	f.db.state.giftCards[f.card] = c

	_, err := f.orders.VerifyGiftCard(ctx, f.cashier, f.card)
	if !errors.Is(err, ledger.ErrBrokenChain) {
		t.Fatalf("expected ErrBrokenChain, got %v", err)
	}
}
