package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/dinerhq/pos-api/internal/shift"
	"github.com/dinerhq/pos-api/internal/view"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrAlreadyVoided is returned for any change to a voided order.
var ErrAlreadyVoided = fmt.Errorf("%w: order is voided", apperr.ErrIllegalTransition)

// LineRequest is a catalog selection to add to an order.
type LineRequest struct {
	ItemID    uuid.UUID
	SizeID    *uuid.UUID
	Quantity  int32
	Notes     string
	Discount  pricing.Discount
	Modifiers []ModifierRequest
}

// ModifierRequest is a modifier on a line.
type ModifierRequest struct {
	ModifierID uuid.UUID
	Quantity   int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	Type             enum.OrderType
	Currency         string     // defaults to the branch currency
	ShiftID          *uuid.UUID // defaults to the caller's open shift, if any
	TableNumber      string
	DeliveryAddress  string
	Notes            string
	LoyaltyAccountID *uuid.UUID
	DeliveryFee      decimal.Decimal
	Lines            []LineRequest
	Override         *approval.Override
}

// UpdateLineRequest changes an unsent line. Nil fields are left alone.
// Changing the unit price is a price override and goes through approval.
type UpdateLineRequest struct {
	Quantity  *int32
	UnitPrice *decimal.Decimal
	Notes     *string
	Override  *approval.Override
}

// DiscountRequest sets or clears (zero Discount) a bill or line discount.
type DiscountRequest struct {
	LineID   *uuid.UUID
	Discount pricing.Discount
	Override *approval.Override
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewStore
	deps     Deps
	prefix   string
}

// NewOrderService creates a new OrderService. Order numbers are formatted
// as "<prefix>-<seq>" with seq counting per branch.
func NewOrderService(pool TxBeginner, newStore NewStore, deps Deps, numberPrefix string) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, deps: deps.withDefaults(), prefix: numberPrefix}
}

// unit is one mutation in progress.
type unit struct {
	ctx    context.Context
	store  Store
	order  *order.Order
	branch database.Branch
	now    time.Time
	// lines sent to the kitchen by this mutation
	sent []uuid.UUID
}

// CreateOrder creates a Draft order, optionally with initial lines. The
// order joins the requested shift or the caller's open one; without either
// it has no shift. Retries up to maxOrderNumberRetries times when a
// concurrent create took the same order number.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*order.Order, error) {
	if !req.Type.Valid() {
		return nil, order.ErrInvalidOrderType
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		o, err := s.createOrderTx(ctx, actor, req)
		if err == nil {
			s.afterCommit(ctx, o, "", nil)
			return o, nil
		}
		if isOrderNumberConflict(err) {
			s.deps.Log.Info("order number taken, retrying",
				zap.Stringer("branch_id", actor.BranchID), zap.Int("attempt", attempt+1))
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: allocate order number: %v", apperr.ErrConflict, lastErr)
}

func (s *OrderService) createOrderTx(ctx context.Context, actor Actor, req CreateOrderRequest) (*order.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.deps.Clock.Now()

	branch, err := store.GetBranch(ctx, database.GetBranchParams{ID: actor.BranchID, TenantID: actor.TenantID})
	if err != nil {
		return nil, noRows(err, ErrBranchNotFound, "get branch")
	}
	tenant, err := store.GetTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	shiftID, err := orderShift(ctx, store, actor, req.ShiftID)
	if err != nil {
		return nil, err
	}

	cur := money.NormalizeCurrency(req.Currency)
	if cur == "" {
		cur = branch.Currency
	}
	currency, err := store.GetCurrency(ctx, cur)
	if err != nil {
		return nil, noRows(err, order.ErrInvalidCurrency, "get currency")
	}
	rate, err := s.deps.Rates.Rate(ctx, actor.TenantID, currency.Code, tenant.BaseCurrency, now)
	if err != nil {
		return nil, err
	}
	if req.LoyaltyAccountID != nil {
		_, err := store.GetLoyaltyAccount(ctx, database.GetLoyaltyAccountParams{ID: *req.LoyaltyAccountID, TenantID: actor.TenantID})
		if err != nil {
			return nil, noRows(err, ErrLoyaltyNotFound, "get loyalty account")
		}
	}

	seq, err := store.GetNextOrderSeq(ctx, branch.ID)
	if err != nil {
		return nil, fmt.Errorf("get next order seq: %w", err)
	}

	o, err := order.New(order.NewParams{
		TenantID:           actor.TenantID,
		BranchID:           branch.ID,
		ShiftID:            shiftID,
		Number:             fmt.Sprintf("%s-%04d", s.prefix, seq),
		Type:               req.Type,
		Currency:           currency.Code,
		CurrencyDecimals:   int32(currency.Decimals),
		ExchangeRateToBase: rate,
		TableNumber:        req.TableNumber,
		DeliveryAddress:    req.DeliveryAddress,
		Notes:              req.Notes,
		LoyaltyAccountID:   req.LoyaltyAccountID,
		DeliveryFee:        req.DeliveryFee,
		Policy:             branchPolicy(branch),
		CreatedBy:          actor.order(),
	}, now)
	if err != nil {
		return nil, err
	}
	for i, lr := range req.Lines {
		if err := s.addLine(ctx, store, actor, o, lr, req.Override, now); err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, err)
		}
	}

	if err := insertOrder(ctx, store, o, seq); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	o.MarkSaved()
	return o, nil
}

// GetOrder returns an order of the actor's branch.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*order.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	o, err := loadOrder(ctx, s.newStore(tx), actor.TenantID, id, false)
	if err != nil {
		return nil, err
	}
	if o.BranchID != actor.BranchID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// AddLine appends a catalog selection to the order.
func (s *OrderService) AddLine(ctx context.Context, actor Actor, orderID uuid.UUID, req LineRequest, override *approval.Override) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		return s.addLine(u.ctx, u.store, actor, u.order, req, override, u.now)
	})
}

// UpdateLine changes quantity, price or notes of an unsent line.
func (s *OrderService) UpdateLine(ctx context.Context, actor Actor, orderID, lineID uuid.UUID, req UpdateLineRequest) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		if req.UnitPrice != nil {
			if _, err := s.deps.Gate.RequestPriceChange(u.ctx, actor.request(req.Override)); err != nil {
				return err
			}
		}
		before := measureDiscounts(u.order, lineID)
		if _, err := u.order.UpdateLine(lineID, order.LineUpdate{
			Quantity:      req.Quantity,
			BaseUnitPrice: req.UnitPrice,
			Notes:         req.Notes,
		}, u.now); err != nil {
			return err
		}
		return s.regateDiscounts(u, actor, req.Override, lineID, before)
	})
}

// RemoveLine deletes an unsent line or cancels one already in the kitchen.
// When that leaves a fixed bill discount over the approval limit, override
// must carry a manager co-sign.
func (s *OrderService) RemoveLine(ctx context.Context, actor Actor, orderID, lineID uuid.UUID, override *approval.Override) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		before := measureDiscounts(u.order, lineID)
		if _, err := u.order.RemoveLine(lineID, actor.order(), u.now); err != nil {
			return err
		}
		return s.regateDiscounts(u, actor, override, lineID, before)
	})
}

// SendToKitchen sends every new line to the kitchen.
func (s *OrderService) SendToKitchen(ctx context.Context, actor Actor, orderID uuid.UUID) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		sent, err := u.order.SendToKitchen(actor.order(), u.now)
		u.sent = sent
		return err
	})
}

// SetLineStatus records kitchen progress on a line. Kitchen updates are
// accepted even when the order's shift has been closed.
func (s *OrderService) SetLineStatus(ctx context.Context, actor Actor, orderID, lineID uuid.UUID, status enum.LineStatus) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, false, func(u *unit) error {
		_, err := u.order.SetLineStatus(lineID, status, actor.order(), u.now)
		return err
	})
}

// Transition moves the order to the next status by hand, e.g. to Served
// when the kitchen display is not used.
func (s *OrderService) Transition(ctx context.Context, actor Actor, orderID uuid.UUID, to enum.OrderStatus) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		if u.order.Status == enum.OrderStatusVoided {
			return ErrAlreadyVoided
		}
		if to == enum.OrderStatusSentToKitchen && u.order.Status == enum.OrderStatusDraft {
			sent, err := u.order.SendToKitchen(actor.order(), u.now)
			u.sent = sent
			return err
		}
		return u.order.Transition(to, actor.order(), u.now)
	})
}

// RequestDiscount sets a bill or line discount after clearing it with the
// approval gate. Fixed amounts are checked as the percent they represent.
func (s *OrderService) RequestDiscount(ctx context.Context, actor Actor, orderID uuid.UUID, req DiscountRequest) (*order.Order, error) {
	d := req.Discount
	if !d.IsZero() && !d.Type.Valid() {
		return nil, ErrInvalidDiscount
	}
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		o := u.order
		base := o.Totals.SubTotal.Sub(o.Totals.LineDiscount)
		if req.LineID != nil {
			l, err := o.Line(*req.LineID)
			if err != nil {
				return err
			}
			base = l.LineGross
		}
		if !d.IsZero() {
			if _, err := s.deps.Gate.RequestDiscount(u.ctx, actor.request(req.Override), discountPercent(d, base)); err != nil {
				return err
			}
		}
		if req.LineID != nil {
			_, err := o.SetLineDiscount(*req.LineID, d, u.now)
			return err
		}
		return o.SetBillDiscount(d, u.now)
	})
}

// SetFees replaces the delivery fee and tips.
func (s *OrderService) SetFees(ctx context.Context, actor Actor, orderID uuid.UUID, deliveryFee, tips decimal.Decimal) (*order.Order, error) {
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		return u.order.SetFees(deliveryFee, tips, u.now)
	})
}

// VoidOrder voids the order once the approval gate allows it. Standing
// payments are reversed and gift card and loyalty ledgers re-credited.
func (s *OrderService) VoidOrder(ctx context.Context, actor Actor, orderID uuid.UUID, reason string, override *approval.Override) (*order.Order, error) {
	if reason == "" {
		return nil, order.ErrReasonRequired
	}
	return s.mutate(ctx, actor, orderID, true, func(u *unit) error {
		o := u.order
		if o.Status == enum.OrderStatusVoided {
			return ErrAlreadyVoided
		}
		decision, err := s.deps.Gate.RequestVoid(u.ctx, actor.request(override), o.Status, o.PaymentStatus)
		if err != nil {
			return err
		}
		reversals, err := o.Void(reason, actor.order(), decision.ApprovedBy, u.now)
		if err != nil {
			return err
		}
		for _, rev := range reversals {
			if err := creditBack(u, rev); err != nil {
				return err
			}
		}
		if o.LoyaltyAccountID == nil {
			return nil
		}
		if o.LoyaltyPointsRedeemed > 0 {
			if err := postLoyalty(u, *o.LoyaltyAccountID, o.LoyaltyPointsRedeemed, true, enum.LedgerEntryRefund, nil); err != nil {
				return err
			}
		}
		if o.LoyaltyPointsEarned > 0 {
			if err := postLoyalty(u, *o.LoyaltyAccountID, o.LoyaltyPointsEarned, false, enum.LedgerEntryAdjust, nil); err != nil {
				return fmt.Errorf("take back earned points: %w", err)
			}
		}
		return nil
	})
}

// orderShift resolves the shift for new work: want if given, else the
// actor's open shift in the branch, else none. The shift is share-locked and
// must be open.
func orderShift(ctx context.Context, store ShiftStore, actor Actor, want *uuid.UUID) (*uuid.UUID, error) {
	if want == nil {
		sh, err := store.GetOpenShift(ctx, database.GetOpenShiftParams{BranchID: actor.BranchID, CashierID: actor.UserID})
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get open shift: %w", err)
		}
		want = &sh.ID
	}
	sh, err := store.GetShiftForShare(ctx, database.GetShiftParams{ID: *want, TenantID: actor.TenantID})
	if err != nil {
		return nil, noRows(err, ErrShiftNotFound, "get shift")
	}
	if sh.BranchID != actor.BranchID {
		return nil, ErrShiftNotFound
	}
	if sh.Status != string(enum.ShiftStatusOpen) {
		return nil, shift.ErrNotOpen
	}
	return &sh.ID, nil
}

// mutate runs fn against the locked order and saves the result in one
// transaction. When needShift is set the order's shift is share-locked and
// must still be open. Orders of one shift do not block each other, only a
// close does.
func (s *OrderService) mutate(ctx context.Context, actor Actor, orderID uuid.UUID, needShift bool, fn func(u *unit) error) (*order.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	o, err := loadOrder(ctx, store, actor.TenantID, orderID, true)
	if err != nil {
		return nil, err
	}
	if o.BranchID != actor.BranchID {
		return nil, ErrOrderNotFound
	}
	branch, err := store.GetBranch(ctx, database.GetBranchParams{ID: o.BranchID, TenantID: o.TenantID})
	if err != nil {
		return nil, noRows(err, ErrBranchNotFound, "get branch")
	}
	if needShift && o.ShiftID != nil {
		sh, err := store.GetShiftForShare(ctx, database.GetShiftParams{ID: *o.ShiftID, TenantID: o.TenantID})
		if err != nil {
			return nil, noRows(err, ErrShiftNotFound, "get shift")
		}
		if sh.Status != string(enum.ShiftStatusOpen) {
			return nil, shift.ErrNotOpen
		}
	}

	from := o.Status
	u := &unit{ctx: ctx, store: store, order: o, branch: branch, now: s.deps.Clock.Now()}
	if err := fn(u); err != nil {
		return nil, err
	}
	if from != enum.OrderStatusPaid && o.Status == enum.OrderStatusPaid {
		if err := earnLoyalty(u); err != nil {
			return nil, err
		}
	}

	if err := saveOrder(ctx, store, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	o.MarkSaved()
	s.afterCommit(ctx, o, from, u.sent)
	return o, nil
}

// afterCommit publishes the events for a saved order.
func (s *OrderService) afterCommit(ctx context.Context, o *order.Order, from enum.OrderStatus, sent []uuid.UUID) {
	v := view.FromOrder(o)
	ev := events.Event{
		Type:      events.OrderUpdated,
		TenantID:  o.TenantID,
		BranchID:  o.BranchID,
		SubjectID: o.ID,
		At:        o.UpdatedAt,
		Data:      v,
	}
	s.deps.publish(ctx, ev)

	if len(sent) > 0 {
		ticket := ev
		ticket.Type = events.KitchenTicket
		ticket.Data = view.Ticket(o, sent, o.UpdatedAt)
		s.deps.publish(ctx, ticket)
	}
	if o.Status != from && o.Status.Terminal() {
		final := ev
		final.Type = events.OrderFinalized
		s.deps.publish(ctx, final)
	}
}

// addLine resolves a catalog selection, clears any line discount with the
// gate and appends it to o.
func (s *OrderService) addLine(ctx context.Context, store CatalogStore, actor Actor, o *order.Order, req LineRequest, override *approval.Override, now time.Time) error {
	if !req.Discount.IsZero() && !req.Discount.Type.Valid() {
		return ErrInvalidDiscount
	}
	nl, err := resolveLine(ctx, store, o.BranchID, req)
	if err != nil {
		return err
	}
	if !req.Discount.IsZero() {
		gross := nl.BaseUnitPrice
		for _, m := range nl.Modifiers {
			gross = gross.Add(m.Extra())
		}
		gross = gross.Mul(decimal.NewFromInt32(nl.Quantity))
		if _, err := s.deps.Gate.RequestDiscount(ctx, actor.request(override), discountPercent(req.Discount, gross)); err != nil {
			return err
		}
	}
	_, err = o.AddLine(nl, now)
	return err
}

// resolveLine snapshots catalog prices for a selection.
func resolveLine(ctx context.Context, store CatalogStore, branchID uuid.UUID, req LineRequest) (order.NewLine, error) {
	item, err := store.GetMenuItemForOrder(ctx, database.GetMenuItemForOrderParams{ID: req.ItemID, BranchID: branchID})
	if err != nil {
		return order.NewLine{}, noRows(err, ErrItemNotFound, "get menu item")
	}
	nl := order.NewLine{
		ItemID:        item.ID,
		Name:          item.Name,
		Quantity:      req.Quantity,
		BaseUnitPrice: money.FromNumeric(item.BasePrice),
		Notes:         req.Notes,
		Discount:      req.Discount,
	}

	if req.SizeID != nil {
		size, err := store.GetMenuItemSizeForOrder(ctx, *req.SizeID)
		if err != nil {
			return order.NewLine{}, noRows(err, ErrSizeNotFound, "get size")
		}
		if size.MenuItemID != item.ID {
			return order.NewLine{}, ErrSizeMismatch
		}
		id := size.ID
		nl.SizeID = &id
		nl.Name = item.Name + " (" + size.Name + ")"
		nl.BaseUnitPrice = nl.BaseUnitPrice.Add(money.FromNumeric(size.PriceAdjustment))
	}

	for j, mr := range req.Modifiers {
		m, err := store.GetModifierForOrder(ctx, mr.ModifierID)
		if err != nil {
			return order.NewLine{}, fmt.Errorf("modifiers[%d]: %w", j, noRows(err, ErrModifierNotFound, "get modifier"))
		}
		if m.MenuItemID != item.ID {
			return order.NewLine{}, fmt.Errorf("modifiers[%d]: %w", j, ErrModifierMismatch)
		}
		nl.Modifiers = append(nl.Modifiers, order.Modifier{
			ModifierID: m.ID,
			Name:       m.Name,
			Quantity:   mr.Quantity,
			UnitPrice:  money.FromNumeric(m.Price),
		})
	}
	return nl, nil
}

// discountPercent expresses d as a percent of base. A fixed amount on an
// empty base counts as a full discount.
// discountLoad is the share of its base each fixed discount takes.
type discountLoad struct {
	bill decimal.Decimal
	line decimal.Decimal
}

func measureDiscounts(o *order.Order, lineID uuid.UUID) discountLoad {
	var dl discountLoad
	if o.BillDiscount.Type == enum.DiscountTypeFixed && !o.BillDiscount.IsZero() {
		dl.bill = discountPercent(o.BillDiscount, o.Totals.SubTotal.Sub(o.Totals.LineDiscount))
	}
	if l, err := o.Line(lineID); err == nil && l.Status.Active() &&
		l.Discount.Type == enum.DiscountTypeFixed && !l.Discount.IsZero() {
		dl.line = discountPercent(l.Discount, l.LineGross)
	}
	return dl
}

// regateDiscounts asks the gate again for every fixed discount whose base
// shrank under it.
func (s *OrderService) regateDiscounts(u *unit, actor Actor, override *approval.Override, lineID uuid.UUID, before discountLoad) error {
	after := measureDiscounts(u.order, lineID)
	for _, pct := range []struct{ was, now decimal.Decimal }{
		{before.bill, after.bill},
		{before.line, after.line},
	} {
		if !pct.now.GreaterThan(pct.was) {
			continue
		}
		if _, err := s.deps.Gate.RequestDiscount(u.ctx, actor.request(override), pct.now); err != nil {
			return err
		}
	}
	return nil
}

func discountPercent(d pricing.Discount, base decimal.Decimal) decimal.Decimal {
	if d.Type == enum.DiscountTypePercentage {
		return d.Value
	}
	if !base.IsPositive() {
		if d.Value.IsPositive() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return money.PercentOf(d.Value, base)
}

func branchPolicy(b database.Branch) pricing.Policy {
	return pricing.Policy{
		ServiceChargePercent: money.FromNumeric(b.ServiceChargePercent),
		TaxPercent:           money.FromNumeric(b.TaxPercent),
		TaxBase:              enum.TaxBase(b.TaxBase),
	}
}
