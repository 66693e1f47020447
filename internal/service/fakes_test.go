package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/clock"
	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/events"
	"github.com/dinerhq/pos-api/internal/exchange"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// dbState is an in-memory copy of the tables the services touch.
type dbState struct {
	tenants    map[uuid.UUID]database.Tenant
	branches   map[uuid.UUID]database.Branch
	currencies map[string]database.Currency
	items      map[uuid.UUID]database.MenuItem
	sizes      map[uuid.UUID]database.MenuItemSize
	modifiers  map[uuid.UUID]database.Modifier
	orders     map[uuid.UUID]database.Order
	lines      []database.OrderLine
	lineMods   []database.OrderLineModifier
	payments   []database.OrderPayment
	history    []database.OrderStatusHistory
	shifts     map[uuid.UUID]database.Shift
	giftCards  map[uuid.UUID]database.GiftCard
	giftTx     []database.GiftCardTransaction
	loyalty    map[uuid.UUID]database.LoyaltyAccount
	loyaltyTx  []database.LoyaltyTransaction
}

func newDBState() *dbState {
	return &dbState{
		tenants:    map[uuid.UUID]database.Tenant{},
		branches:   map[uuid.UUID]database.Branch{},
		currencies: map[string]database.Currency{},
		items:      map[uuid.UUID]database.MenuItem{},
		sizes:      map[uuid.UUID]database.MenuItemSize{},
		modifiers:  map[uuid.UUID]database.Modifier{},
		orders:     map[uuid.UUID]database.Order{},
		shifts:     map[uuid.UUID]database.Shift{},
		giftCards:  map[uuid.UUID]database.GiftCard{},
		loyalty:    map[uuid.UUID]database.LoyaltyAccount{},
	}
}

func (s *dbState) clone() *dbState {
	return &dbState{
		tenants:    maps.Clone(s.tenants),
		branches:   maps.Clone(s.branches),
		currencies: maps.Clone(s.currencies),
		items:      maps.Clone(s.items),
		sizes:      maps.Clone(s.sizes),
		modifiers:  maps.Clone(s.modifiers),
		orders:     maps.Clone(s.orders),
		lines:      slices.Clone(s.lines),
		lineMods:   slices.Clone(s.lineMods),
		payments:   slices.Clone(s.payments),
		history:    slices.Clone(s.history),
		shifts:     maps.Clone(s.shifts),
		giftCards:  maps.Clone(s.giftCards),
		giftTx:     slices.Clone(s.giftTx),
		loyalty:    maps.Clone(s.loyalty),
		loyaltyTx:  slices.Clone(s.loyaltyTx),
	}
}

// fakeDB hands out one transaction at a time. A transaction works on a
// copy of the state that replaces it on commit and is dropped on rollback.
type fakeDB struct {
	mu       sync.Mutex
	state    *dbState
	beginErr error
	fail     map[string][]error
	// afterLock runs inside GetOrderForUpdate, before the row is returned.
	afterLock func(st *dbState, id uuid.UUID)
	commits   int
	// shiftLocks records the row lock mode of every shift read.
	shiftLocks []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{state: newDBState(), fail: map[string][]error{}}
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.mu.Lock()
	return &fakeTx{db: db, work: db.state.clone()}, nil
}

// failNext makes the next calls to method return errs, one per call.
func (db *fakeDB) failNext(method string, errs ...error) {
	db.fail[method] = append(db.fail[method], errs...)
}

func (db *fakeDB) failure(method string) error {
	q := db.fail[method]
	if len(q) == 0 {
		return nil
	}
	db.fail[method] = q[1:]
	return q[0]
}

// snapshot returns the committed state. Only call it while no transaction
// is running.
func (db *fakeDB) snapshot() *dbState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state
}

func (db *fakeDB) newStore(dbtx database.DBTX) Store {
	return &fakeStore{db: db, st: dbtx.(*fakeTx).work}
}

// fakeTx implements pgx.Tx. Query methods panic; everything goes through
// fakeStore.
type fakeTx struct {
	db   *fakeDB
	work *dbState
	done bool
}

func (m *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *fakeTx) Commit(ctx context.Context) error {
	if m.done {
		return pgx.ErrTxClosed
	}
	if err := m.db.failure("Commit"); err != nil {
		m.done = true
		m.db.mu.Unlock()
		return err
	}
	m.done = true
	m.db.state = m.work
	m.db.commits++
	m.db.mu.Unlock()
	return nil
}
func (m *fakeTx) Rollback(ctx context.Context) error {
	if m.done {
		return pgx.ErrTxClosed
	}
	m.done = true
	m.db.mu.Unlock()
	return nil
}
func (m *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *fakeTx) Conn() *pgx.Conn { panic("not implemented") }

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// fakeStore implements Store over a transaction's working state.
type fakeStore struct {
	db *fakeDB
	st *dbState
}

func (s *fakeStore) GetNextOrderSeq(ctx context.Context, branchID uuid.UUID) (int32, error) {
	if err := s.db.failure("GetNextOrderSeq"); err != nil {
		return 0, err
	}
	var maxSeq int32
	for _, o := range s.st.orders {
		if o.BranchID == branchID && o.OrderSeq > maxSeq {
			maxSeq = o.OrderSeq
		}
	}
	return maxSeq + 1, nil
}

func (s *fakeStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := s.db.failure("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	for _, o := range s.st.orders {
		if o.BranchID == arg.BranchID && o.OrderNumber == arg.OrderNumber {
			return database.Order{}, uniqueViolation("orders_branch_id_order_number_key")
		}
	}
	row := database.Order{
		ID:                    arg.ID,
		TenantID:              arg.TenantID,
		BranchID:              arg.BranchID,
		ShiftID:               arg.ShiftID,
		OrderSeq:              arg.OrderSeq,
		OrderNumber:           arg.OrderNumber,
		OrderType:             arg.OrderType,
		Currency:              arg.Currency,
		CurrencyDecimals:      arg.CurrencyDecimals,
		ExchangeRateToBase:    arg.ExchangeRateToBase,
		TableNumber:           arg.TableNumber,
		DeliveryAddress:       arg.DeliveryAddress,
		Notes:                 arg.Notes,
		LoyaltyAccountID:      arg.LoyaltyAccountID,
		Status:                arg.Status,
		PaymentStatus:         arg.PaymentStatus,
		ServiceChargePercent:  arg.ServiceChargePercent,
		TaxPercent:            arg.TaxPercent,
		TaxBase:               arg.TaxBase,
		BillDiscountType:      arg.BillDiscountType,
		BillDiscountValue:     arg.BillDiscountValue,
		SubTotal:              arg.SubTotal,
		TotalLineDiscount:     arg.TotalLineDiscount,
		BillDiscountAmount:    arg.BillDiscountAmount,
		ServiceCharge:         arg.ServiceCharge,
		TaxableAmount:         arg.TaxableAmount,
		TaxAmount:             arg.TaxAmount,
		DeliveryFee:           arg.DeliveryFee,
		Tips:                  arg.Tips,
		LoyaltyDiscountAmount: arg.LoyaltyDiscountAmount,
		GrandTotal:            arg.GrandTotal,
		TotalPaid:             arg.TotalPaid,
		BalanceDue:            arg.BalanceDue,
		Version:               arg.Version,
		CreatedBy:             arg.CreatedBy,
		CreatedAt:             arg.CreatedAt,
		UpdatedAt:             arg.UpdatedAt,
	}
	s.st.orders[row.ID] = row
	return row, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := s.st.orders[arg.ID]
	if !ok || o.TenantID != arg.TenantID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *fakeStore) GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error) {
	if s.db.afterLock != nil {
		s.db.afterLock(s.st, arg.ID)
	}
	return s.GetOrder(ctx, database.GetOrderParams(arg))
}

func (s *fakeStore) UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (int32, error) {
	if err := s.db.failure("UpdateOrder"); err != nil {
		return 0, err
	}
	o, ok := s.st.orders[arg.ID]
	if !ok || o.Version != arg.Version {
		return 0, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.PaymentStatus = arg.PaymentStatus
	o.LoyaltyAccountID = arg.LoyaltyAccountID
	o.BillDiscountType = arg.BillDiscountType
	o.BillDiscountValue = arg.BillDiscountValue
	o.SubTotal = arg.SubTotal
	o.TotalLineDiscount = arg.TotalLineDiscount
	o.BillDiscountAmount = arg.BillDiscountAmount
	o.ServiceCharge = arg.ServiceCharge
	o.TaxableAmount = arg.TaxableAmount
	o.TaxAmount = arg.TaxAmount
	o.DeliveryFee = arg.DeliveryFee
	o.Tips = arg.Tips
	o.LoyaltyDiscountAmount = arg.LoyaltyDiscountAmount
	o.LoyaltyPointsRedeemed = arg.LoyaltyPointsRedeemed
	o.LoyaltyPointsEarned = arg.LoyaltyPointsEarned
	o.GrandTotal = arg.GrandTotal
	o.TotalPaid = arg.TotalPaid
	o.BalanceDue = arg.BalanceDue
	o.VoidedAt = arg.VoidedAt
	o.VoidReason = arg.VoidReason
	o.VoidBy = arg.VoidBy
	o.ApprovedVoidBy = arg.ApprovedVoidBy
	o.UpdatedAt = arg.UpdatedAt
	o.PaidAt = arg.PaidAt
	o.Version++
	s.st.orders[o.ID] = o
	return o.Version, nil
}

func (s *fakeStore) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error) {
	var out []database.OrderLine
	for _, l := range s.st.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func lineRow(arg database.CreateOrderLineParams) database.OrderLine {
	return database.OrderLine{
		ID:                  arg.ID,
		OrderID:             arg.OrderID,
		ItemID:              arg.ItemID,
		SizeID:              arg.SizeID,
		Name:                arg.Name,
		Quantity:            arg.Quantity,
		BaseUnitPrice:       arg.BaseUnitPrice,
		ModifiersExtraPrice: arg.ModifiersExtraPrice,
		EffectiveUnitPrice:  arg.EffectiveUnitPrice,
		DiscountType:        arg.DiscountType,
		DiscountValue:       arg.DiscountValue,
		DiscountAmount:      arg.DiscountAmount,
		LineGross:           arg.LineGross,
		LineNet:             arg.LineNet,
		Notes:               arg.Notes,
		Status:              arg.Status,
		SentToKitchenAt:     arg.SentToKitchenAt,
		StartedAt:           arg.StartedAt,
		ReadyAt:             arg.ReadyAt,
		ServedAt:            arg.ServedAt,
		CancelledAt:         arg.CancelledAt,
		CreatedAt:           arg.CreatedAt,
	}
}

func (s *fakeStore) CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) error {
	s.st.lines = append(s.st.lines, lineRow(arg))
	return nil
}

func (s *fakeStore) UpdateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) error {
	for i, l := range s.st.lines {
		if l.ID == arg.ID {
			s.st.lines[i] = lineRow(arg)
			return nil
		}
	}
	return nil
}

func (s *fakeStore) DeleteOrderLine(ctx context.Context, id uuid.UUID) error {
	s.st.lines = slices.DeleteFunc(s.st.lines, func(l database.OrderLine) bool { return l.ID == id })
	s.st.lineMods = slices.DeleteFunc(s.st.lineMods, func(m database.OrderLineModifier) bool { return m.OrderLineID == id })
	return nil
}

func (s *fakeStore) ListOrderLineModifiers(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineModifier, error) {
	ofOrder := map[uuid.UUID]bool{}
	for _, l := range s.st.lines {
		if l.OrderID == orderID {
			ofOrder[l.ID] = true
		}
	}
	var out []database.OrderLineModifier
	for _, m := range s.st.lineMods {
		if ofOrder[m.OrderLineID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateOrderLineModifier(ctx context.Context, arg database.CreateOrderLineModifierParams) error {
	s.st.lineMods = append(s.st.lineMods, database.OrderLineModifier(arg))
	return nil
}

func (s *fakeStore) ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]database.OrderPayment, error) {
	var out []database.OrderPayment
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateOrderPayment(ctx context.Context, arg database.CreateOrderPaymentParams) error {
	if err := s.db.failure("CreateOrderPayment"); err != nil {
		return err
	}
	s.st.payments = append(s.st.payments, database.OrderPayment(arg))
	return nil
}

func (s *fakeStore) ListOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error) {
	var out []database.OrderStatusHistory
	for _, h := range s.st.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateOrderStatusHistory(ctx context.Context, arg database.CreateOrderStatusHistoryParams) error {
	s.st.history = append(s.st.history, database.OrderStatusHistory(arg))
	return nil
}

func (s *fakeStore) GetTenant(ctx context.Context, id uuid.UUID) (database.Tenant, error) {
	t, ok := s.st.tenants[id]
	if !ok {
		return database.Tenant{}, pgx.ErrNoRows
	}
	return t, nil
}

func (s *fakeStore) GetBranch(ctx context.Context, arg database.GetBranchParams) (database.Branch, error) {
	b, ok := s.st.branches[arg.ID]
	if !ok || b.TenantID != arg.TenantID || !b.IsActive {
		return database.Branch{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *fakeStore) GetCurrency(ctx context.Context, code string) (database.Currency, error) {
	c, ok := s.st.currencies[code]
	if !ok {
		return database.Currency{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeStore) GetMenuItemForOrder(ctx context.Context, arg database.GetMenuItemForOrderParams) (database.MenuItem, error) {
	it, ok := s.st.items[arg.ID]
	if !ok || it.BranchID != arg.BranchID || !it.IsActive {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (s *fakeStore) GetMenuItemSizeForOrder(ctx context.Context, id uuid.UUID) (database.MenuItemSize, error) {
	sz, ok := s.st.sizes[id]
	if !ok || !sz.IsActive {
		return database.MenuItemSize{}, pgx.ErrNoRows
	}
	return sz, nil
}

func (s *fakeStore) GetModifierForOrder(ctx context.Context, id uuid.UUID) (database.Modifier, error) {
	m, ok := s.st.modifiers[id]
	if !ok || !m.IsActive {
		return database.Modifier{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *fakeStore) CreateShift(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error) {
	for _, sh := range s.st.shifts {
		if sh.BranchID == arg.BranchID && sh.CashierID == arg.CashierID && sh.Status == string(enum.ShiftStatusOpen) {
			return database.Shift{}, uniqueViolation("shifts_open_cashier_key")
		}
	}
	row := database.Shift{
		ID:          arg.ID,
		TenantID:    arg.TenantID,
		BranchID:    arg.BranchID,
		CashierID:   arg.CashierID,
		Currency:    arg.Currency,
		Status:      arg.Status,
		OpeningCash: arg.OpeningCash,
		OpenedAt:    arg.OpenedAt,
	}
	s.st.shifts[row.ID] = row
	return row, nil
}

func (s *fakeStore) GetShift(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
	sh, ok := s.st.shifts[arg.ID]
	if !ok || sh.TenantID != arg.TenantID {
		return database.Shift{}, pgx.ErrNoRows
	}
	return sh, nil
}

func (s *fakeStore) GetShiftForUpdate(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
	s.db.shiftLocks = append(s.db.shiftLocks, "update")
	return s.GetShift(ctx, arg)
}

func (s *fakeStore) GetShiftForShare(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
	s.db.shiftLocks = append(s.db.shiftLocks, "share")
	return s.GetShift(ctx, arg)
}

func (s *fakeStore) GetOpenShift(ctx context.Context, arg database.GetOpenShiftParams) (database.Shift, error) {
	for _, sh := range s.st.shifts {
		if sh.BranchID == arg.BranchID && sh.CashierID == arg.CashierID && sh.Status == string(enum.ShiftStatusOpen) {
			return sh, nil
		}
	}
	return database.Shift{}, pgx.ErrNoRows
}

func (s *fakeStore) CloseShift(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error) {
	sh, ok := s.st.shifts[arg.ID]
	if !ok || sh.Status != string(enum.ShiftStatusOpen) {
		return database.Shift{}, pgx.ErrNoRows
	}
	sh.Status = arg.Status
	sh.ExpectedCash = arg.ExpectedCash
	sh.CountedCash = arg.CountedCash
	sh.CashDifference = arg.CashDifference
	sh.ClosedAt = arg.ClosedAt
	sh.ClosedBy = arg.ClosedBy
	sh.CloseReason = arg.CloseReason
	s.st.shifts[sh.ID] = sh
	return sh, nil
}

func (s *fakeStore) ListStaleShifts(ctx context.Context, arg database.ListStaleShiftsParams) ([]database.Shift, error) {
	if err := s.db.failure("ListStaleShifts"); err != nil {
		return nil, err
	}
	var out []database.Shift
	for _, sh := range s.st.shifts {
		if sh.Status == string(enum.ShiftStatusOpen) && sh.OpenedAt.Before(arg.OpenedBefore) {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	if len(out) > int(arg.Limit) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (s *fakeStore) ListShiftCashPayments(ctx context.Context, shiftID pgtype.UUID) ([]database.ListShiftCashPaymentsRow, error) {
	var out []database.ListShiftCashPaymentsRow
	for _, p := range s.st.payments {
		if p.ShiftID == shiftID && p.Method == string(enum.PaymentMethodCash) {
			out = append(out, database.ListShiftCashPaymentsRow{Currency: p.Currency, Amount: p.Amount})
		}
	}
	return out, nil
}

func (s *fakeStore) GetGiftCard(ctx context.Context, arg database.GetGiftCardParams) (database.GiftCard, error) {
	c, ok := s.st.giftCards[arg.ID]
	if !ok || c.TenantID != arg.TenantID {
		return database.GiftCard{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeStore) GetGiftCardForUpdate(ctx context.Context, arg database.GetGiftCardParams) (database.GiftCard, error) {
	return s.GetGiftCard(ctx, arg)
}

func (s *fakeStore) UpdateGiftCardBalance(ctx context.Context, arg database.UpdateGiftCardBalanceParams) error {
	c := s.st.giftCards[arg.ID]
	c.Balance = arg.Balance
	s.st.giftCards[arg.ID] = c
	return nil
}

func (s *fakeStore) CreateGiftCardTransaction(ctx context.Context, arg database.CreateGiftCardTransactionParams) error {
	s.st.giftTx = append(s.st.giftTx, database.GiftCardTransaction{
		ID:            uuid.New(),
		GiftCardID:    arg.GiftCardID,
		OrderID:       arg.OrderID,
		PaymentID:     arg.PaymentID,
		EntryType:     arg.EntryType,
		Delta:         arg.Delta,
		BalanceBefore: arg.BalanceBefore,
		BalanceAfter:  arg.BalanceAfter,
		CreatedAt:     arg.CreatedAt,
	})
	return nil
}

func (s *fakeStore) ListGiftCardTransactions(ctx context.Context, giftCardID uuid.UUID) ([]database.GiftCardTransaction, error) {
	var out []database.GiftCardTransaction
	for _, t := range s.st.giftTx {
		if t.GiftCardID == giftCardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) GetLoyaltyAccount(ctx context.Context, arg database.GetLoyaltyAccountParams) (database.LoyaltyAccount, error) {
	a, ok := s.st.loyalty[arg.ID]
	if !ok || a.TenantID != arg.TenantID {
		return database.LoyaltyAccount{}, pgx.ErrNoRows
	}
	return a, nil
}

func (s *fakeStore) GetLoyaltyAccountForUpdate(ctx context.Context, arg database.GetLoyaltyAccountParams) (database.LoyaltyAccount, error) {
	return s.GetLoyaltyAccount(ctx, arg)
}

func (s *fakeStore) UpdateLoyaltyBalance(ctx context.Context, arg database.UpdateLoyaltyBalanceParams) error {
	a := s.st.loyalty[arg.ID]
	a.PointsBalance = arg.PointsBalance
	s.st.loyalty[arg.ID] = a
	return nil
}

func (s *fakeStore) CreateLoyaltyTransaction(ctx context.Context, arg database.CreateLoyaltyTransactionParams) error {
	s.st.loyaltyTx = append(s.st.loyaltyTx, database.LoyaltyTransaction{
		ID:               uuid.New(),
		LoyaltyAccountID: arg.LoyaltyAccountID,
		OrderID:          arg.OrderID,
		PaymentID:        arg.PaymentID,
		EntryType:        arg.EntryType,
		Delta:            arg.Delta,
		BalanceBefore:    arg.BalanceBefore,
		BalanceAfter:     arg.BalanceAfter,
		CreatedAt:        arg.CreatedAt,
	})
	return nil
}

func (s *fakeStore) ListLoyaltyTransactions(ctx context.Context, loyaltyAccountID uuid.UUID) ([]database.LoyaltyTransaction, error) {
	var out []database.LoyaltyTransaction
	for _, t := range s.st.loyaltyTx {
		if t.LoyaltyAccountID == loyaltyAccountID {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeRates converts with fixed rates keyed by "FROM>TO".
type fakeRates map[string]decimal.Decimal

func (r fakeRates) Rate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r[from+">"+to]
	if !ok {
		return decimal.Zero, exchange.ErrRateNotFound
	}
	return rate, nil
}

// fakeRules is an approval.RuleSource returning fixed rules.
type fakeRules []approval.Rule

func (r fakeRules) ListApprovalRules(ctx context.Context, tenantID uuid.UUID) ([]approval.Rule, error) {
	return r, nil
}

// fakePINs accepts pin "1234" for any user listed as a manager.
type fakePINs map[uuid.UUID]enum.Role

func (p fakePINs) Verify(ctx context.Context, tenantID, userID uuid.UUID, pin string) (enum.Role, error) {
	role, ok := p[userID]
	if !ok || pin != "1234" {
		return "", approval.ErrInvalidPIN
	}
	return role, nil
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, ev events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// --- Test fixture ---

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func num(s string) pgtype.Numeric { return money.ToNumeric(d(s)) }

// fixture is one tenant with one USD branch, a small menu, a cashier with
// an open shift and a manager.
type fixture struct {
	db      *fakeDB
	clock   *clock.Manual
	events  *recorder
	orders  *OrderService
	shifts  *ShiftService
	tenant  uuid.UUID
	branch  uuid.UUID
	shift   uuid.UUID
	cashier Actor
	manager Actor
	burger  uuid.UUID
	steak   uuid.UUID
	large   uuid.UUID
	cheese  uuid.UUID
	card    uuid.UUID
	account uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      newFakeDB(),
		clock:   clock.NewManual(t0),
		events:  &recorder{},
		tenant:  uuid.New(),
		branch:  uuid.New(),
		shift:   uuid.New(),
		burger:  uuid.New(),
		steak:   uuid.New(),
		large:   uuid.New(),
		cheese:  uuid.New(),
		card:    uuid.New(),
		account: uuid.New(),
	}
	f.cashier = Actor{TenantID: f.tenant, BranchID: f.branch, UserID: uuid.New(), Role: enum.RoleCashier}
	f.manager = Actor{TenantID: f.tenant, BranchID: f.branch, UserID: uuid.New(), Role: enum.RoleManager}

	st := f.db.state
	st.tenants[f.tenant] = database.Tenant{ID: f.tenant, Name: "Diner", BaseCurrency: "USD"}
	st.branches[f.branch] = database.Branch{
		ID:                   f.branch,
		TenantID:             f.tenant,
		Name:                 "Main",
		Currency:             "USD",
		ServiceChargePercent: num("0"),
		TaxPercent:           num("5"),
		TaxBase:              string(enum.TaxBaseNet),
		LoyaltyEarnRate:      num("1"),
		LoyaltyPointValue:    num("0.01"),
		IsActive:             true,
	}
	st.currencies["USD"] = database.Currency{Code: "USD", Decimals: 2}
	st.currencies["EUR"] = database.Currency{Code: "EUR", Decimals: 2}
	st.currencies["JPY"] = database.Currency{Code: "JPY", Decimals: 0}
	st.items[f.burger] = database.MenuItem{ID: f.burger, TenantID: f.tenant, BranchID: f.branch, Name: "Burger", BasePrice: num("10"), IsActive: true}
	st.items[f.steak] = database.MenuItem{ID: f.steak, TenantID: f.tenant, BranchID: f.branch, Name: "Steak", BasePrice: num("15"), IsActive: true}
	st.sizes[f.large] = database.MenuItemSize{ID: f.large, MenuItemID: f.burger, Name: "Large", PriceAdjustment: num("2"), IsActive: true}
	st.modifiers[f.cheese] = database.Modifier{ID: f.cheese, MenuItemID: f.burger, Name: "Cheese", Price: num("1.5"), IsActive: true}
	st.shifts[f.shift] = database.Shift{
		ID:          f.shift,
		TenantID:    f.tenant,
		BranchID:    f.branch,
		CashierID:   f.cashier.UserID,
		Currency:    "USD",
		Status:      string(enum.ShiftStatusOpen),
		OpeningCash: num("100"),
		OpenedAt:    t0.Add(-time.Hour),
	}
	st.giftCards[f.card] = database.GiftCard{ID: f.card, TenantID: f.tenant, Code: "GC-1", Currency: "USD", Balance: num("10"), IsActive: true}
	st.loyalty[f.account] = database.LoyaltyAccount{ID: f.account, TenantID: f.tenant, CustomerName: "Ann", PointsBalance: 500}
	st.giftTx = append(st.giftTx, database.GiftCardTransaction{
		ID:            uuid.New(),
		GiftCardID:    f.card,
		EntryType:     string(enum.LedgerEntryIssue),
		Delta:         num("10"),
		BalanceBefore: num("0"),
		BalanceAfter:  num("10"),
		CreatedAt:     t0.Add(-24 * time.Hour),
	})
	st.loyaltyTx = append(st.loyaltyTx, database.LoyaltyTransaction{
		ID:               uuid.New(),
		LoyaltyAccountID: f.account,
		EntryType:        string(enum.LedgerEntryIssue),
		Delta:            500,
		BalanceBefore:    0,
		BalanceAfter:     500,
		CreatedAt:        t0.Add(-24 * time.Hour),
	})

	f.withRules(approval.Rule{
		MaxDiscountPercentWithoutApproval: d("10"),
		RequireManagerApprovalForVoid:     true,
		CanVoidPaidInvoice:                true,
	})
	return f
}

// withRules rebuilds the services around a single tenant-wide rule.
func (f *fixture) withRules(rule approval.Rule) {
	deps := Deps{
		Gate:   approval.NewGate(fakeRules{rule}, fakePINs{f.manager.UserID: enum.RoleManager}, time.Second),
		Rates:  fakeRates{"EUR>USD": d("1.10"), "USD>EUR": d("0.90"), "JPY>USD": d("0.0067"), "USD>JPY": d("150")},
		Events: f.events,
		Clock:  f.clock,
	}
	f.orders = NewOrderService(f.db, f.db.newStore, deps, "A")
	f.shifts = NewShiftService(f.db, f.db.newStore, deps)
}
