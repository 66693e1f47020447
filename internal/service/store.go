package service

import (
	"context"

	"github.com/dinerhq/pos-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStore defines the DB methods needed to load and save orders.
type OrderStore interface {
	GetNextOrderSeq(ctx context.Context, branchID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (int32, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) error
	UpdateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) error
	DeleteOrderLine(ctx context.Context, id uuid.UUID) error
	ListOrderLineModifiers(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineModifier, error)
	CreateOrderLineModifier(ctx context.Context, arg database.CreateOrderLineModifierParams) error
	ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]database.OrderPayment, error)
	CreateOrderPayment(ctx context.Context, arg database.CreateOrderPaymentParams) error
	ListOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error)
	CreateOrderStatusHistory(ctx context.Context, arg database.CreateOrderStatusHistoryParams) error
}

// CatalogStore reads branch configuration and catalog prices.
type CatalogStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (database.Tenant, error)
	GetBranch(ctx context.Context, arg database.GetBranchParams) (database.Branch, error)
	GetCurrency(ctx context.Context, code string) (database.Currency, error)
	GetMenuItemForOrder(ctx context.Context, arg database.GetMenuItemForOrderParams) (database.MenuItem, error)
	GetMenuItemSizeForOrder(ctx context.Context, id uuid.UUID) (database.MenuItemSize, error)
	GetModifierForOrder(ctx context.Context, id uuid.UUID) (database.Modifier, error)
}

// ShiftStore defines the DB methods needed by the shift register.
type ShiftStore interface {
	CreateShift(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error)
	GetShift(ctx context.Context, arg database.GetShiftParams) (database.Shift, error)
	GetShiftForUpdate(ctx context.Context, arg database.GetShiftParams) (database.Shift, error)
	GetShiftForShare(ctx context.Context, arg database.GetShiftParams) (database.Shift, error)
	GetOpenShift(ctx context.Context, arg database.GetOpenShiftParams) (database.Shift, error)
	CloseShift(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error)
	ListStaleShifts(ctx context.Context, arg database.ListStaleShiftsParams) ([]database.Shift, error)
	ListShiftCashPayments(ctx context.Context, shiftID pgtype.UUID) ([]database.ListShiftCashPaymentsRow, error)
}

// LedgerStore defines the DB methods for gift card and loyalty ledgers.
type LedgerStore interface {
	GetGiftCard(ctx context.Context, arg database.GetGiftCardParams) (database.GiftCard, error)
	GetGiftCardForUpdate(ctx context.Context, arg database.GetGiftCardParams) (database.GiftCard, error)
	UpdateGiftCardBalance(ctx context.Context, arg database.UpdateGiftCardBalanceParams) error
	CreateGiftCardTransaction(ctx context.Context, arg database.CreateGiftCardTransactionParams) error
	ListGiftCardTransactions(ctx context.Context, giftCardID uuid.UUID) ([]database.GiftCardTransaction, error)
	GetLoyaltyAccount(ctx context.Context, arg database.GetLoyaltyAccountParams) (database.LoyaltyAccount, error)
	GetLoyaltyAccountForUpdate(ctx context.Context, arg database.GetLoyaltyAccountParams) (database.LoyaltyAccount, error)
	UpdateLoyaltyBalance(ctx context.Context, arg database.UpdateLoyaltyBalanceParams) error
	CreateLoyaltyTransaction(ctx context.Context, arg database.CreateLoyaltyTransactionParams) error
	ListLoyaltyTransactions(ctx context.Context, loyaltyAccountID uuid.UUID) ([]database.LoyaltyTransaction, error)
}

// Store is everything the services read and write.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	OrderStore
	CatalogStore
	ShiftStore
	LedgerStore
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// QueriesStore is the production NewStore.
func QueriesStore(db database.DBTX) Store {
	return database.New(db)
}
