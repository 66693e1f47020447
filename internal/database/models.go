package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ApprovalRule struct {
	ID                                uuid.UUID      `json:"id"`
	TenantID                          uuid.UUID      `json:"tenant_id"`
	BranchID                          pgtype.UUID    `json:"branch_id"`
	Role                              pgtype.Text    `json:"role"`
	MaxDiscountPercentWithoutApproval pgtype.Numeric `json:"max_discount_percent_without_approval"`
	RequireManagerApprovalForVoid     bool           `json:"require_manager_approval_for_void"`
	CanVoidPaidInvoice                bool           `json:"can_void_paid_invoice"`
	CanChangePrice                    bool           `json:"can_change_price"`
}

type Branch struct {
	ID                   uuid.UUID      `json:"id"`
	TenantID             uuid.UUID      `json:"tenant_id"`
	Name                 string         `json:"name"`
	Currency             string         `json:"currency"`
	ServiceChargePercent pgtype.Numeric `json:"service_charge_percent"`
	TaxPercent           pgtype.Numeric `json:"tax_percent"`
	TaxBase              string         `json:"tax_base"`
	LoyaltyEarnRate      pgtype.Numeric `json:"loyalty_earn_rate"`
	LoyaltyPointValue    pgtype.Numeric `json:"loyalty_point_value"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
}

type Currency struct {
	Code     string `json:"code"`
	Decimals int16  `json:"decimals"`
}

type ExchangeRate struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	FromCurrency string         `json:"from_currency"`
	ToCurrency   string         `json:"to_currency"`
	Rate         pgtype.Numeric `json:"rate"`
	EffectiveAt  time.Time      `json:"effective_at"`
}

type GiftCard struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	Code      string         `json:"code"`
	Currency  string         `json:"currency"`
	Balance   pgtype.Numeric `json:"balance"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

type GiftCardTransaction struct {
	ID            uuid.UUID      `json:"id"`
	GiftCardID    uuid.UUID      `json:"gift_card_id"`
	OrderID       pgtype.UUID    `json:"order_id"`
	PaymentID     pgtype.UUID    `json:"payment_id"`
	EntryType     string         `json:"entry_type"`
	Delta         pgtype.Numeric `json:"delta"`
	BalanceBefore pgtype.Numeric `json:"balance_before"`
	BalanceAfter  pgtype.Numeric `json:"balance_after"`
	CreatedAt     time.Time      `json:"created_at"`
}

type LoyaltyAccount struct {
	ID            uuid.UUID   `json:"id"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	CustomerName  string      `json:"customer_name"`
	Phone         pgtype.Text `json:"phone"`
	PointsBalance int64       `json:"points_balance"`
	CreatedAt     time.Time   `json:"created_at"`
}

type LoyaltyTransaction struct {
	ID               uuid.UUID   `json:"id"`
	LoyaltyAccountID uuid.UUID   `json:"loyalty_account_id"`
	OrderID          pgtype.UUID `json:"order_id"`
	PaymentID        pgtype.UUID `json:"payment_id"`
	EntryType        string      `json:"entry_type"`
	Delta            int64       `json:"delta"`
	BalanceBefore    int64       `json:"balance_before"`
	BalanceAfter     int64       `json:"balance_after"`
	CreatedAt        time.Time   `json:"created_at"`
}

type MenuItem struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	BranchID  uuid.UUID      `json:"branch_id"`
	Name      string         `json:"name"`
	BasePrice pgtype.Numeric `json:"base_price"`
	IsActive  bool           `json:"is_active"`
}

type MenuItemSize struct {
	ID              uuid.UUID      `json:"id"`
	MenuItemID      uuid.UUID      `json:"menu_item_id"`
	Name            string         `json:"name"`
	PriceAdjustment pgtype.Numeric `json:"price_adjustment"`
	IsActive        bool           `json:"is_active"`
}

type Modifier struct {
	ID         uuid.UUID      `json:"id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	Price      pgtype.Numeric `json:"price"`
	IsActive   bool           `json:"is_active"`
}

type Order struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              uuid.UUID          `json:"tenant_id"`
	BranchID              uuid.UUID          `json:"branch_id"`
	ShiftID               pgtype.UUID        `json:"shift_id"`
	OrderSeq              int32              `json:"order_seq"`
	OrderNumber           string             `json:"order_number"`
	OrderType             string             `json:"order_type"`
	Currency              string             `json:"currency"`
	CurrencyDecimals      int16              `json:"currency_decimals"`
	ExchangeRateToBase    pgtype.Numeric     `json:"exchange_rate_to_base"`
	TableNumber           pgtype.Text        `json:"table_number"`
	DeliveryAddress       pgtype.Text        `json:"delivery_address"`
	Notes                 pgtype.Text        `json:"notes"`
	LoyaltyAccountID      pgtype.UUID        `json:"loyalty_account_id"`
	Status                string             `json:"status"`
	PaymentStatus         string             `json:"payment_status"`
	ServiceChargePercent  pgtype.Numeric     `json:"service_charge_percent"`
	TaxPercent            pgtype.Numeric     `json:"tax_percent"`
	TaxBase               string             `json:"tax_base"`
	BillDiscountType      pgtype.Text        `json:"bill_discount_type"`
	BillDiscountValue     pgtype.Numeric     `json:"bill_discount_value"`
	SubTotal              pgtype.Numeric     `json:"sub_total"`
	TotalLineDiscount     pgtype.Numeric     `json:"total_line_discount"`
	BillDiscountAmount    pgtype.Numeric     `json:"bill_discount_amount"`
	ServiceCharge         pgtype.Numeric     `json:"service_charge"`
	TaxableAmount         pgtype.Numeric     `json:"taxable_amount"`
	TaxAmount             pgtype.Numeric     `json:"tax_amount"`
	DeliveryFee           pgtype.Numeric     `json:"delivery_fee"`
	Tips                  pgtype.Numeric     `json:"tips"`
	LoyaltyDiscountAmount pgtype.Numeric     `json:"loyalty_discount_amount"`
	LoyaltyPointsRedeemed int64              `json:"loyalty_points_redeemed"`
	LoyaltyPointsEarned   int64              `json:"loyalty_points_earned"`
	GrandTotal            pgtype.Numeric     `json:"grand_total"`
	TotalPaid             pgtype.Numeric     `json:"total_paid"`
	BalanceDue            pgtype.Numeric     `json:"balance_due"`
	VoidedAt              pgtype.Timestamptz `json:"voided_at"`
	VoidReason            pgtype.Text        `json:"void_reason"`
	VoidBy                pgtype.UUID        `json:"void_by"`
	ApprovedVoidBy        pgtype.UUID        `json:"approved_void_by"`
	Version               int32              `json:"version"`
	CreatedBy             uuid.UUID          `json:"created_by"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	PaidAt                pgtype.Timestamptz `json:"paid_at"`
}

type OrderLine struct {
	ID                  uuid.UUID          `json:"id"`
	OrderID             uuid.UUID          `json:"order_id"`
	ItemID              uuid.UUID          `json:"item_id"`
	SizeID              pgtype.UUID        `json:"size_id"`
	Name                string             `json:"name"`
	Quantity            int32              `json:"quantity"`
	BaseUnitPrice       pgtype.Numeric     `json:"base_unit_price"`
	ModifiersExtraPrice pgtype.Numeric     `json:"modifiers_extra_price"`
	EffectiveUnitPrice  pgtype.Numeric     `json:"effective_unit_price"`
	DiscountType        pgtype.Text        `json:"discount_type"`
	DiscountValue       pgtype.Numeric     `json:"discount_value"`
	DiscountAmount      pgtype.Numeric     `json:"discount_amount"`
	LineGross           pgtype.Numeric     `json:"line_gross"`
	LineNet             pgtype.Numeric     `json:"line_net"`
	Notes               pgtype.Text        `json:"notes"`
	Status              string             `json:"status"`
	SentToKitchenAt     pgtype.Timestamptz `json:"sent_to_kitchen_at"`
	StartedAt           pgtype.Timestamptz `json:"started_at"`
	ReadyAt             pgtype.Timestamptz `json:"ready_at"`
	ServedAt            pgtype.Timestamptz `json:"served_at"`
	CancelledAt         pgtype.Timestamptz `json:"cancelled_at"`
	CreatedAt           time.Time          `json:"created_at"`
}

type OrderLineModifier struct {
	ID          uuid.UUID      `json:"id"`
	OrderLineID uuid.UUID      `json:"order_line_id"`
	ModifierID  uuid.UUID      `json:"modifier_id"`
	Name        string         `json:"name"`
	Quantity    int32          `json:"quantity"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
}

type OrderPayment struct {
	ID                    uuid.UUID      `json:"id"`
	OrderID               uuid.UUID      `json:"order_id"`
	Kind                  string         `json:"kind"`
	Method                string         `json:"method"`
	Amount                pgtype.Numeric `json:"amount"`
	Currency              string         `json:"currency"`
	ExchangeRate          pgtype.Numeric `json:"exchange_rate"`
	AmountInOrderCurrency pgtype.Numeric `json:"amount_in_order_currency"`
	AmountReceived        pgtype.Numeric `json:"amount_received"`
	ChangeAmount          pgtype.Numeric `json:"change_amount"`
	Reference             pgtype.Text    `json:"reference"`
	GiftCardID            pgtype.UUID    `json:"gift_card_id"`
	LoyaltyAccountID      pgtype.UUID    `json:"loyalty_account_id"`
	LoyaltyPoints         int64          `json:"loyalty_points"`
	ReversesPaymentID     pgtype.UUID    `json:"reverses_payment_id"`
	ShiftID               pgtype.UUID    `json:"shift_id"`
	ProcessedBy           uuid.UUID      `json:"processed_by"`
	ApprovedBy            pgtype.UUID    `json:"approved_by"`
	CreatedAt             time.Time      `json:"created_at"`
}

type OrderStatusHistory struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"order_id"`
	FromStatus pgtype.Text `json:"from_status"`
	ToStatus   string      `json:"to_status"`
	ActorID    uuid.UUID   `json:"actor_id"`
	Reason     pgtype.Text `json:"reason"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Shift struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	BranchID       uuid.UUID          `json:"branch_id"`
	CashierID      uuid.UUID          `json:"cashier_id"`
	Currency       string             `json:"currency"`
	Status         string             `json:"status"`
	OpeningCash    pgtype.Numeric     `json:"opening_cash"`
	ExpectedCash   pgtype.Numeric     `json:"expected_cash"`
	CountedCash    pgtype.Numeric     `json:"counted_cash"`
	CashDifference pgtype.Numeric     `json:"cash_difference"`
	OpenedAt       time.Time          `json:"opened_at"`
	ClosedAt       pgtype.Timestamptz `json:"closed_at"`
	ClosedBy       pgtype.UUID        `json:"closed_by"`
	CloseReason    pgtype.Text        `json:"close_reason"`
}

type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
}

type User struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  uuid.UUID   `json:"tenant_id"`
	BranchID  pgtype.UUID `json:"branch_id"`
	FullName  string      `json:"full_name"`
	Role      string      `json:"role"`
	PinHash   pgtype.Text `json:"pin_hash"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}
