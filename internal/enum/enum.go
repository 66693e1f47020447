package enum

// ── Group A: State machines (CHECK constrained in DB) ──

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusDraft         OrderStatus = "DRAFT"
	OrderStatusSentToKitchen OrderStatus = "SENT_TO_KITCHEN"
	OrderStatusInPreparation OrderStatus = "IN_PREPARATION"
	OrderStatusReady         OrderStatus = "READY"
	OrderStatusServed        OrderStatus = "SERVED"
	OrderStatusPaid          OrderStatus = "PAID"
	OrderStatusVoided        OrderStatus = "VOIDED"
)

// orderForward is the forward graph. Voided is handled separately because
// it is reachable from every non-terminal status.
var orderForward = map[OrderStatus]OrderStatus{
	OrderStatusDraft:         OrderStatusSentToKitchen,
	OrderStatusSentToKitchen: OrderStatusInPreparation,
	OrderStatusInPreparation: OrderStatusReady,
	OrderStatusReady:         OrderStatusServed,
	OrderStatusServed:        OrderStatusPaid,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusSentToKitchen, OrderStatusInPreparation,
		OrderStatusReady, OrderStatusServed, OrderStatusPaid, OrderStatusVoided:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusVoided
}

// Rank orders statuses along the forward graph. Voided has no rank.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusDraft:
		return 0
	case OrderStatusSentToKitchen:
		return 1
	case OrderStatusInPreparation:
		return 2
	case OrderStatusReady:
		return 3
	case OrderStatusServed:
		return 4
	case OrderStatusPaid:
		return 5
	}
	return -1
}

// CanTransitionTo reports whether s → to is a single step on the forward
// graph or a void of a non-terminal order. Voiding a paid order is decided
// by the approval gate, not by this table.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if to == OrderStatusVoided {
		return true
	}
	return orderForward[s] == to
}

// Next returns the following status on the forward graph.
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := orderForward[s]
	return n, ok
}

// LineStatus is the kitchen status of a single order line.
type LineStatus string

const (
	LineStatusNew           LineStatus = "NEW"
	LineStatusSentToKitchen LineStatus = "SENT_TO_KITCHEN"
	LineStatusInProgress    LineStatus = "IN_PROGRESS"
	LineStatusReady         LineStatus = "READY"
	LineStatusServed        LineStatus = "SERVED"
	LineStatusCancelled     LineStatus = "CANCELLED"
)

var lineForward = map[LineStatus]LineStatus{
	LineStatusNew:           LineStatusSentToKitchen,
	LineStatusSentToKitchen: LineStatusInProgress,
	LineStatusInProgress:    LineStatusReady,
	LineStatusReady:         LineStatusServed,
}

// Valid reports whether s is a known line status.
func (s LineStatus) Valid() bool {
	switch s {
	case LineStatusNew, LineStatusSentToKitchen, LineStatusInProgress,
		LineStatusReady, LineStatusServed, LineStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the line still counts towards totals and kitchen work.
func (s LineStatus) Active() bool {
	return s != LineStatusCancelled
}

// CanTransitionTo reports whether the kitchen may move a line from s to to.
// A line can be cancelled until it has been served.
func (s LineStatus) CanTransitionTo(to LineStatus) bool {
	if s == LineStatusServed || s == LineStatusCancelled {
		return false
	}
	if to == LineStatusCancelled {
		return true
	}
	return lineForward[s] == to
}

// Rank orders line statuses along the kitchen flow. Cancelled has no rank.
func (s LineStatus) Rank() int {
	switch s {
	case LineStatusNew:
		return 0
	case LineStatusSentToKitchen:
		return 1
	case LineStatusInProgress:
		return 2
	case LineStatusReady:
		return 3
	case LineStatusServed:
		return 4
	}
	return -1
}

// ShiftStatus is the lifecycle status of a cashier shift.
type ShiftStatus string

const (
	ShiftStatusOpen        ShiftStatus = "OPEN"
	ShiftStatusClosed      ShiftStatus = "CLOSED"
	ShiftStatusForceClosed ShiftStatus = "FORCE_CLOSED"
)

// PaymentStatus is derived from (total_paid, grand_total).
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusOverpaid      PaymentStatus = "OVERPAID"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

// Role is the staff role carried by the actor identity.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
	RoleWaiter  Role = "WAITER"
	RoleKitchen Role = "KITCHEN"
	RoleSystem  Role = "SYSTEM"
)

// CanApprove reports whether the role may co-sign discounts, voids and refunds.
func (r Role) CanApprove() bool {
	return r == RoleOwner || r == RoleManager
}

// OrderType is how the order is fulfilled.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeaway OrderType = "TAKEAWAY"
	OrderTypeDelivery OrderType = "DELIVERY"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

// PaymentMethod is how a payment was tendered.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodGiftCard      PaymentMethod = "GIFT_CARD"
	PaymentMethodLoyaltyPoints PaymentMethod = "LOYALTY_POINTS"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodGiftCard, PaymentMethodLoyaltyPoints:
		return true
	}
	return false
}

// PaymentKind separates original payments from reversing entries.
type PaymentKind string

const (
	PaymentKindPayment  PaymentKind = "PAYMENT"
	PaymentKindReversal PaymentKind = "REVERSAL"
)

// LedgerEntryType describes why a gift-card or loyalty balance changed.
type LedgerEntryType string

const (
	LedgerEntryIssue  LedgerEntryType = "ISSUE"
	LedgerEntryRedeem LedgerEntryType = "REDEEM"
	LedgerEntryRefund LedgerEntryType = "REFUND"
	LedgerEntryEarn   LedgerEntryType = "EARN"
	LedgerEntryAdjust LedgerEntryType = "ADJUST"
)

// ── Group B: Configurable labels (no DB constraint) ──

// DiscountType selects percent or fixed-amount discounts.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED_AMOUNT"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// TaxBase selects what tax is charged on. Branch configurable.
type TaxBase string

const (
	// TaxBaseNet charges tax on the discounted net only.
	TaxBaseNet TaxBase = "NET"
	// TaxBaseNetPlusServiceCharge charges tax on net plus service charge.
	TaxBaseNetPlusServiceCharge TaxBase = "NET_PLUS_SERVICE_CHARGE"
)

// Valid reports whether b is a known tax base.
func (b TaxBase) Valid() bool {
	return b == TaxBaseNet || b == TaxBaseNetPlusServiceCharge
}
