package order

import (
	"fmt"

	"github.com/dinerhq/pos-api/internal/apperr"
)

// Errors returned by the order aggregate. Each wraps an apperr kind.
var (
	ErrInvalidOrderType      = fmt.Errorf("%w: invalid order_type", apperr.ErrInvalidInput)
	ErrInvalidCurrency       = fmt.Errorf("%w: invalid currency", apperr.ErrInvalidInput)
	ErrInvalidRate           = fmt.Errorf("%w: exchange rate must be > 0", apperr.ErrInvalidInput)
	ErrDeliveryAddress       = fmt.Errorf("%w: delivery_address is required for DELIVERY orders", apperr.ErrInvalidInput)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be > 0", apperr.ErrInvalidInput)
	ErrInvalidPaymentMethod  = fmt.Errorf("%w: invalid payment_method", apperr.ErrInvalidInput)
	ErrAmountReceived        = fmt.Errorf("%w: amount_received must be >= amount", apperr.ErrInvalidInput)
	ErrPaymentExceedsBalance = fmt.Errorf("%w: payment exceeds remaining balance", apperr.ErrInvalidInput)
	ErrReversalExceeds       = fmt.Errorf("%w: reversal exceeds remaining payment amount", apperr.ErrInvalidInput)
	ErrReasonRequired        = fmt.Errorf("%w: reason is required", apperr.ErrInvalidInput)
	ErrInvalidLineStatus     = fmt.Errorf("%w: invalid line status", apperr.ErrInvalidInput)
	ErrInvalidOrderStatus    = fmt.Errorf("%w: invalid order status", apperr.ErrInvalidInput)
	ErrInvalidPoints         = fmt.Errorf("%w: points must be > 0", apperr.ErrInvalidInput)
	ErrGiftCardRequired      = fmt.Errorf("%w: gift_card_id is required", apperr.ErrInvalidInput)
	ErrLoyaltyRequired       = fmt.Errorf("%w: loyalty_account_id and points are required", apperr.ErrInvalidInput)
	ErrDeliveryFee           = fmt.Errorf("%w: delivery_fee only applies to DELIVERY orders", apperr.ErrInvalidInput)

	ErrOrderClosed        = fmt.Errorf("%w: order is paid or voided", apperr.ErrInvalidState)
	ErrLineLocked         = fmt.Errorf("%w: line has already been sent to the kitchen", apperr.ErrInvalidState)
	ErrLineServed         = fmt.Errorf("%w: line has already been served", apperr.ErrInvalidState)
	ErrLineCancelled      = fmt.Errorf("%w: line is cancelled", apperr.ErrInvalidState)
	ErrBalanceOutstanding = fmt.Errorf("%w: balance due must be zero", apperr.ErrInvalidState)
	ErrNothingDue         = fmt.Errorf("%w: order has no balance due", apperr.ErrInvalidState)
	ErrRefundPaidOrder    = fmt.Errorf("%w: paid orders are refunded by voiding", apperr.ErrInvalidState)
	ErrNotReversible      = fmt.Errorf("%w: reversal entries cannot be reversed", apperr.ErrInvalidState)
	ErrLoyaltyRedeemed    = fmt.Errorf("%w: loyalty discount already applied", apperr.ErrInvalidState)
	ErrNoLines            = fmt.Errorf("%w: order has no lines to send", apperr.ErrInvalidState)
	ErrNotPaid            = fmt.Errorf("%w: order is not paid", apperr.ErrInvalidState)

	ErrLineNotFound    = fmt.Errorf("%w: order line", apperr.ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("%w: payment", apperr.ErrNotFound)
)

func illegalTransition[S ~string](from, to S) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", apperr.ErrIllegalTransition, from, to)
}
