package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/database"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/money"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// loadOrder reads the order with its children. When forUpdate is set the
// order row is locked until the transaction ends.
func loadOrder(ctx context.Context, store OrderStore, tenantID, id uuid.UUID, forUpdate bool) (*order.Order, error) {
	var (
		row database.Order
		err error
	)
	if forUpdate {
		row, err = store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: id, TenantID: tenantID})
	} else {
		row, err = store.GetOrder(ctx, database.GetOrderParams{ID: id, TenantID: tenantID})
	}
	if err != nil {
		return nil, noRows(err, ErrOrderNotFound, "get order")
	}

	lines, err := store.ListOrderLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	mods, err := store.ListOrderLineModifiers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order line modifiers: %w", err)
	}
	payments, err := store.ListOrderPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order payments: %w", err)
	}
	history, err := store.ListOrderStatusHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order status history: %w", err)
	}
	return orderFromRows(row, lines, mods, payments, history), nil
}

func orderFromRows(row database.Order, lines []database.OrderLine, mods []database.OrderLineModifier,
	payments []database.OrderPayment, history []database.OrderStatusHistory) *order.Order {
	o := &order.Order{
		ID:                 row.ID,
		TenantID:           row.TenantID,
		BranchID:           row.BranchID,
		ShiftID:            fromUUID(row.ShiftID),
		Number:             row.OrderNumber,
		Type:               enum.OrderType(row.OrderType),
		Currency:           row.Currency,
		CurrencyDecimals:   int32(row.CurrencyDecimals),
		ExchangeRateToBase: money.FromNumeric(row.ExchangeRateToBase),
		TableNumber:        row.TableNumber.String,
		DeliveryAddress:    row.DeliveryAddress.String,
		Notes:              row.Notes.String,
		LoyaltyAccountID:   fromUUID(row.LoyaltyAccountID),
		Status:             enum.OrderStatus(row.Status),
		PaymentStatus:      enum.PaymentStatus(row.PaymentStatus),
		Policy: pricing.Policy{
			ServiceChargePercent: money.FromNumeric(row.ServiceChargePercent),
			TaxPercent:           money.FromNumeric(row.TaxPercent),
			TaxBase:              enum.TaxBase(row.TaxBase),
		},
		BillDiscount:          discountFromRow(row.BillDiscountType, row.BillDiscountValue),
		DeliveryFee:           money.FromNumeric(row.DeliveryFee),
		Tips:                  money.FromNumeric(row.Tips),
		LoyaltyDiscountAmount: money.FromNumeric(row.LoyaltyDiscountAmount),
		LoyaltyPointsRedeemed: row.LoyaltyPointsRedeemed,
		LoyaltyPointsEarned:   row.LoyaltyPointsEarned,
		TotalPaid:             money.FromNumeric(row.TotalPaid),
		BalanceDue:            money.FromNumeric(row.BalanceDue),
		Version:               row.Version,
		CreatedBy:             row.CreatedBy,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
		PaidAt:                fromTime(row.PaidAt),
	}

	sub := money.FromNumeric(row.SubTotal)
	lineDisc := money.FromNumeric(row.TotalLineDiscount)
	billDisc := money.FromNumeric(row.BillDiscountAmount)
	o.Totals = pricing.Totals{
		SubTotal:         sub,
		LineDiscount:     lineDisc,
		BillDiscount:     billDisc,
		NetAfterDiscount: sub.Sub(lineDisc).Sub(billDisc),
		ServiceCharge:    money.FromNumeric(row.ServiceCharge),
		TaxableAmount:    money.FromNumeric(row.TaxableAmount),
		Tax:              money.FromNumeric(row.TaxAmount),
		DeliveryFee:      o.DeliveryFee,
		Tips:             o.Tips,
		LoyaltyDiscount:  o.LoyaltyDiscountAmount,
		GrandTotal:       money.FromNumeric(row.GrandTotal),
	}

	if row.VoidedAt.Valid {
		o.VoidInfo = &order.Void{
			At:         row.VoidedAt.Time,
			Reason:     row.VoidReason.String,
			By:         fromUUIDValue(row.VoidBy),
			ApprovedBy: fromUUID(row.ApprovedVoidBy),
		}
	}

	byLine := make(map[uuid.UUID][]order.Modifier)
	for _, m := range mods {
		byLine[m.OrderLineID] = append(byLine[m.OrderLineID], order.Modifier{
			ID:         m.ID,
			ModifierID: m.ModifierID,
			Name:       m.Name,
			Quantity:   m.Quantity,
			UnitPrice:  money.FromNumeric(m.UnitPrice),
		})
	}
	for _, l := range lines {
		o.Lines = append(o.Lines, &order.Line{
			ID:                  l.ID,
			ItemID:              l.ItemID,
			SizeID:              fromUUID(l.SizeID),
			Name:                l.Name,
			Quantity:            l.Quantity,
			BaseUnitPrice:       money.FromNumeric(l.BaseUnitPrice),
			ModifiersExtraPrice: money.FromNumeric(l.ModifiersExtraPrice),
			EffectiveUnitPrice:  money.FromNumeric(l.EffectiveUnitPrice),
			Discount:            discountFromRow(l.DiscountType, l.DiscountValue),
			DiscountAmount:      money.FromNumeric(l.DiscountAmount),
			LineGross:           money.FromNumeric(l.LineGross),
			LineNet:             money.FromNumeric(l.LineNet),
			Notes:               l.Notes.String,
			Status:              enum.LineStatus(l.Status),
			Modifiers:           byLine[l.ID],
			SentToKitchenAt:     fromTime(l.SentToKitchenAt),
			StartedAt:           fromTime(l.StartedAt),
			ReadyAt:             fromTime(l.ReadyAt),
			ServedAt:            fromTime(l.ServedAt),
			CancelledAt:         fromTime(l.CancelledAt),
			CreatedAt:           l.CreatedAt,
		})
	}

	for _, p := range payments {
		o.Payments = append(o.Payments, order.Payment{
			ID:                    p.ID,
			OrderID:               p.OrderID,
			Kind:                  enum.PaymentKind(p.Kind),
			Method:                enum.PaymentMethod(p.Method),
			Amount:                money.FromNumeric(p.Amount),
			Currency:              p.Currency,
			ExchangeRate:          money.FromNumeric(p.ExchangeRate),
			AmountInOrderCurrency: money.FromNumeric(p.AmountInOrderCurrency),
			AmountReceived:        money.FromNullNumeric(p.AmountReceived),
			ChangeAmount:          money.FromNullNumeric(p.ChangeAmount),
			Reference:             p.Reference.String,
			GiftCardID:            fromUUID(p.GiftCardID),
			LoyaltyAccountID:      fromUUID(p.LoyaltyAccountID),
			LoyaltyPoints:         p.LoyaltyPoints,
			ReversesPaymentID:     fromUUID(p.ReversesPaymentID),
			ShiftID:               fromUUID(p.ShiftID),
			ProcessedBy:           p.ProcessedBy,
			ApprovedBy:            fromUUID(p.ApprovedBy),
			CreatedAt:             p.CreatedAt,
		})
	}

	for _, h := range history {
		o.History = append(o.History, order.StatusChange{
			ID:      h.ID,
			OrderID: h.OrderID,
			From:    enum.OrderStatus(h.FromStatus.String),
			To:      enum.OrderStatus(h.ToStatus),
			ActorID: h.ActorID,
			Reason:  h.Reason.String,
			At:      h.CreatedAt,
		})
	}
	return o
}

// insertOrder writes a new order and everything pending on it. The stored
// version is the one MarkSaved will leave on the aggregate.
func insertOrder(ctx context.Context, store OrderStore, o *order.Order, seq int32) error {
	_, err := store.CreateOrder(ctx, database.CreateOrderParams{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		BranchID:              o.BranchID,
		ShiftID:               toUUID(o.ShiftID),
		OrderSeq:              seq,
		OrderNumber:           o.Number,
		OrderType:             string(o.Type),
		Currency:              o.Currency,
		CurrencyDecimals:      int16(o.CurrencyDecimals),
		ExchangeRateToBase:    money.ToNumeric(o.ExchangeRateToBase),
		TableNumber:           toText(o.TableNumber),
		DeliveryAddress:       toText(o.DeliveryAddress),
		Notes:                 toText(o.Notes),
		LoyaltyAccountID:      toUUID(o.LoyaltyAccountID),
		Status:                string(o.Status),
		PaymentStatus:         string(o.PaymentStatus),
		ServiceChargePercent:  money.ToNumeric(o.Policy.ServiceChargePercent),
		TaxPercent:            money.ToNumeric(o.Policy.TaxPercent),
		TaxBase:               string(o.Policy.TaxBase),
		BillDiscountType:      discountType(o.BillDiscount),
		BillDiscountValue:     discountValue(o.BillDiscount),
		SubTotal:              money.ToNumeric(o.Totals.SubTotal),
		TotalLineDiscount:     money.ToNumeric(o.Totals.LineDiscount),
		BillDiscountAmount:    money.ToNumeric(o.Totals.BillDiscount),
		ServiceCharge:         money.ToNumeric(o.Totals.ServiceCharge),
		TaxableAmount:         money.ToNumeric(o.Totals.TaxableAmount),
		TaxAmount:             money.ToNumeric(o.Totals.Tax),
		DeliveryFee:           money.ToNumeric(o.DeliveryFee),
		Tips:                  money.ToNumeric(o.Tips),
		LoyaltyDiscountAmount: money.ToNumeric(o.LoyaltyDiscountAmount),
		GrandTotal:            money.ToNumeric(o.Totals.GrandTotal),
		TotalPaid:             money.ToNumeric(o.TotalPaid),
		BalanceDue:            money.ToNumeric(o.BalanceDue),
		Version:               o.Version + 1,
		CreatedBy:             o.CreatedBy,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return writeChanges(ctx, store, o)
}

// saveOrder rewrites the order row guarded by its version, then writes the
// pending children.
func saveOrder(ctx context.Context, store OrderStore, o *order.Order) error {
	arg := database.UpdateOrderParams{
		ID:                    o.ID,
		Version:               o.Version,
		Status:                string(o.Status),
		PaymentStatus:         string(o.PaymentStatus),
		LoyaltyAccountID:      toUUID(o.LoyaltyAccountID),
		BillDiscountType:      discountType(o.BillDiscount),
		BillDiscountValue:     discountValue(o.BillDiscount),
		SubTotal:              money.ToNumeric(o.Totals.SubTotal),
		TotalLineDiscount:     money.ToNumeric(o.Totals.LineDiscount),
		BillDiscountAmount:    money.ToNumeric(o.Totals.BillDiscount),
		ServiceCharge:         money.ToNumeric(o.Totals.ServiceCharge),
		TaxableAmount:         money.ToNumeric(o.Totals.TaxableAmount),
		TaxAmount:             money.ToNumeric(o.Totals.Tax),
		DeliveryFee:           money.ToNumeric(o.DeliveryFee),
		Tips:                  money.ToNumeric(o.Tips),
		LoyaltyDiscountAmount: money.ToNumeric(o.LoyaltyDiscountAmount),
		LoyaltyPointsRedeemed: o.LoyaltyPointsRedeemed,
		LoyaltyPointsEarned:   o.LoyaltyPointsEarned,
		GrandTotal:            money.ToNumeric(o.Totals.GrandTotal),
		TotalPaid:             money.ToNumeric(o.TotalPaid),
		BalanceDue:            money.ToNumeric(o.BalanceDue),
		UpdatedAt:             o.UpdatedAt,
		PaidAt:                toTime(o.PaidAt),
	}
	if v := o.VoidInfo; v != nil {
		arg.VoidedAt = toTime(&v.At)
		arg.VoidReason = toText(v.Reason)
		arg.VoidBy = toUUID(&v.By)
		arg.ApprovedVoidBy = toUUID(v.ApprovedBy)
	}
	if _, err := store.UpdateOrder(ctx, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("update order: %w", err)
	}
	return writeChanges(ctx, store, o)
}

func writeChanges(ctx context.Context, store OrderStore, o *order.Order) error {
	c := o.Changes()
	for _, id := range c.RemovedLineIDs {
		if err := store.DeleteOrderLine(ctx, id); err != nil {
			return fmt.Errorf("delete order line: %w", err)
		}
	}
	for _, l := range c.NewLines {
		if err := store.CreateOrderLine(ctx, lineParams(o.ID, l)); err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
		for _, m := range l.Modifiers {
			err := store.CreateOrderLineModifier(ctx, database.CreateOrderLineModifierParams{
				ID:          m.ID,
				OrderLineID: l.ID,
				ModifierID:  m.ModifierID,
				Name:        m.Name,
				Quantity:    m.Quantity,
				UnitPrice:   money.ToNumeric(m.UnitPrice),
			})
			if err != nil {
				return fmt.Errorf("create order line modifier: %w", err)
			}
		}
	}
	for _, l := range c.UpdatedLines {
		if err := store.UpdateOrderLine(ctx, lineParams(o.ID, l)); err != nil {
			return fmt.Errorf("update order line: %w", err)
		}
	}
	for _, p := range c.NewPayments {
		if err := store.CreateOrderPayment(ctx, paymentParams(p)); err != nil {
			return fmt.Errorf("create order payment: %w", err)
		}
	}
	for _, h := range c.NewHistory {
		err := store.CreateOrderStatusHistory(ctx, database.CreateOrderStatusHistoryParams{
			ID:         h.ID,
			OrderID:    h.OrderID,
			FromStatus: toText(string(h.From)),
			ToStatus:   string(h.To),
			ActorID:    h.ActorID,
			Reason:     toText(h.Reason),
			CreatedAt:  h.At,
		})
		if err != nil {
			return fmt.Errorf("create order status history: %w", err)
		}
	}
	return nil
}

func lineParams(orderID uuid.UUID, l *order.Line) database.CreateOrderLineParams {
	return database.CreateOrderLineParams{
		ID:                  l.ID,
		OrderID:             orderID,
		ItemID:              l.ItemID,
		SizeID:              toUUID(l.SizeID),
		Name:                l.Name,
		Quantity:            l.Quantity,
		BaseUnitPrice:       money.ToNumeric(l.BaseUnitPrice),
		ModifiersExtraPrice: money.ToNumeric(l.ModifiersExtraPrice),
		EffectiveUnitPrice:  money.ToNumeric(l.EffectiveUnitPrice),
		DiscountType:        discountType(l.Discount),
		DiscountValue:       discountValue(l.Discount),
		DiscountAmount:      money.ToNumeric(l.DiscountAmount),
		LineGross:           money.ToNumeric(l.LineGross),
		LineNet:             money.ToNumeric(l.LineNet),
		Notes:               toText(l.Notes),
		Status:              string(l.Status),
		SentToKitchenAt:     toTime(l.SentToKitchenAt),
		StartedAt:           toTime(l.StartedAt),
		ReadyAt:             toTime(l.ReadyAt),
		ServedAt:            toTime(l.ServedAt),
		CancelledAt:         toTime(l.CancelledAt),
		CreatedAt:           l.CreatedAt,
	}
}

func paymentParams(p order.Payment) database.CreateOrderPaymentParams {
	return database.CreateOrderPaymentParams{
		ID:                    p.ID,
		OrderID:               p.OrderID,
		Kind:                  string(p.Kind),
		Method:                string(p.Method),
		Amount:                money.ToNumeric(p.Amount),
		Currency:              p.Currency,
		ExchangeRate:          money.ToNumeric(p.ExchangeRate),
		AmountInOrderCurrency: money.ToNumeric(p.AmountInOrderCurrency),
		AmountReceived:        money.ToNullNumeric(p.AmountReceived),
		ChangeAmount:          money.ToNullNumeric(p.ChangeAmount),
		Reference:             toText(p.Reference),
		GiftCardID:            toUUID(p.GiftCardID),
		LoyaltyAccountID:      toUUID(p.LoyaltyAccountID),
		LoyaltyPoints:         p.LoyaltyPoints,
		ReversesPaymentID:     toUUID(p.ReversesPaymentID),
		ShiftID:               toUUID(p.ShiftID),
		ProcessedBy:           p.ProcessedBy,
		ApprovedBy:            toUUID(p.ApprovedBy),
		CreatedAt:             p.CreatedAt,
	}
}

// --- pgtype helpers ---

func toUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromUUID(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func fromUUIDValue(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

func toText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func discountType(d pricing.Discount) pgtype.Text {
	return toText(string(d.Type))
}

func discountValue(d pricing.Discount) pgtype.Numeric {
	if d.IsZero() {
		return pgtype.Numeric{}
	}
	return money.ToNumeric(d.Value)
}

func discountFromRow(typ pgtype.Text, value pgtype.Numeric) pricing.Discount {
	if !typ.Valid {
		return pricing.Discount{}
	}
	return pricing.Discount{Type: enum.DiscountType(typ.String), Value: money.FromNumeric(value)}
}
