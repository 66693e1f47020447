package order

import (
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
)

// Transition moves the order one step along the forward graph. Voids go
// through Void because they need a reason.
func (o *Order) Transition(to enum.OrderStatus, actor Actor, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidOrderStatus
	}
	if !o.Status.CanTransitionTo(to) {
		return illegalTransition(o.Status, to)
	}
	if to == enum.OrderStatusVoided {
		return ErrReasonRequired
	}
	if to == enum.OrderStatusSentToKitchen {
		_, err := o.SendToKitchen(actor, now)
		return err
	}
	if to == enum.OrderStatusPaid && !o.BalanceDue.IsZero() {
		return ErrBalanceOutstanding
	}
	o.setStatus(to, actor, "", now)
	o.autoPay(actor, now)
	return nil
}

// SendToKitchen moves every New line to SentToKitchen and stamps it. A Draft
// order becomes SentToKitchen. Calling it again with no new lines changes
// nothing. It returns the ids of the lines sent.
func (o *Order) SendToKitchen(actor Actor, now time.Time) ([]uuid.UUID, error) {
	if err := o.ensureOpen(); err != nil {
		return nil, err
	}
	var sent []uuid.UUID
	for _, l := range o.Lines {
		if l.Status != enum.LineStatusNew {
			continue
		}
		l.Status = enum.LineStatusSentToKitchen
		t := now
		l.SentToKitchenAt = &t
		o.markDirty(l.ID)
		sent = append(sent, l.ID)
	}
	if len(sent) == 0 {
		if o.Status == enum.OrderStatusDraft {
			return nil, ErrNoLines
		}
		return nil, nil
	}
	if o.Status == enum.OrderStatusDraft {
		o.setStatus(enum.OrderStatusSentToKitchen, actor, "", now)
	}
	o.UpdatedAt = now
	o.syncKitchen(actor, now)
	return sent, nil
}

// SetLineStatus applies a kitchen status change to one line and advances
// the order when its lines allow it. Setting the current status again is a
// no-op. Cancelling a New line deletes it, and the returned line is nil.
func (o *Order) SetLineStatus(id uuid.UUID, to enum.LineStatus, actor Actor, now time.Time) (*Line, error) {
	if err := o.ensureOpen(); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, ErrInvalidLineStatus
	}
	l, err := o.Line(id)
	if err != nil {
		return nil, err
	}
	if l.Status == to {
		return l, nil
	}
	if to == enum.LineStatusCancelled {
		kept, err := o.RemoveLine(id, actor, now)
		if err != nil || !kept {
			return nil, err
		}
		return o.Line(id)
	}
	// New lines only leave through SendToKitchen.
	if l.Status == enum.LineStatusNew || !l.Status.CanTransitionTo(to) {
		return nil, illegalTransition(l.Status, to)
	}

	t := now
	switch to {
	case enum.LineStatusInProgress:
		l.StartedAt = &t
	case enum.LineStatusReady:
		l.ReadyAt = &t
	case enum.LineStatusServed:
		l.ServedAt = &t
	}
	l.Status = to
	o.markDirty(l.ID)
	o.UpdatedAt = now
	o.syncKitchen(actor, now)
	return l, nil
}

// Void voids the order. Every payment still standing is reversed; the
// reversals are returned so ledgers can be re-credited. Whether a paid
// order may be voided at all is decided by the approval gate.
func (o *Order) Void(reason string, actor Actor, approvedBy *uuid.UUID, now time.Time) ([]Payment, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if o.Status != enum.OrderStatusPaid && !o.Status.CanTransitionTo(enum.OrderStatusVoided) {
		return nil, illegalTransition(o.Status, enum.OrderStatusVoided)
	}

	var reversals []Payment
	for _, p := range o.Payments {
		if p.Kind != enum.PaymentKindPayment {
			continue
		}
		remaining := o.remaining(p)
		if !remaining.IsPositive() {
			continue
		}
		rev := o.reversal(p, remaining, actor, approvedBy, "void: "+reason, p.ShiftID, now)
		reversals = append(reversals, rev)
	}
	for _, rev := range reversals {
		o.Payments = append(o.Payments, rev)
		o.changes.payments = append(o.changes.payments, rev)
	}
	o.settle()

	o.VoidInfo = &Void{At: now, Reason: reason, By: actor.UserID, ApprovedBy: approvedBy}
	o.setStatus(enum.OrderStatusVoided, actor, reason, now)
	return reversals, nil
}

func (o *Order) setStatus(to enum.OrderStatus, actor Actor, reason string, now time.Time) {
	from := o.Status
	o.Status = to
	if to == enum.OrderStatusPaid {
		t := now
		o.PaidAt = &t
	}
	o.record(from, to, actor, reason, now)
}

// syncKitchen steps the order forward to match its lines: any line in
// progress means InPreparation, all active lines ready means Ready, all
// served means Served. Unsent lines hold the order where it is.
func (o *Order) syncKitchen(actor Actor, now time.Time) {
	if o.Status == enum.OrderStatusDraft || o.Status.Terminal() {
		return
	}
	target := o.kitchenTarget()
	for o.Status.Rank() < target.Rank() {
		next, ok := o.Status.Next()
		if !ok {
			break
		}
		o.setStatus(next, actor, "", now)
	}
	o.autoPay(actor, now)
}

func (o *Order) kitchenTarget() enum.OrderStatus {
	lowest, highest, active := enum.LineStatusServed.Rank(), -1, 0
	for _, l := range o.Lines {
		if !l.Status.Active() {
			continue
		}
		r := l.Status.Rank()
		if r == 0 {
			return o.Status
		}
		active++
		lowest = min(lowest, r)
		highest = max(highest, r)
	}
	if active == 0 {
		return o.Status
	}
	switch {
	case lowest >= enum.LineStatusServed.Rank():
		return enum.OrderStatusServed
	case lowest >= enum.LineStatusReady.Rank():
		return enum.OrderStatusReady
	case highest >= enum.LineStatusInProgress.Rank():
		return enum.OrderStatusInPreparation
	}
	return enum.OrderStatusSentToKitchen
}

// autoPay closes a served order once it is settled.
func (o *Order) autoPay(actor Actor, now time.Time) {
	if o.Status == enum.OrderStatusServed && o.BalanceDue.IsZero() && o.TotalPaid.IsPositive() {
		o.setStatus(enum.OrderStatusPaid, actor, "", now)
	}
}
