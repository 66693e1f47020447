// Package events delivers post-commit notifications to the outside world:
// websocket rooms for terminals and kitchen displays, an AMQP exchange for
// kitchen tickets and a Kafka topic for finalized order snapshots.
//
// Delivery is best effort. Events are published after the transaction that
// produced them has committed, so a failed publish never undoes a write.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type names an event.
type Type string

const (
	// OrderUpdated carries the full order view after any mutation.
	OrderUpdated Type = "order.updated"
	// KitchenTicket carries the lines just sent to the kitchen.
	KitchenTicket Type = "kitchen.ticket"
	// OrderFinalized carries the order view once it is Paid or Voided.
	OrderFinalized Type = "order.finalized"
	// ShiftClosed carries the shift view after a close or force close.
	ShiftClosed Type = "shift.closed"
)

// Event is one notification. SubjectID is the order or shift id and is
// used as the partitioning key.
type Event struct {
	Type      Type      `json:"type"`
	TenantID  uuid.UUID `json:"tenant_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	At        time.Time `json:"at"`
	Data      any       `json:"data"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type route struct {
	name string
	pub  Publisher
}

// Fanout sends each event to every publisher routed for its type.
type Fanout struct {
	routes map[Type][]route
	log    *zap.Logger
}

// NewFanout creates an empty Fanout.
func NewFanout(log *zap.Logger) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{routes: make(map[Type][]route), log: log}
}

// Route sends events of the given types to pub. name identifies the sink
// in logs.
func (f *Fanout) Route(name string, pub Publisher, types ...Type) *Fanout {
	for _, t := range types {
		f.routes[t] = append(f.routes[t], route{name: name, pub: pub})
	}
	return f
}

// Publish delivers ev to every routed sink, even when one of them fails.
// Failures are logged and returned joined.
func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range f.routes[ev.Type] {
		if err := r.pub.Publish(ctx, ev); err != nil {
			f.log.Warn("publish event",
				zap.String("sink", r.name),
				zap.String("type", string(ev.Type)),
				zap.Stringer("subject_id", ev.SubjectID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}
	return errors.Join(errs...)
}
