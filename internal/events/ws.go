package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dinerhq/pos-api/internal/ws"
	"github.com/google/uuid"
)

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToBranch(tenantID, branchID uuid.UUID, event ws.Event)
}

// WSPublisher pushes events to the websocket room of the event's branch.
type WSPublisher struct {
	hub Broadcaster
}

// NewWSPublisher creates a WSPublisher.
func NewWSPublisher(hub Broadcaster) *WSPublisher {
	return &WSPublisher{hub: hub}
}

func (p *WSPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal ws payload: %w", err)
	}
	p.hub.BroadcastToBranch(ev.TenantID, ev.BranchID, ws.Event{Type: string(ev.Type), Payload: payload})
	return nil
}
