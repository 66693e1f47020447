package order

import "github.com/google/uuid"

// changeSet tracks what must be written when the aggregate is saved.
type changeSet struct {
	newLines     map[uuid.UUID]bool
	dirtyLines   map[uuid.UUID]bool
	removedLines []uuid.UUID
	payments     []Payment
	history      []StatusChange
}

// Changes lists the pending writes of the aggregate. The order row itself
// is always rewritten on save.
type Changes struct {
	NewLines       []*Line
	UpdatedLines   []*Line
	RemovedLineIDs []uuid.UUID
	NewPayments    []Payment
	NewHistory     []StatusChange
}

// Empty reports whether nothing besides the order row changed.
func (c Changes) Empty() bool {
	return len(c.NewLines) == 0 && len(c.UpdatedLines) == 0 && len(c.RemovedLineIDs) == 0 &&
		len(c.NewPayments) == 0 && len(c.NewHistory) == 0
}

// Changes returns the pending writes in line order.
func (o *Order) Changes() Changes {
	var c Changes
	for _, l := range o.Lines {
		switch {
		case o.changes.newLines[l.ID]:
			c.NewLines = append(c.NewLines, l)
		case o.changes.dirtyLines[l.ID]:
			c.UpdatedLines = append(c.UpdatedLines, l)
		}
	}
	c.RemovedLineIDs = append(c.RemovedLineIDs, o.changes.removedLines...)
	c.NewPayments = append(c.NewPayments, o.changes.payments...)
	c.NewHistory = append(c.NewHistory, o.changes.history...)
	return c
}

// MarkSaved clears pending writes and advances the version. Call it after
// the save transaction commits.
func (o *Order) MarkSaved() {
	o.changes = changeSet{}
	o.Version++
}

func (o *Order) markNew(id uuid.UUID) {
	if o.changes.newLines == nil {
		o.changes.newLines = make(map[uuid.UUID]bool)
	}
	o.changes.newLines[id] = true
}

// markDirty flags an existing line for update. Lines added in the same
// unit of work are inserted with their final state instead.
func (o *Order) markDirty(id uuid.UUID) {
	if o.changes.newLines[id] {
		return
	}
	if o.changes.dirtyLines == nil {
		o.changes.dirtyLines = make(map[uuid.UUID]bool)
	}
	o.changes.dirtyLines[id] = true
}

func (o *Order) markRemoved(id uuid.UUID) {
	if o.changes.newLines[id] {
		delete(o.changes.newLines, id)
		return
	}
	delete(o.changes.dirtyLines, id)
	o.changes.removedLines = append(o.changes.removedLines, id)
}
