package client

import (
	"context"
	"sync"

	"github.com/tutorahq/tutora/pkg/ordering"
)

// DropCanceled is the destination index reported when a drag is released
// outside any drop target. A move to it is a no-op.
const DropCanceled = -1

// PersistFunc durably stores a reordered list. The Client's Reorder* methods
// satisfy it once bound to their path parameters.
type PersistFunc func(ctx context.Context, items []ordering.Position) error

// NotifyFunc surfaces the outcome of a reorder to the user. It receives nil
// on success and the persistence error on failure, exactly once per
// completed move.
type NotifyFunc func(err error)

// OptimisticList tracks an ordered collection being rearranged by drag and
// drop. Moves apply locally first so the UI stays responsive, then persist in
// the background; a failed persist restores the list to the exact order it
// had before the drag.
type OptimisticList struct {
	mu      sync.Mutex
	items   []ordering.Position
	persist PersistFunc
	notify  NotifyFunc
}

// NewOptimisticList builds a list over the given items. notify may be nil.
func NewOptimisticList(items []ordering.Position, persist PersistFunc, notify NotifyFunc) *OptimisticList {
	return &OptimisticList{
		items:   clonePositions(items),
		persist: persist,
		notify:  notify,
	}
}

// Items returns a copy of the current display order.
func (l *OptimisticList) Items() []ordering.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clonePositions(l.items)
}

// Move takes the element at src and drops it at dst, then persists the new
// order.
//
// A canceled drag (dst == DropCanceled) or a drop back onto the source index
// leaves the list untouched and makes no network call. An out-of-bounds index
// is also rejected before any mutation. Otherwise the move applies
// immediately, and if persistence fails the list rolls back to the pre-drag
// order and the notifier fires with the error.
func (l *OptimisticList) Move(ctx context.Context, src, dst int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dst == DropCanceled || src == dst {
		return nil
	}

	moved, err := ordering.Move(l.items, src, dst)
	if err != nil {
		return err
	}
	for i := range moved {
		moved[i].Order = i + 1
	}

	snapshot := l.items
	l.items = moved

	if err := l.persist(ctx, clonePositions(moved)); err != nil {
		l.items = snapshot
		if l.notify != nil {
			l.notify(err)
		}
		return err
	}

	if l.notify != nil {
		l.notify(nil)
	}
	return nil
}

func clonePositions(items []ordering.Position) []ordering.Position {
	out := make([]ordering.Position, len(items))
	copy(out, items)
	return out
}
