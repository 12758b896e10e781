// Package ordering implements the ordered-collection primitives shared by
// chapters, lessons, quiz questions, and FAQ entries: array-move permutations
// and contiguous 1-based position assignment.
package ordering

import (
	"sort"

	"github.com/pkg/errors"
)

// Move returns a copy of items with the element at src removed and reinserted
// at dst. When src == dst the copy equals the input. It never mutates the
// input slice.
func Move[T any](items []T, src, dst int) ([]T, error) {
	if src < 0 || src >= len(items) {
		return nil, errors.Errorf("source index %d out of bounds [0, %d)", src, len(items))
	}
	if dst < 0 || dst >= len(items) {
		return nil, errors.Errorf("destination index %d out of bounds [0, %d)", dst, len(items))
	}

	out := make([]T, 0, len(items))
	out = append(out, items...)
	if src == dst {
		return out, nil
	}

	moved := out[src]
	out = append(out[:src], out[src+1:]...)
	out = append(out[:dst], append([]T{moved}, out[dst:]...)...)
	return out, nil
}

// Renumber assigns contiguous 1-based positions to every element in display
// order, regardless of whether it moved.
func Renumber[T any](items []T, assign func(item T, position int)) {
	for i, item := range items {
		assign(item, i+1)
	}
}

// Position pairs a stable identifier with its 1-based position.
type Position struct {
	ID    int `json:"id"`
	Order int `json:"order"`
}

// ValidatePermutation checks that submitted covers exactly the existing IDs
// and that its orders are exactly 1..N. This is what makes a reorder request
// safe to apply: it can rearrange a collection but never grow, shrink, or
// leave gaps in it.
func ValidatePermutation(existingIDs []int, submitted []Position) error {
	if len(submitted) != len(existingIDs) {
		return errors.Errorf("expected %d items, got %d", len(existingIDs), len(submitted))
	}

	want := make(map[int]bool, len(existingIDs))
	for _, id := range existingIDs {
		want[id] = true
	}

	seenIDs := make(map[int]bool, len(submitted))
	seenOrders := make(map[int]bool, len(submitted))
	for _, p := range submitted {
		if !want[p.ID] {
			return errors.Errorf("unknown item id %d", p.ID)
		}
		if seenIDs[p.ID] {
			return errors.Errorf("duplicate item id %d", p.ID)
		}
		seenIDs[p.ID] = true

		if p.Order < 1 || p.Order > len(submitted) {
			return errors.Errorf("order %d out of range [1, %d]", p.Order, len(submitted))
		}
		if seenOrders[p.Order] {
			return errors.Errorf("duplicate order %d", p.Order)
		}
		seenOrders[p.Order] = true
	}

	return nil
}

// Sorted returns the submitted positions in ascending order. The input is not
// mutated.
func Sorted(submitted []Position) []Position {
	out := make([]Position, len(submitted))
	copy(out, submitted)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// IsNormalized reports whether orders are exactly 1..N ascending for items
// already in display order.
func IsNormalized(orders []int) bool {
	for i, o := range orders {
		if o != i+1 {
			return false
		}
	}
	return true
}
