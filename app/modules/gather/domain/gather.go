// Package gatherdomain models the participant-collection phase of an
// event: a capped, ordered set of unique display names.
package gatherdomain

import (
	"slices"

	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

// Capacity is the number of participants that completes a gather.
const Capacity = 12

// Table is the in-memory projection of a gather message. Names keep
// insertion order; State flips to done when the 12th distinct name
// joins.
type Table struct {
	Names []string
	State tables.State
}

// New builds a table, deduplicating names while preserving first
// appearance order.
func New(names []string, state tables.State) *Table {
	t := &Table{State: state}
	for _, name := range names {
		if !slices.Contains(t.Names, name) {
			t.Names = append(t.Names, name)
		}
	}
	return t
}

func (t *Table) Len() int { return len(t.Names) }

// SlotsLeft is the open seat count rendered in the table title.
func (t *Table) SlotsLeft() int {
	if len(t.Names) >= Capacity {
		return 0
	}
	return Capacity - len(t.Names)
}

// AddName inserts the name if absent. Adding an existing name is a
// no-op, never an error. Reaching capacity archives the table.
func (t *Table) AddName(name string) {
	if slices.Contains(t.Names, name) {
		return
	}
	t.Names = append(t.Names, name)
	if len(t.Names) == Capacity {
		t.State = tables.StateDone
	}
}

// RemoveName removes the name if present; absent names are a no-op.
func (t *Table) RemoveName(name string) {
	i := slices.Index(t.Names, name)
	if i < 0 {
		return
	}
	t.Names = slices.Delete(t.Names, i, i+1)
}
