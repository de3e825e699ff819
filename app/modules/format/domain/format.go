// Package formatdomain models the format vote: every gathered player
// sits in exactly one bucket, starting in the unvoted bucket and moving
// on each vote.
package formatdomain

import (
	"fmt"
	"slices"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

// UnvotedKey is the sentinel bucket for members who have not voted yet.
const UnvotedKey = -1

// PlayerCount is the required union cardinality across all buckets.
const PlayerCount = 12

// BucketOrder is the fixed iteration order over buckets, both for the
// wire encoding and for resolution tie-breaking.
var BucketOrder = []int{1, 2, 3, 4, 6, UnvotedKey}

// Table is the in-memory projection of a format-vote message.
type Table struct {
	// Data maps each bucket key to its members in insertion order.
	Data  map[int][]string
	State tables.State
}

// New validates that the union of all buckets holds exactly PlayerCount
// unique members, failing with InvalidPlayerNum otherwise. Missing
// buckets are initialized empty; unknown keys are rejected.
func New(data map[int][]string, state tables.State) (*Table, error) {
	t := &Table{
		Data:  make(map[int][]string, len(BucketOrder)),
		State: state,
	}
	for _, k := range BucketOrder {
		t.Data[k] = []string{}
	}

	seen := make(map[string]struct{})
	for k, members := range data {
		if !slices.Contains(BucketOrder, k) {
			return nil, fmt.Errorf("unknown format bucket %d", k)
		}
		for _, name := range members {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			t.Data[k] = append(t.Data[k], name)
		}
	}

	if len(seen) != PlayerCount {
		return nil, errs.InvalidPlayerNum(PlayerCount)
	}
	return t, nil
}

// HasMember reports whether the name belongs to any bucket.
func (t *Table) HasMember(name string) bool {
	for _, members := range t.Data {
		if slices.Contains(members, name) {
			return true
		}
	}
	return false
}

// Members returns every participant in fixed bucket order. The union is
// stable, so it can seed the game roster deterministically.
func (t *Table) Members() []string {
	members := make([]string, 0, PlayerCount)
	for _, k := range BucketOrder {
		members = append(members, t.Data[k]...)
	}
	return members
}

// CastVote moves the voter into the chosen bucket: the voter is removed
// from every bucket first, so re-voting is idempotent.
func (t *Table) CastVote(name string, format int) error {
	if _, ok := t.Data[format]; !ok || format == UnvotedKey {
		return fmt.Errorf("unknown format bucket %d", format)
	}
	for k, members := range t.Data {
		if i := slices.Index(members, name); i >= 0 {
			t.Data[k] = slices.Delete(members, i, i+1)
		}
	}
	t.Data[format] = append(t.Data[format], name)
	return nil
}

// Resolved reports whether every member has voted.
func (t *Table) Resolved() bool { return len(t.Data[UnvotedKey]) == 0 }

// Winner is the most-voted format. Ties are broken by the first maximum
// over the fixed key order (1, 2, 3, 4, 6).
func (t *Table) Winner() int {
	winner := BucketOrder[0]
	for _, k := range BucketOrder[:len(BucketOrder)-1] {
		if len(t.Data[k]) > len(t.Data[winner]) {
			winner = k
		}
	}
	return winner
}
