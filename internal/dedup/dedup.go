// Package dedup reduces a table to one record per key, keeping the record
// with the highest score.
package dedup

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/leeovery/sndedup/internal/normalize"
	"github.com/leeovery/sndedup/internal/progress"
	"github.com/leeovery/sndedup/internal/record"
)

// Order selects the order of the result rows.
type Order string

const (
	// OrderFirstSeen orders groups by the first appearance of their key.
	OrderFirstSeen Order = "first-seen"
	// OrderSource orders winners by their original row index.
	OrderSource Order = "source"
	// OrderKey orders groups by key value (see record.Compare).
	OrderKey Order = "key"
)

// ParseOrder validates an order name. An empty name yields OrderFirstSeen.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderFirstSeen:
		return OrderFirstSeen, nil
	case OrderSource, OrderKey:
		return Order(s), nil
	default:
		return "", fmt.Errorf("unknown order %q (want first-seen, source or key)", s)
	}
}

// Result is the outcome of Select.
type Result struct {
	// Rows holds one record per distinct key, unmodified.
	Rows []record.Record
	// Groups is the number of distinct keys.
	Groups int
	// Removed is the number of input rows not kept.
	Removed int
}

// GroupProgressDesc labels the per-group progress bar.
const GroupProgressDesc = "Per-SN selection"

type options struct {
	order    Order
	progress progress.Progress
	factory  progress.Factory
}

// Option configures Select.
type Option func(*options)

// WithOrder sets the result ordering.
func WithOrder(o Order) Option {
	return func(opts *options) { opts.order = o }
}

// WithProgress reports one unit per group to p.
func WithProgress(p progress.Progress) Option {
	return func(opts *options) {
		if p != nil {
			opts.progress = p
		}
	}
}

// WithProgressFactory builds the per-group progress once the number of
// groups is known. It takes precedence over WithProgress.
func WithProgressFactory(f progress.Factory) Option {
	return func(opts *options) { opts.factory = f }
}

// group collects the rows sharing one key and, once selected, its winner.
type group struct {
	key     record.Value
	members []int // positions in rows, ascending
	best    int   // position in rows
}

// Select keeps, for every distinct value of column keyCol, the record with the
// greatest score in column scoreCol. Any present score beats the missing
// marker; ties, including groups with no present score, go to the record that
// appears first in rows. Records are returned as they are, never modified.
//
// Select never fails. Missing keys form their own group.
func Select(rows []record.Record, keyCol, scoreCol int, opts ...Option) Result {
	o := options{order: OrderFirstSeen, progress: progress.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}

	// groups is kept in order of first appearance; index maps a key to its slot.
	index := make(map[any]int)
	var groups []group
	for i, r := range rows {
		key := r.Cell(keyCol)
		k := key.Key()
		gi, seen := index[k]
		if !seen {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, group{key: key})
		}
		groups[gi].members = append(groups[gi].members, i)
	}

	if o.factory != nil {
		o.progress = o.factory(len(groups), GroupProgressDesc)
	}

	for gi := range groups {
		g := &groups[gi]
		g.best = best(rows, g.members, scoreCol)
		g.members = nil
		o.progress.Advance(1)
	}
	o.progress.Done()

	winners := make([]record.Record, 0, len(groups))
	switch o.order {
	case OrderSource:
		kept := roaring.New()
		for _, g := range groups {
			kept.Add(uint32(g.best))
		}
		it := kept.Iterator()
		for it.HasNext() {
			winners = append(winners, rows[it.Next()])
		}
	case OrderKey:
		sorted := make([]group, len(groups))
		copy(sorted, groups)
		sort.SliceStable(sorted, func(a, b int) bool {
			return record.Compare(sorted[a].key, sorted[b].key) < 0
		})
		for _, g := range sorted {
			winners = append(winners, rows[g.best])
		}
	default:
		for _, g := range groups {
			winners = append(winners, rows[g.best])
		}
	}

	return Result{
		Rows:    winners,
		Groups:  len(groups),
		Removed: len(rows) - len(winners),
	}
}

// best returns the member with the greatest present score, or the first
// member when no later score is strictly greater.
func best(rows []record.Record, members []int, scoreCol int) int {
	winner := members[0]
	top, scored := normalize.Score(rows[winner].Cell(scoreCol))
	for _, i := range members[1:] {
		score, ok := normalize.Score(rows[i].Cell(scoreCol))
		if ok && (!scored || score > top) {
			winner, top, scored = i, score, true
		}
	}
	return winner
}
