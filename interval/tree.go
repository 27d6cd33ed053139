// Package interval implements a static centered interval tree over exact
// score positions.
package interval

import (
	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
)

type (
	// Interval is a closed range [Start, Stop] carrying a value. Zero length
	// intervals (Start == Stop) are allowed.
	Interval[V any] struct {
		Start partitur.Fraction
		Stop  partitur.Fraction
		Value V
	}

	// Tree answers overlap queries over a fixed set of intervals. It is
	// immutable once built; callers rebuild it when the set changes.
	Tree[V any] struct {
		root *node[V]
		n    int
	}

	entry[V any] struct {
		Interval[V]
		index int
	}

	node[V any] struct {
		center      partitur.Fraction
		left, right *node[V]
		byStart     []entry[V] // ascending Start
		byStop      []entry[V] // descending Stop
	}
)

// New builds a tree from the intervals. Results of queries are returned in
// the order the intervals appear in ivs.
func New[V any](ivs []Interval[V]) *Tree[V] {
	entries := make([]entry[V], len(ivs))
	for i, iv := range ivs {
		entries[i] = entry[V]{Interval: iv, index: i}
	}
	return &Tree[V]{root: build(entries), n: len(ivs)}
}

func build[V any](entries []entry[V]) *node[V] {
	if len(entries) == 0 {
		return nil
	}
	points := make([]partitur.Fraction, 0, len(entries)*2)
	for _, e := range entries {
		points = append(points, e.Start, e.Stop)
	}
	slices.SortFunc(points, func(a, b partitur.Fraction) int { return a.Cmp(b) })
	n := &node[V]{center: points[len(points)/2]}
	var left, right []entry[V]
	for _, e := range entries {
		switch {
		case e.Stop.Less(n.center):
			left = append(left, e)
		case e.Start.Greater(n.center):
			right = append(right, e)
		default:
			n.byStart = append(n.byStart, e)
		}
	}
	n.byStop = slices.Clone(n.byStart)
	slices.SortStableFunc(n.byStart, func(a, b entry[V]) int { return a.Start.Cmp(b.Start) })
	slices.SortStableFunc(n.byStop, func(a, b entry[V]) int { return b.Stop.Cmp(a.Stop) })
	n.left = build(left)
	n.right = build(right)
	return n
}

// Len returns the number of intervals in the tree.
func (t *Tree[V]) Len() int {
	if t == nil {
		return 0
	}
	return t.n
}

// FindOverlapping returns every interval with Start <= stop and Stop >= start.
// The bounds are closed on both sides.
func (t *Tree[V]) FindOverlapping(start, stop partitur.Fraction) []Interval[V] {
	if t == nil {
		return nil
	}
	var found []entry[V]
	t.root.query(start, stop, &found)
	return collect(found)
}

// FindContained returns every interval lying fully inside [start, stop].
func (t *Tree[V]) FindContained(start, stop partitur.Fraction) []Interval[V] {
	if t == nil {
		return nil
	}
	var found []entry[V]
	t.root.query(start, stop, &found)
	found = slices.DeleteFunc(found, func(e entry[V]) bool {
		return e.Start.Less(start) || e.Stop.Greater(stop)
	})
	return collect(found)
}

func (n *node[V]) query(start, stop partitur.Fraction, found *[]entry[V]) {
	if n == nil {
		return
	}
	switch {
	case stop.Less(n.center):
		for _, e := range n.byStart {
			if e.Start.Greater(stop) {
				break
			}
			*found = append(*found, e)
		}
		n.left.query(start, stop, found)
	case start.Greater(n.center):
		for _, e := range n.byStop {
			if e.Stop.Less(start) {
				break
			}
			*found = append(*found, e)
		}
		n.right.query(start, stop, found)
	default:
		*found = append(*found, n.byStart...)
		n.left.query(start, stop, found)
		n.right.query(start, stop, found)
	}
}

func collect[V any](found []entry[V]) []Interval[V] {
	if len(found) == 0 {
		return nil
	}
	slices.SortFunc(found, func(a, b entry[V]) int { return a.index - b.index })
	ret := make([]Interval[V], len(found))
	for i, e := range found {
		ret[i] = e.Interval
	}
	return ret
}
