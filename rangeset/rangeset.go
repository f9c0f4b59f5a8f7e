// Package rangeset tracks which parts of the circular sequence space
// are covered, as a sorted collection of disjoint byte ranges.
package rangeset

import (
	"github.com/google/btree"

	"github.com/companyzero/rstream/seqn"
)

// Range is a half-open [Start, End) interval of sequence positions.
type Range struct {
	Start seqn.Seq
	End   seqn.Seq
}

// Len returns the number of positions covered by the range.
func (r Range) Len() uint32 {
	return r.End.Dist(r.Start)
}

// Set is a sorted collection of disjoint, non-touching ranges. Ranges
// that overlap or touch at an endpoint are merged on insert, so no two
// stored ranges are ever adjacent.
//
// Stored ranges are ordered by the circular Seq comparison, so a Set is
// only valid while everything it covers spans a window much smaller
// than half the sequence space. Sets are not safe for concurrent use.
type Set struct {
	t *btree.BTreeG[Range]
}

// New returns an empty set.
func New() *Set {
	return &Set{t: btree.NewG(2, func(a, b Range) bool {
		return a.Start.Less(b.Start)
	})}
}

// pred returns the last range whose start is at or before pos.
func (s *Set) pred(pos seqn.Seq) (Range, bool) {
	var r Range
	var ok bool
	s.t.DescendLessOrEqual(Range{Start: pos}, func(it Range) bool {
		r, ok = it, true
		return false
	})
	return r, ok
}

// succ returns the first range whose start is strictly after pos.
func (s *Set) succ(pos seqn.Seq) (Range, bool) {
	var r Range
	var ok bool
	s.t.AscendGreaterOrEqual(Range{Start: pos}, func(it Range) bool {
		if it.Start == pos {
			return true
		}
		r, ok = it, true
		return false
	})
	return r, ok
}

// Insert adds [start, end) to the set, merging it with every range it
// overlaps or touches. It reports whether the set gained any coverage:
// degenerate ranges (end <= start) and ranges already fully covered by
// an existing range are rejected without mutating the set.
func (s *Set) Insert(start, end seqn.Seq) bool {
	if end.LessEq(start) {
		return false
	}

	// Absorb a predecessor that reaches start, extending the new
	// range leftward.
	if p, ok := s.pred(start); ok && p.End.GreaterEq(start) {
		if p.End.GreaterEq(end) {
			// Nothing new; the predecessor already covers it.
			return false
		}
		s.t.Delete(p)
		start = p.Start
	}

	// Consume successors until one starts past end, extending end to
	// the furthest consumed endpoint.
	for {
		n, ok := s.succ(start)
		if !ok || n.Start.Greater(end) {
			break
		}
		s.t.Delete(n)
		if end.LessEq(n.End) {
			end = n.End
			break
		}
	}

	s.t.ReplaceOrInsert(Range{Start: start, End: end})
	return true
}

// Remove deletes the range keyed exactly at start and returns its end
// position. It reports false when no range starts at start.
func (s *Set) Remove(start seqn.Seq) (seqn.Seq, bool) {
	r, ok := s.t.Delete(Range{Start: start})
	if !ok {
		return 0, false
	}
	return r.End, true
}

// First returns the range with the smallest start position.
func (s *Set) First() (Range, bool) {
	return s.t.Min()
}

// Ascend calls f for every range in ascending start order until f
// returns false. The set must not be mutated during the walk.
func (s *Set) Ascend(f func(Range) bool) {
	s.t.Ascend(f)
}

// Len returns the number of disjoint ranges in the set.
func (s *Set) Len() int {
	return s.t.Len()
}
