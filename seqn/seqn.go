// Package seqn provides the circular 32-bit sequence position type used
// to address bytes and datagrams of a flow, plus a small window tracker
// for suppressing duplicate datagrams.
package seqn

// Seq is a position in the circular sequence space [0, 2^32).
// Arithmetic wraps silently at the end of the space and ordering is
// circular: a position compares greater than everything in the half
// space behind it and less than everything in the half space ahead of
// it.
//
// Comparisons and distances are only meaningful while the positions
// involved lie within a window much smaller than 2^31 of each other.
// The transport's buffering limits guarantee this; the type itself
// cannot detect violations.
type Seq uint32

// Add returns s advanced by n positions.
func (s Seq) Add(n uint32) Seq {
	return s + Seq(n)
}

// Sub returns s moved back by n positions.
func (s Seq) Sub(n uint32) Seq {
	return s - Seq(n)
}

// Dist returns the forward distance from o to s.
func (s Seq) Dist(o Seq) uint32 {
	return uint32(s - o)
}

// Less reports whether s is behind o in the circular ordering.
func (s Seq) Less(o Seq) bool {
	return int32(s-o) < 0
}

// LessEq reports whether s equals o or is behind it.
func (s Seq) LessEq(o Seq) bool {
	return int32(s-o) <= 0
}

// Greater reports whether s is ahead of o in the circular ordering.
func (s Seq) Greater(o Seq) bool {
	return int32(s-o) > 0
}

// GreaterEq reports whether s equals o or is ahead of it.
func (s Seq) GreaterEq(o Seq) bool {
	return int32(s-o) >= 0
}
