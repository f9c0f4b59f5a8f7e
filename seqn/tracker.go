package seqn

import "math"

// Tracker suppresses duplicate datagrams inside a 16-packet wide
// receive window. The transport consults it with the raw sequence
// position of every arriving datagram, before any reassembly work is
// done for the payload.
//
// Tracking starts at zero. Once the tracked position nears the end of
// the sequence space, any position in the first half of the space is
// accepted so the window follows the wrap.
//
// The zero value is ready for use. Like the stream buffers, a Tracker
// is not safe for concurrent use; the owning connection serializes
// access to it.
type Tracker struct {
	// last is the highest position accepted so far.
	last int64

	// win is the bitmap of datagrams received within the window
	// [last-16, last].
	win uint16
}

// MayAccept reports whether the datagram at position s should be
// processed, and advances the window state.
func (tr *Tracker) MayAccept(s Seq) bool {
	const winSize = 16 // MUST match the width of tr.win
	const wrapAt = math.MaxUint32 - winSize
	const wrapAcceptBelow = 1 << 31

	is := int64(s)
	d := is - tr.last
	switch {
	case d > 0:
		// Window moves forward.
		tr.last = is
		if d > winSize {
			tr.win = 1
		} else {
			tr.win = tr.win<<byte(d) | 1
		}
		return true
	case d > -winSize:
		// Behind the tracked position but still inside the
		// window. Accept only when not received yet.
		mask := uint16(1) << byte(-d)
		seen := tr.win&mask != 0
		tr.win |= mask
		return !seen
	case tr.last > wrapAt && is < wrapAcceptBelow:
		// Wrapped around the end of the space.
		tr.last = is
		tr.win = 1
		return true
	}
	return false
}
