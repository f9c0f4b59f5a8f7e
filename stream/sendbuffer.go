package stream

import (
	"github.com/google/btree"

	"github.com/companyzero/rstream/seqn"
)

// segment is one mss-bounded chunk of outbound bytes, keyed by the
// stream position of its first byte.
type segment struct {
	pos  seqn.Seq
	data []byte
}

// SendBuffer stores the outbound bytes of one flow, segmented to a
// maximum segment size. Bytes pushed by the application are handed to
// the network once each via PopUnsent, stay buffered for retransmission
// lookups via Get, and are retired by acknowledged ranges via Ack.
//
// Capacity follows cumulative acknowledgement semantics: segments
// acknowledged out of order are removed (they will never be resent) but
// their bytes keep counting against the limit until every preceding
// segment is acknowledged too, since they cannot be evicted from the
// front of the logical ring before that.
type SendBuffer struct {
	// queue holds the buffered segments ordered by start position.
	// Walking from the earliest key forward by segment lengths
	// reaches every key with no gaps.
	queue *btree.BTreeG[segment]

	// enqueue is the position right after the last buffered byte;
	// unsent is the first position not yet handed to the network.
	// unsent never passes enqueue.
	enqueue seqn.Seq
	unsent  seqn.Seq

	// size counts every buffered byte against limit.
	size  int
	limit int
	mss   int
}

// NewSendBuffer returns an empty send buffer holding at most limit
// bytes, segmented into chunks of at most mss bytes each.
func NewSendBuffer(limit, mss int) *SendBuffer {
	return &SendBuffer{
		queue: btree.NewG(2, func(a, b segment) bool {
			return a.pos.Less(b.pos)
		}),
		limit: limit,
		mss:   mss,
	}
}

// WritableSize returns how many more bytes PushBack currently accepts.
func (sb *SendBuffer) WritableSize() int {
	return sb.limit - sb.size
}

// PushBack appends data to the buffer, topping up the last segment when
// it is still short of mss and has not been handed to the network yet,
// then cutting the remainder into mss-sized segments. It reports false
// without buffering anything when data would push the buffered size
// past the limit; the application should back off and retry after the
// peer acknowledges some bytes.
//
// The bytes are copied; the caller keeps ownership of data.
func (sb *SendBuffer) PushBack(data []byte) bool {
	if sb.size+len(data) > sb.limit {
		log.Tracef("push of %d bytes rejected: %d of %d buffered",
			len(data), sb.size, sb.limit)
		return false
	}

	offset := 0
	if last, ok := sb.queue.Max(); ok {
		if last.pos.GreaterEq(sb.unsent) && sb.mss > len(last.data) {
			n := min(sb.mss-len(last.data), len(data))
			last.data = append(last.data, data[:n]...)
			sb.queue.ReplaceOrInsert(last)
			offset += n
			sb.enqueue = sb.enqueue.Add(uint32(n))
		}
	}
	for offset < len(data) {
		n := min(sb.mss, len(data)-offset)
		seg := segment{pos: sb.enqueue, data: make([]byte, n, sb.mss)}
		copy(seg.data, data[offset:offset+n])
		sb.queue.ReplaceOrInsert(seg)
		offset += n
		sb.enqueue = sb.enqueue.Add(uint32(n))
	}

	sb.size += len(data)
	return true
}

// PopUnsent returns the next never-transmitted segment and advances the
// unsent cursor past it, or reports false when everything buffered has
// already been handed out. Each segment is returned exactly once here;
// retransmissions go through Get. The returned slice aliases buffer
// storage and must not be held past the segment's acknowledgement.
func (sb *SendBuffer) PopUnsent() (seqn.Seq, []byte, bool) {
	if sb.unsent.GreaterEq(sb.enqueue) {
		return 0, nil, false
	}

	seg, ok := sb.queue.Get(segment{pos: sb.unsent})
	if !ok {
		return 0, nil, false
	}
	pos := seg.pos
	sb.unsent = sb.unsent.Add(uint32(len(seg.data)))
	return pos, seg.data, true
}

// Get returns the still-buffered segment starting exactly at pos, for
// retransmission of previously sent but unacknowledged bytes. It
// reports false when pos is not a buffered segment boundary (already
// acknowledged, or never a segment start).
func (sb *SendBuffer) Get(pos seqn.Seq) ([]byte, bool) {
	seg, ok := sb.queue.Get(segment{pos: pos})
	if !ok {
		return nil, false
	}
	return seg.data, true
}

// Ack removes every segment whose start position falls in [start, end)
// and returns how many were removed. Malformed ranges (end <= start)
// and ranges covering bytes never handed to the network are rejected
// with 0 and no state change.
//
// Capacity is reclaimed only by the distance the earliest remaining
// segment advanced past the pre-ack earliest segment, or by the whole
// buffered span when the buffer empties.
func (sb *SendBuffer) Ack(start, end seqn.Seq) int {
	if end.LessEq(start) || start.GreaterEq(sb.unsent) || end.Greater(sb.unsent) {
		return 0
	}

	first, ok := sb.queue.Min()
	if !ok {
		return 0
	}
	origStart := first.pos

	acked := 0
	for {
		var got segment
		found := false
		sb.queue.AscendGreaterOrEqual(segment{pos: start}, func(it segment) bool {
			got, found = it, true
			return false
		})
		if !found || got.pos.GreaterEq(end) {
			break
		}
		sb.queue.Delete(got)
		start = got.pos.Add(1)
		acked++
	}

	if newFirst, ok := sb.queue.Min(); ok {
		sb.size -= int(newFirst.pos.Dist(origStart))
	} else {
		sb.size = 0
	}
	return acked
}
