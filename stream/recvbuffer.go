// Package stream implements the buffering core of a reliable, ordered
// byte stream carried over an unreliable packet substrate: a receive
// buffer that reassembles out-of-order packet payloads into a
// contiguous stream, and a send buffer that segments outbound bytes and
// retires them on acknowledgement.
//
// The buffers are plain single-threaded structures. The owning
// connection serializes all calls into a given buffer; there is no
// internal locking and no operation ever blocks.
package stream

import (
	"github.com/companyzero/rstream/rangeset"
	"github.com/companyzero/rstream/seqn"
)

// Receive buffer block allocation unit.
const (
	recvBlockBits = 17
	recvBlockSize = 1 << recvBlockBits // 128KiB
	recvBlockMask = recvBlockSize - 1
)

// RecvBuffer reassembles the bytes of one inbound flow. Packet payloads
// are written at their absolute stream position, in any order, possibly
// duplicated or overlapping; the application drains only the contiguous
// prefix at the read cursor via Peek and Consume.
//
// Storage is allocated lazily in fixed-size blocks and dropped from the
// front as the application consumes bytes.
type RecvBuffer struct {
	// startPos is the position of the first byte not yet consumed by
	// the application. It only ever advances, and the first block
	// always backs the byte at startPos.
	startPos seqn.Seq

	// maxBlocks bounds the bytes buffered ahead of startPos, rounded
	// up to block granularity.
	maxBlocks uint32

	// ranges records which positions have been written, in absolute
	// sequence space. A first range starting exactly at startPos is
	// the contiguous readable prefix.
	ranges *rangeset.Set

	// blocks is the deque of storage blocks.
	blocks [][]byte
}

// NewRecvBuffer returns a receive buffer able to hold size bytes ahead
// of the read cursor, rounded up to whole 128KiB blocks. The size must
// stay well below 2^31 for the circular position arithmetic to remain
// valid; real receive windows are a few megabytes.
func NewRecvBuffer(size uint32) *RecvBuffer {
	maxBlocks := size >> recvBlockBits
	if size&recvBlockMask != 0 {
		maxBlocks++
	}
	return &RecvBuffer{
		maxBlocks: maxBlocks,
		ranges:    rangeset.New(),
	}
}

// window returns how many bytes may currently sit ahead of the read
// cursor: the block capacity minus the cursor's offset into its block.
func (rb *RecvBuffer) window() uint32 {
	return recvBlockSize*rb.maxBlocks - (uint32(rb.startPos) & recvBlockMask)
}

// Write copies one packet payload into the buffer at the given stream
// position. It fails with ErrSizeLimitExceeded when the payload alone
// cannot fit the buffer's window, ErrOutOfRange when any part of it
// falls outside the window ahead of the read cursor, and
// ErrDuplicatedData when the range is already fully buffered. Duplicate
// writes never modify stored bytes.
func (rb *RecvBuffer) Write(pos seqn.Seq, data []byte) error {
	end := pos.Add(uint32(len(data)))
	window := rb.window()
	if uint32(len(data)) > window {
		return ErrSizeLimitExceeded
	}
	if pos.Dist(rb.startPos) > window || end.Dist(rb.startPos) > window {
		log.Tracef("dropping %d bytes at %d: outside window from %d",
			len(data), pos, rb.startPos)
		return ErrOutOfRange
	}
	if !rb.ranges.Insert(pos, end) {
		return ErrDuplicatedData
	}

	// Grow the block deque to back every position up to end. New
	// blocks are zero filled.
	blockStart := rb.startPos.Sub(uint32(rb.startPos) & recvBlockMask)
	required := end.Dist(blockStart) >> recvBlockBits
	if uint32(end)&recvBlockMask != 0 {
		required++
	}
	for uint32(len(rb.blocks)) < required {
		rb.blocks = append(rb.blocks, make([]byte, recvBlockSize))
	}

	// Copy, splitting across block boundaries as needed.
	remain := len(data)
	bufPos := pos
	off := 0
	for remain > 0 {
		blk := bufPos.Dist(blockStart) >> recvBlockBits
		blkOff := int(uint32(bufPos) & recvBlockMask)
		n := min(remain, recvBlockSize-blkOff)
		copy(rb.blocks[blk][blkOff:blkOff+n], data[off:off+n])
		off += n
		remain -= n
		bufPos = bufPos.Add(uint32(n))
	}
	return nil
}

// ReadableSize returns the length of the contiguous run of bytes
// starting exactly at the read cursor, or 0 while a gap still precedes
// the buffered data.
func (rb *RecvBuffer) ReadableSize() int {
	first, ok := rb.ranges.First()
	if !ok || first.Start != rb.startPos {
		return 0
	}
	return int(first.Len())
}

// Peek returns a view of up to one block's worth of the readable
// prefix, or nil when nothing is readable. The returned slice aliases
// internal storage and is only valid until the next Consume or Write.
func (rb *RecvBuffer) Peek() []byte {
	readable := rb.ReadableSize()
	if readable == 0 {
		return nil
	}
	off := int(uint32(rb.startPos) & recvBlockMask)
	n := min(readable, recvBlockSize-off)
	return rb.blocks[0][off : off+n]
}

// Consume advances the read cursor by n bytes, dropping storage blocks
// that become fully consumed. It fails with ErrNotEnoughData when n
// exceeds ReadableSize; n == 0 always succeeds.
func (rb *RecvBuffer) Consume(n int) error {
	if n == 0 {
		return nil
	}
	if rb.ReadableSize() < n {
		return ErrNotEnoughData
	}

	first, _ := rb.ranges.First()
	remain := n
	for remain > 0 {
		blkRemain := recvBlockSize - int(uint32(rb.startPos)&recvBlockMask)
		if remain >= blkRemain {
			rb.startPos = rb.startPos.Add(uint32(blkRemain))
			remain -= blkRemain
			rb.blocks[0] = nil
			rb.blocks = rb.blocks[1:]
		} else {
			rb.startPos = rb.startPos.Add(uint32(remain))
			remain = 0
		}
	}

	// Shrink (or drop) the consumed prefix range.
	rb.ranges.Remove(first.Start)
	if rb.startPos != first.End {
		rb.ranges.Insert(rb.startPos, first.End)
	}
	return nil
}
