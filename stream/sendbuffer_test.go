package stream

import (
	"bytes"
	randv2 "math/rand/v2"
	"testing"

	"github.com/companyzero/rstream/internal/assert"
	"github.com/companyzero/rstream/seqn"
)

// TestSendBufferBasic tests segment top-up, the one-shot unsent cursor,
// retransmission lookups and capacity reclaim on acknowledgement.
func TestSendBufferBasic(t *testing.T) {
	sb := NewSendBuffer(102, 10)
	assert.BoolIs(t, sb.PushBack([]byte("12345678")), true)
	assert.BoolIs(t, sb.PushBack([]byte("123456")), true)

	pos, data, ok := sb.PopUnsent()
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, pos, seqn.Seq(0))
	assert.DeepEqual(t, string(data), "1234567812")
	assert.DeepEqual(t, sb.WritableSize(), 88)

	assert.DeepEqual(t, sb.Ack(0, 10), 1)
	assert.DeepEqual(t, sb.WritableSize(), 98)
	assert.DeepEqual(t, sb.Ack(0, 10), 0)
	assert.DeepEqual(t, sb.Ack(10, 14), 0)

	pos, data, ok = sb.PopUnsent()
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, pos, seqn.Seq(10))
	assert.DeepEqual(t, string(data), "3456")
	_, _, ok = sb.PopUnsent()
	assert.BoolIs(t, ok, false)

	data, ok = sb.Get(10)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, string(data), "3456")
	assert.DeepEqual(t, sb.Ack(10, 14), 1)
	assert.DeepEqual(t, sb.WritableSize(), 102)

	for sb.WritableSize() > 0 {
		assert.BoolIs(t, sb.PushBack([]byte("12")), true)
	}
	assert.BoolIs(t, sb.PushBack([]byte("1")), false)
	for i := 0; i < 10; i++ {
		pos, data, ok = sb.PopUnsent()
		assert.BoolIs(t, ok, true)
		assert.DeepEqual(t, pos, seqn.Seq(14+10*i))
		assert.DeepEqual(t, string(data), "1212121212")
	}
	assert.DeepEqual(t, sb.WritableSize(), 0)
	assert.DeepEqual(t, sb.Ack(14, 114), 10)
	assert.DeepEqual(t, sb.WritableSize(), 100)
}

// TestSendBufferNonPrefixAck tests that segments acknowledged behind an
// unacknowledged hole keep occupying capacity until the hole is filled.
func TestSendBufferNonPrefixAck(t *testing.T) {
	sb := NewSendBuffer(100, 10)
	assert.BoolIs(t, sb.PushBack(bytes.Repeat([]byte("a"), 30)), true)
	for i := 0; i < 3; i++ {
		_, _, ok := sb.PopUnsent()
		assert.BoolIs(t, ok, true)
	}

	// The middle segment is gone but its bytes still count.
	assert.DeepEqual(t, sb.Ack(10, 20), 1)
	assert.DeepEqual(t, sb.WritableSize(), 70)
	_, ok := sb.Get(10)
	assert.BoolIs(t, ok, false)
	_, ok = sb.Get(0)
	assert.BoolIs(t, ok, true)

	// Acking the hole releases everything up to the next live segment.
	assert.DeepEqual(t, sb.Ack(0, 10), 1)
	assert.DeepEqual(t, sb.WritableSize(), 90)
	assert.DeepEqual(t, sb.Ack(20, 30), 1)
	assert.DeepEqual(t, sb.WritableSize(), 100)
}

// TestSendBufferSegmentation tests that top-up never touches segments
// already handed to the network and long pushes are cut at mss.
func TestSendBufferSegmentation(t *testing.T) {
	sb := NewSendBuffer(1000, 10)
	assert.BoolIs(t, sb.PushBack([]byte("hello")), true)
	pos, data, ok := sb.PopUnsent()
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, pos, seqn.Seq(0))
	assert.DeepEqual(t, string(data), "hello")

	assert.BoolIs(t, sb.PushBack([]byte("world!")), true)
	pos, data, ok = sb.PopUnsent()
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, pos, seqn.Seq(5))
	assert.DeepEqual(t, string(data), "world!")
	data, ok = sb.Get(0)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, string(data), "hello")

	assert.BoolIs(t, sb.PushBack(bytes.Repeat([]byte("x"), 35)), true)
	for {
		_, data, ok := sb.PopUnsent()
		if !ok {
			break
		}
		assert.BoolIs(t, len(data) <= 10, true)
	}
}

// TestSendBufferSustained runs alternating push, drain and ack rounds
// over a large byte count.
func TestSendBufferSustained(t *testing.T) {
	rng := randv2.New(randv2.NewPCG(9, 0))
	data := [2][]byte{make([]byte, 10000), make([]byte, 10000)}
	for _, d := range data {
		for i := range d {
			d[i] = byte(rng.Uint32())
		}
	}

	const limit = 10485760
	sb := NewSendBuffer(limit, 1400)
	pos := seqn.Seq(0)
	slot := 0
	for total := 0; total < 1<<26; {
		assert.BoolIs(t, sb.PushBack(data[slot]), true)
		assert.DeepEqual(t, sb.WritableSize(), limit-(slot+1)*len(data[0]))

		cmp := 0
		for {
			got, seg, ok := sb.PopUnsent()
			if !ok {
				break
			}
			assert.DeepEqual(t, got, pos)
			assert.BoolIs(t, bytes.Equal(seg, data[slot][cmp:cmp+len(seg)]), true)
			pos = pos.Add(uint32(len(seg)))
			cmp += len(seg)
		}

		total += len(data[slot])
		slot ^= 1
		// Reclaim the send buffer every two rounds.
		if slot == 0 {
			sb.Ack(pos.Sub(uint32(2*len(data[0]))), pos)
		}
	}
}
