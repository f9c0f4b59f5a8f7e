package stream

import "errors"

// Errors returned by the stream buffers. All of them are recoverable
// signals to the caller; none of them invalidates the buffer.
var (
	// ErrSizeLimitExceeded means a single write was larger than the
	// receive buffer's total capacity window.
	ErrSizeLimitExceeded = errors.New("write exceeds buffer capacity")

	// ErrOutOfRange means a write fell outside the window allowed
	// ahead of the read cursor. Typically a stale or far-future
	// retransmission; drop the packet.
	ErrOutOfRange = errors.New("write outside buffered window")

	// ErrDuplicatedData means the written range was already fully
	// buffered. The re-delivery is rejected without touching stored
	// bytes.
	ErrDuplicatedData = errors.New("range already buffered")

	// ErrNotEnoughData means a consume asked for more bytes than are
	// contiguously readable. The read cursor does not advance.
	ErrNotEnoughData = errors.New("not enough contiguous data")
)
