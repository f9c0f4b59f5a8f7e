package stream

import (
	"time"

	"github.com/companyzero/rstream/seqn"
)

// PacketTrack is the per-packet delivery tracking record kept for each
// transmitted segment, keyed by the position handed out by PopUnsent.
//
// The congestion control and pacing collaborator owns these records and
// every sampling decision around them (delivery rate, RTO scheduling,
// app-limited marking); the buffers only supply the positions that
// create and retire them.
type PacketTrack struct {
	// Pos is the stream position of the segment's first byte.
	Pos seqn.Seq

	// Flow identifies the flow the segment belongs to.
	Flow uint32

	// Delivered is the connection's delivered byte count when the
	// packet was sent, used for delivery rate samples.
	Delivered uint32

	// AppLimited marks a sample taken while the application, not the
	// congestion window, limited sending.
	AppLimited bool

	// RetransRound counts the retransmission rounds the segment has
	// been through.
	RetransRound uint32

	// SentTime is when the packet was handed to the network, and
	// RTOTime its retransmission deadline.
	SentTime time.Time
	RTOTime  time.Time

	// DeliveredTime and FirstTxTime are zero until known.
	DeliveredTime time.Time
	FirstTxTime   time.Time
}
