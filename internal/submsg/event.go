package submsg

import (
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/wire"
)

// Event is the common interface satisfied by every submessage-derived
// event Walk can produce. It exists only to let callers range over a
// mixed slice; consumers type-switch on the concrete type.
type Event interface {
	isEvent()
}

// DataEvent records a writer publishing one complete sample.
type DataEvent struct {
	WriterID    rtps.GUID
	ReaderID    rtps.GUID
	WriterSN    rtps.SequenceNumber
	PayloadSize int
	Timestamp   time.Time
	Discovery   *wire.DiscoveredEndpointInfo
}

// DataFragEvent records one fragment of a sample too large for a single
// Data submessage.
type DataFragEvent struct {
	WriterID              rtps.GUID
	ReaderID              rtps.GUID
	WriterSN              rtps.SequenceNumber
	FragmentStartingNum   rtps.FragmentNumber
	FragmentsInSubmessage uint16
	DataSize              uint32
	FragmentSize          uint16
	PayloadSize           int
	PayloadHash           uint64
}

// HeartbeatEvent records a writer announcing the sequence number range
// it currently holds.
type HeartbeatEvent struct {
	WriterID rtps.GUID
	FirstSN  rtps.SequenceNumber
	LastSN   rtps.SequenceNumber
	Count    int32
}

// HeartbeatFragEvent records a writer announcing the highest fragment
// number sent so far for a sample still being fragmented.
type HeartbeatFragEvent struct {
	WriterID        rtps.GUID
	WriterSN        rtps.SequenceNumber
	LastFragmentNum rtps.FragmentNumber
	Count           int32
}

// AckNackEvent records a reader acknowledging (or negatively
// acknowledging) a writer's sequence numbers. BaseSN/MissingSNs is the
// reader's {base_sn, missing_sn} snapshot: every sequence number from
// BaseSN up is acknowledged except the ones listed in MissingSNs
// (offsets relative to BaseSN).
type AckNackEvent struct {
	WriterID   rtps.GUID
	ReaderID   rtps.GUID
	Count      int32
	BaseSN     rtps.SequenceNumber
	MissingSNs []uint32
}

// NackFragEvent records a reader requesting retransmission of specific
// fragments of a sample.
type NackFragEvent struct {
	WriterID rtps.GUID
	ReaderID rtps.GUID
	WriterSN rtps.SequenceNumber
	Count    int32
}

// GapEvent records a writer announcing that a range of sequence numbers
// will never be delivered. It is recorded verbatim; no counters are
// incremented for it.
type GapEvent struct {
	WriterID rtps.GUID
	ReaderID rtps.GUID
	GapStart rtps.SequenceNumber
	GapList  []uint32
}

func (DataEvent) isEvent()          {}
func (DataFragEvent) isEvent()      {}
func (HeartbeatEvent) isEvent()     {}
func (HeartbeatFragEvent) isEvent() {}
func (AckNackEvent) isEvent()       {}
func (NackFragEvent) isEvent()      {}
func (GapEvent) isEvent()           {}
