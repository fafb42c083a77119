package submsg

import (
	"testing"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/wire"
)

func TestWalkHeartbeatUsesSourcePrefix(t *testing.T) {
	var prefix rtps.GUIDPrefix
	copy(prefix[:], []byte{1, 2, 3})

	msg := wire.Message{
		Header: wire.Header{GUIDPrefix: prefix},
		Submessages: []wire.Submessage{
			{Body: wire.Heartbeat{
				WriterID: rtps.EntityID{0, 0, 1, 2},
				FirstSN:  1,
				LastSN:   10,
				Count:    3,
			}},
		},
	}

	events := Walk(msg)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	hb, ok := events[0].(HeartbeatEvent)
	if !ok {
		t.Fatalf("event type = %T, want HeartbeatEvent", events[0])
	}
	if hb.WriterID.Prefix != prefix {
		t.Errorf("WriterID.Prefix = %v, want %v", hb.WriterID.Prefix, prefix)
	}
	if hb.FirstSN != 1 || hb.LastSN != 10 || hb.Count != 3 {
		t.Errorf("HeartbeatEvent = %+v, unexpected", hb)
	}
}

func TestWalkInfoSourceRetargetsSubsequentSubmessages(t *testing.T) {
	var headerPrefix, sourcePrefix rtps.GUIDPrefix
	copy(headerPrefix[:], []byte{1})
	copy(sourcePrefix[:], []byte{2})

	msg := wire.Message{
		Header: wire.Header{GUIDPrefix: headerPrefix},
		Submessages: []wire.Submessage{
			{Body: wire.InfoSource{GUIDPrefix: sourcePrefix}},
			{Body: wire.Heartbeat{WriterID: rtps.EntityID{0, 0, 1, 2}}},
		},
	}

	events := Walk(msg)
	hb := events[0].(HeartbeatEvent)
	if hb.WriterID.Prefix != sourcePrefix {
		t.Errorf("WriterID.Prefix = %v, want retargeted %v", hb.WriterID.Prefix, sourcePrefix)
	}
}

func TestWalkInfoDestinationAffectsAckNackWriterGUID(t *testing.T) {
	var headerPrefix, destPrefix rtps.GUIDPrefix
	copy(headerPrefix[:], []byte{1})
	copy(destPrefix[:], []byte{9})

	msg := wire.Message{
		Header: wire.Header{GUIDPrefix: headerPrefix},
		Submessages: []wire.Submessage{
			{Body: wire.InfoDestination{GUIDPrefix: destPrefix}},
			{Body: wire.AckNack{
				ReaderID: rtps.EntityID{0, 0, 1, 4},
				WriterID: rtps.EntityID{0, 0, 1, 2},
			}},
		},
	}

	// AckNack is reader-sourced: the reader is the originator (always the
	// source prefix), and the writer is the addressee (destination prefix
	// when INFO_DESTINATION set it) — the inverse of Heartbeat's
	// writer-sourced convention.
	events := Walk(msg)
	an := events[0].(AckNackEvent)
	if an.WriterID.Prefix != destPrefix {
		t.Errorf("WriterID.Prefix = %v, want %v", an.WriterID.Prefix, destPrefix)
	}
	if an.ReaderID.Prefix != headerPrefix {
		t.Errorf("ReaderID.Prefix = %v, want %v (unaffected by INFO_DESTINATION)", an.ReaderID.Prefix, headerPrefix)
	}
}

func TestWalkAckNackCarriesSNStateSnapshot(t *testing.T) {
	msg := wire.Message{
		Submessages: []wire.Submessage{
			{Body: wire.AckNack{
				ReaderID:      rtps.EntityID{0, 0, 1, 4},
				WriterID:      rtps.EntityID{0, 0, 1, 2},
				ReaderSNState: wire.SequenceNumberSet{Base: 6, NumBits: 2, Bitmap: []uint32{0xC0000000}},
				Count:         1,
			}},
		},
	}

	events := Walk(msg)
	an := events[0].(AckNackEvent)
	if an.BaseSN != 6 {
		t.Errorf("BaseSN = %d, want 6", an.BaseSN)
	}
	if len(an.MissingSNs) != 2 {
		t.Errorf("MissingSNs = %v, want 2 offsets set", an.MissingSNs)
	}
}

func TestWalkGapRecordsVerbatim(t *testing.T) {
	msg := wire.Message{
		Submessages: []wire.Submessage{
			{Body: wire.Gap{
				GapStart: 5,
				GapList:  wire.SequenceNumberSet{Base: 6, NumBits: 2, Bitmap: []uint32{0xC0000000}},
			}},
		},
	}
	events := Walk(msg)
	gap := events[0].(GapEvent)
	if gap.GapStart != 5 {
		t.Errorf("GapStart = %d, want 5", gap.GapStart)
	}
	if len(gap.GapList) != 2 {
		t.Errorf("GapList = %v, want 2 offsets set", gap.GapList)
	}
}
