// Package submsg walks the submessage stream inside a decoded RTPS
// message, maintaining the mutable interpretation context that
// INFO_SOURCE, INFO_DESTINATION and INFO_TIMESTAMP submessages retarget
// (INFO_REPLY is accepted and ignored), and emits one event per entity
// submessage (Data, DataFrag, Heartbeat, HeartbeatFrag, AckNack, NackFrag,
// Gap).
package submsg

import (
	"hash/fnv"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/wire"
)

// Context is the mutable state a submessage stream's INFO_* submessages
// retarget; it starts from the enclosing message's header and applies to
// every entity submessage that follows until changed again.
type Context struct {
	SourceGUIDPrefix rtps.GUIDPrefix
	DestGUIDPrefix   rtps.GUIDPrefix
	HasDest          bool
	Timestamp        time.Time
	HasTimestamp     bool
}

// readerGUID resolves a submessage's reader entity ID to a full GUID,
// preferring the destination prefix set by a prior INFO_DESTINATION over
// the message's own source prefix.
func (c Context) readerGUID(id rtps.EntityID) rtps.GUID {
	prefix := c.SourceGUIDPrefix
	if c.HasDest {
		prefix = c.DestGUIDPrefix
	}
	return rtps.GUID{Prefix: prefix, Entity: id}
}

func (c Context) writerGUID(id rtps.EntityID) rtps.GUID {
	return rtps.GUID{Prefix: c.SourceGUIDPrefix, Entity: id}
}

// readerSourcedWriterGUID resolves the writer targeted by a reader-sourced
// submessage (AckNack, NackFrag) to a full GUID, preferring the
// destination prefix set by a prior INFO_DESTINATION over the message's
// own source prefix. Reader-sourced submessages invert the writer/reader
// convention writerGUID/readerGUID apply to writer-sourced submessages:
// the reader originates the message (source prefix) and the writer is
// the addressee (destination-preferring prefix).
func (c Context) readerSourcedWriterGUID(id rtps.EntityID) rtps.GUID {
	prefix := c.SourceGUIDPrefix
	if c.HasDest {
		prefix = c.DestGUIDPrefix
	}
	return rtps.GUID{Prefix: prefix, Entity: id}
}

// readerSourcedReaderGUID resolves the originating reader of a
// reader-sourced submessage, which always uses the message's own source
// prefix.
func (c Context) readerSourcedReaderGUID(id rtps.EntityID) rtps.GUID {
	return rtps.GUID{Prefix: c.SourceGUIDPrefix, Entity: id}
}

// Walk decodes every entity submessage in msg into an Event, threading an
// interpretation Context seeded from msg.Header through INFO_SOURCE,
// INFO_DESTINATION and INFO_TIMESTAMP submessages as it encounters them.
func Walk(msg wire.Message) []Event {
	ctx := Context{SourceGUIDPrefix: msg.Header.GUIDPrefix}

	var events []Event
	for _, sub := range msg.Submessages {
		switch body := sub.Body.(type) {
		case wire.InfoSource:
			ctx.SourceGUIDPrefix = body.GUIDPrefix
		case wire.InfoDestination:
			ctx.DestGUIDPrefix = body.GUIDPrefix
			ctx.HasDest = true
		case wire.InfoReply:
			// Ignored: its locator lists are not stored in the context and
			// no event is emitted for it.
		case wire.InfoTimestamp:
			if body.Invalidate {
				ctx.HasTimestamp = false
			} else {
				ctx.Timestamp = body.Timestamp
				ctx.HasTimestamp = true
			}
		case wire.Data:
			events = append(events, buildDataEvent(ctx, body))
		case wire.DataFrag:
			events = append(events, buildDataFragEvent(ctx, body))
		case wire.Heartbeat:
			events = append(events, HeartbeatEvent{
				WriterID: ctx.writerGUID(body.WriterID),
				FirstSN:  body.FirstSN,
				LastSN:   body.LastSN,
				Count:    body.Count,
			})
		case wire.HeartbeatFrag:
			events = append(events, HeartbeatFragEvent{
				WriterID:        ctx.writerGUID(body.WriterID),
				WriterSN:        body.WriterSN,
				LastFragmentNum: body.LastFragmentNum,
				Count:           body.Count,
			})
		case wire.AckNack:
			events = append(events, AckNackEvent{
				WriterID:   ctx.readerSourcedWriterGUID(body.WriterID),
				ReaderID:   ctx.readerSourcedReaderGUID(body.ReaderID),
				Count:      body.Count,
				BaseSN:     body.ReaderSNState.Base,
				MissingSNs: body.ReaderSNState.Offsets(),
			})
		case wire.NackFrag:
			events = append(events, NackFragEvent{
				WriterID: ctx.readerSourcedWriterGUID(body.WriterID),
				ReaderID: ctx.readerSourcedReaderGUID(body.ReaderID),
				WriterSN: body.WriterSN,
				Count:    body.Count,
			})
		case wire.Gap:
			events = append(events, GapEvent{
				WriterID: ctx.writerGUID(body.WriterID),
				ReaderID: ctx.readerGUID(body.ReaderID),
				GapStart: body.GapStart,
				GapList:  body.GapList.Offsets(),
			})
		}
	}
	return events
}

func buildDataEvent(ctx Context, d wire.Data) DataEvent {
	writerID := ctx.writerGUID(d.WriterID)
	ev := DataEvent{
		WriterID:    writerID,
		ReaderID:    ctx.readerGUID(d.ReaderID),
		WriterSN:    d.WriterSN,
		PayloadSize: len(d.SerializedPayload),
	}
	if ctx.HasTimestamp {
		ev.Timestamp = ctx.Timestamp
	}
	if d.WriterID.IsBuiltinSEDPOrSPDP() && len(d.SerializedPayload) > 0 {
		if info, err := wire.ParseDiscoveredEndpointInfo(d.SerializedPayload, true); err == nil {
			ev.Discovery = &info
		}
	}
	return ev
}

func buildDataFragEvent(ctx Context, d wire.DataFrag) DataFragEvent {
	return DataFragEvent{
		WriterID:              ctx.writerGUID(d.WriterID),
		ReaderID:              ctx.readerGUID(d.ReaderID),
		WriterSN:              d.WriterSN,
		FragmentStartingNum:   d.FragmentStartingNum,
		FragmentsInSubmessage: d.FragmentsInSubmessage,
		DataSize:              d.DataSize,
		FragmentSize:          d.FragmentSize,
		PayloadSize:           len(d.SerializedPayload),
		PayloadHash:           hashBytes(d.SerializedPayload),
	}
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
