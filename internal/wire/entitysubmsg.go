package wire

import "github.com/NewsLabNTU/ddshark-go/internal/rtps"

// Data submessage flags.
const (
	dataFlagInlineQos = 0x02
	dataFlagData      = 0x04
	dataFlagKey       = 0x08
)

// Data carries a serialized sample (or key) from a writer to a reader.
type Data struct {
	ReaderID          rtps.EntityID
	WriterID          rtps.EntityID
	WriterSN          rtps.SequenceNumber
	SerializedPayload []byte
}

func parseData(h SubmessageHeader, body []byte) (Data, error) {
	r := newReader(body, order(h))
	if _, err := r.u16(); err != nil { // extraFlags
		return Data{}, err
	}
	octetsToInlineQos, err := r.u16()
	if err != nil {
		return Data{}, err
	}
	readerID, err := r.entityID()
	if err != nil {
		return Data{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return Data{}, err
	}
	writerSN, err := r.sequenceNumber()
	if err != nil {
		return Data{}, err
	}

	// octetsToInlineQos is measured from just after that field; skip
	// forward to its target if the header declared more than we've
	// consumed (covers vendor-specific extensions to the fixed prefix).
	consumedSinceField := r.pos - 4
	if extra := int(octetsToInlineQos) - consumedSinceField; extra > 0 {
		if _, err := r.bytes(extra); err != nil {
			return Data{}, err
		}
	}

	if h.Flags&dataFlagInlineQos != 0 {
		if _, err := parseParameterList(r); err != nil {
			return Data{}, err
		}
	}

	var payload []byte
	if h.Flags&(dataFlagData|dataFlagKey) != 0 {
		payload = body[r.pos:]
	}

	return Data{
		ReaderID:          readerID,
		WriterID:          writerID,
		WriterSN:          writerSN,
		SerializedPayload: payload,
	}, nil
}

// DataFrag flags.
const dataFragFlagInlineQos = 0x02

// DataFrag carries one fragment of a sample too large to fit a single Data
// submessage.
type DataFrag struct {
	ReaderID              rtps.EntityID
	WriterID              rtps.EntityID
	WriterSN              rtps.SequenceNumber
	FragmentStartingNum   rtps.FragmentNumber
	FragmentsInSubmessage uint16
	FragmentSize          uint16
	DataSize              uint32
	SerializedPayload     []byte
}

func parseDataFrag(h SubmessageHeader, body []byte) (DataFrag, error) {
	r := newReader(body, order(h))
	if _, err := r.u16(); err != nil { // extraFlags
		return DataFrag{}, err
	}
	octetsToInlineQos, err := r.u16()
	if err != nil {
		return DataFrag{}, err
	}
	readerID, err := r.entityID()
	if err != nil {
		return DataFrag{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return DataFrag{}, err
	}
	writerSN, err := r.sequenceNumber()
	if err != nil {
		return DataFrag{}, err
	}
	fragStart, err := r.u32()
	if err != nil {
		return DataFrag{}, err
	}
	fragsInSubmsg, err := r.u16()
	if err != nil {
		return DataFrag{}, err
	}
	fragSize, err := r.u16()
	if err != nil {
		return DataFrag{}, err
	}
	dataSize, err := r.u32()
	if err != nil {
		return DataFrag{}, err
	}

	consumedSinceField := r.pos - 4
	if extra := int(octetsToInlineQos) - consumedSinceField; extra > 0 {
		if _, err := r.bytes(extra); err != nil {
			return DataFrag{}, err
		}
	}

	if h.Flags&dataFragFlagInlineQos != 0 {
		if _, err := parseParameterList(r); err != nil {
			return DataFrag{}, err
		}
	}

	return DataFrag{
		ReaderID:              readerID,
		WriterID:              writerID,
		WriterSN:              writerSN,
		FragmentStartingNum:   rtps.FragmentNumber(fragStart),
		FragmentsInSubmessage: fragsInSubmsg,
		FragmentSize:          fragSize,
		DataSize:              dataSize,
		SerializedPayload:     body[r.pos:],
	}, nil
}

// Heartbeat announces the range of sequence numbers a writer currently
// holds.
type Heartbeat struct {
	ReaderID rtps.EntityID
	WriterID rtps.EntityID
	FirstSN  rtps.SequenceNumber
	LastSN   rtps.SequenceNumber
	Count    int32
}

func parseHeartbeat(h SubmessageHeader, body []byte) (Heartbeat, error) {
	r := newReader(body, order(h))
	readerID, err := r.entityID()
	if err != nil {
		return Heartbeat{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return Heartbeat{}, err
	}
	firstSN, err := r.sequenceNumber()
	if err != nil {
		return Heartbeat{}, err
	}
	lastSN, err := r.sequenceNumber()
	if err != nil {
		return Heartbeat{}, err
	}
	count, err := r.i32()
	if err != nil {
		return Heartbeat{}, err
	}
	return Heartbeat{ReaderID: readerID, WriterID: writerID, FirstSN: firstSN, LastSN: lastSN, Count: count}, nil
}

// HeartbeatFrag announces the highest fragment number a writer has sent
// for a sample still in fragmented delivery.
type HeartbeatFrag struct {
	ReaderID        rtps.EntityID
	WriterID        rtps.EntityID
	WriterSN        rtps.SequenceNumber
	LastFragmentNum rtps.FragmentNumber
	Count           int32
}

func parseHeartbeatFrag(h SubmessageHeader, body []byte) (HeartbeatFrag, error) {
	r := newReader(body, order(h))
	readerID, err := r.entityID()
	if err != nil {
		return HeartbeatFrag{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return HeartbeatFrag{}, err
	}
	writerSN, err := r.sequenceNumber()
	if err != nil {
		return HeartbeatFrag{}, err
	}
	lastFrag, err := r.u32()
	if err != nil {
		return HeartbeatFrag{}, err
	}
	count, err := r.i32()
	if err != nil {
		return HeartbeatFrag{}, err
	}
	return HeartbeatFrag{
		ReaderID:        readerID,
		WriterID:        writerID,
		WriterSN:        writerSN,
		LastFragmentNum: rtps.FragmentNumber(lastFrag),
		Count:           count,
	}, nil
}

// AckNack reports a reader's acknowledgement/negative-acknowledgement
// state for a writer's sequence numbers.
type AckNack struct {
	ReaderID      rtps.EntityID
	WriterID      rtps.EntityID
	ReaderSNState SequenceNumberSet
	Count         int32
}

func parseAckNack(h SubmessageHeader, body []byte) (AckNack, error) {
	r := newReader(body, order(h))
	readerID, err := r.entityID()
	if err != nil {
		return AckNack{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return AckNack{}, err
	}
	set, err := r.sequenceNumberSet()
	if err != nil {
		return AckNack{}, err
	}
	count, err := r.i32()
	if err != nil {
		return AckNack{}, err
	}
	return AckNack{ReaderID: readerID, WriterID: writerID, ReaderSNState: set, Count: count}, nil
}

// NackFrag reports that a reader is missing specific fragments of a
// sample it has otherwise partially received.
type NackFrag struct {
	ReaderID          rtps.EntityID
	WriterID          rtps.EntityID
	WriterSN          rtps.SequenceNumber
	FragmentNumberSet FragmentNumberSet
	Count             int32
}

func parseNackFrag(h SubmessageHeader, body []byte) (NackFrag, error) {
	r := newReader(body, order(h))
	readerID, err := r.entityID()
	if err != nil {
		return NackFrag{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return NackFrag{}, err
	}
	writerSN, err := r.sequenceNumber()
	if err != nil {
		return NackFrag{}, err
	}
	set, err := r.fragmentNumberSet()
	if err != nil {
		return NackFrag{}, err
	}
	count, err := r.i32()
	if err != nil {
		return NackFrag{}, err
	}
	return NackFrag{ReaderID: readerID, WriterID: writerID, WriterSN: writerSN, FragmentNumberSet: set, Count: count}, nil
}

// Gap announces that a range of sequence numbers will never be delivered
// for a reader, either because they were irrelevant or already expired.
type Gap struct {
	ReaderID rtps.EntityID
	WriterID rtps.EntityID
	GapStart rtps.SequenceNumber
	GapList  SequenceNumberSet
}

func parseGap(h SubmessageHeader, body []byte) (Gap, error) {
	r := newReader(body, order(h))
	readerID, err := r.entityID()
	if err != nil {
		return Gap{}, err
	}
	writerID, err := r.entityID()
	if err != nil {
		return Gap{}, err
	}
	gapStart, err := r.sequenceNumber()
	if err != nil {
		return Gap{}, err
	}
	gapList, err := r.sequenceNumberSet()
	if err != nil {
		return Gap{}, err
	}
	return Gap{ReaderID: readerID, WriterID: writerID, GapStart: gapStart, GapList: gapList}, nil
}
