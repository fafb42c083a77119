// Package state aggregates the event stream produced by internal/submsg
// into per-participant/writer/reader/topic state, with a bounded
// abnormality log. All mutation flows through a single batching updater
// goroutine, which acquires the aggregator's lock once per batch rather
// than once per event.
package state

import (
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/defrag"
	"github.com/NewsLabNTU/ddshark-go/internal/ratestat"
	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

// ParticipantState tracks the writers and readers discovered under one
// participant GUID prefix.
type ParticipantState struct {
	Prefix     rtps.GUIDPrefix
	FirstSeen  time.Time
	LastSeen   time.Time
	Writers    map[rtps.GUID]*WriterState
	Readers    map[rtps.GUID]*ReaderState
}

func newParticipantState(prefix rtps.GUIDPrefix, now time.Time) *ParticipantState {
	return &ParticipantState{
		Prefix:    prefix,
		FirstSeen: now,
		LastSeen:  now,
		Writers:   make(map[rtps.GUID]*WriterState),
		Readers:   make(map[rtps.GUID]*ReaderState),
	}
}

// WriterState tracks everything known about one writer entity.
type WriterState struct {
	GUID           rtps.GUID
	TopicName      string
	TypeName       string
	LastSN         rtps.SequenceNumber
	HasLastSN      bool
	MessageCount   uint64
	ByteCount      uint64
	HeartbeatCount int32
	HasHeartbeat   bool
	AckNackCount   uint64
	NackFragCount  uint64
	LastFragNum    rtps.FragmentNumber
	FragMessages   map[rtps.SequenceNumber]*FragmentedMessage
	MessageRate    *ratestat.TimedStat
	ByteRate       *ratestat.TimedStat
	FirstSeen      time.Time
	LastSeen       time.Time
}

func newWriterState(guid rtps.GUID, now time.Time, window time.Duration) *WriterState {
	return &WriterState{
		GUID:         guid,
		FragMessages: make(map[rtps.SequenceNumber]*FragmentedMessage),
		MessageRate:  ratestat.New(window),
		ByteRate:     ratestat.New(window),
		FirstSeen:    now,
		LastSeen:     now,
	}
}

// ReaderState tracks everything known about one reader entity.
type ReaderState struct {
	GUID               rtps.GUID
	TopicName          string
	TypeName           string
	AckNackCount       uint64
	AckNackRate        *ratestat.TimedStat
	LastAckNackBaseSN  rtps.SequenceNumber
	LastAckNackMissing []uint32
	HasAckNackState    bool
	FirstSeen          time.Time
	LastSeen           time.Time
}

func newReaderState(guid rtps.GUID, now time.Time, window time.Duration) *ReaderState {
	return &ReaderState{
		GUID:        guid,
		AckNackRate: ratestat.New(window),
		FirstSeen:   now,
		LastSeen:    now,
	}
}

// TopicState aggregates the writers/readers publishing or subscribing to
// one topic name.
type TopicState struct {
	Name         string
	TypeName     string
	Writers      map[rtps.GUID]struct{}
	Readers      map[rtps.GUID]struct{}
	MessageCount uint64
}

func newTopicState(name string) *TopicState {
	return &TopicState{
		Name:    name,
		Writers: make(map[rtps.GUID]struct{}),
		Readers: make(map[rtps.GUID]struct{}),
	}
}

// FragmentedMessage tracks the reassembly progress of one writer sample
// still arriving as DataFrag submessages.
type FragmentedMessage struct {
	DataSize       uint32
	FragmentSize   uint16
	NumFragments   int
	RecvdFragments int
	Buf            *defrag.Buf
	LastUpdate     time.Time
}

func newFragmentedMessage(dataSize uint32, fragmentSize uint16, now time.Time) *FragmentedMessage {
	numFragments := (int(dataSize) + int(fragmentSize) - 1) / int(fragmentSize)
	return &FragmentedMessage{
		DataSize:     dataSize,
		FragmentSize: fragmentSize,
		NumFragments: numFragments,
		Buf:          defrag.New(numFragments),
		LastUpdate:   now,
	}
}

// Abnormality is one recorded protocol anomaly.
type Abnormality struct {
	ID       string
	Time     time.Time
	Kind     string
	Detail   string
	WriterID rtps.GUID
	ReaderID rtps.GUID
}
