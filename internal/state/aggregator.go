package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/submsg"
)

const (
	// EventChannelCapacity bounds the number of pending events the
	// capture task can hand to the updater before backpressure kicks in.
	EventChannelCapacity = 8192

	// BatchSize is the maximum number of events the updater drains
	// before acquiring the lock and applying them.
	BatchSize = 64

	// BatchTimeout bounds how long the updater waits to fill a batch
	// once the first event of it has arrived.
	BatchTimeout = 10 * time.Millisecond

	// backpressureTimeout is how long Push blocks trying to enqueue an
	// event before giving up and counting it as dropped.
	backpressureTimeout = 100 * time.Millisecond

	// FragmentTimeout bounds how long a FragmentedMessage is kept
	// waiting for its remaining fragments before Tick evicts it.
	FragmentTimeout = 30 * time.Second

	// AbnormalityRetention bounds how long an Abnormality is kept
	// regardless of the capacity limit.
	AbnormalityRetention = 300 * time.Second

	// DefaultAbnormalityCapacity is the default ring size for the
	// abnormality log (wired to --abnormality-capacity).
	DefaultAbnormalityCapacity = 1000

	defaultRateWindow = 1 * time.Second
)

// Tick requests a periodic maintenance pass (fragment-timeout eviction,
// abnormality retention) rather than carrying a protocol event.
type Tick struct {
	Now time.Time
}

// Aggregator owns all observed protocol state behind a single coarse
// mutex, updated in batches by a single goroutine (Run) that drains the
// event channel. Reads (Snapshot) take the same lock.
type Aggregator struct {
	mu sync.Mutex

	participants map[rtps.GUIDPrefix]*ParticipantState
	topics       map[string]*TopicState
	abnormalities []Abnormality
	abnormalityCap int

	droppedEvents   uint64
	processedEvents uint64

	events chan any
	log    *logrus.Entry
}

// New creates an Aggregator with the given abnormality ring capacity (use
// DefaultAbnormalityCapacity if unsure).
func New(abnormalityCap int, log *logrus.Entry) *Aggregator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if abnormalityCap <= 0 {
		abnormalityCap = DefaultAbnormalityCapacity
	}
	return &Aggregator{
		participants:   make(map[rtps.GUIDPrefix]*ParticipantState),
		topics:         make(map[string]*TopicState),
		abnormalityCap: abnormalityCap,
		events:         make(chan any, EventChannelCapacity),
		log:            log,
	}
}

// Push enqueues an event (a submsg.Event or a Tick) for the updater. It
// blocks for up to 100ms if the channel is full, then drops the event and
// counts it, logging at Warn — this is the try-send-with-timeout
// backpressure discipline the capture task uses so one slow consumer
// never blocks packet capture indefinitely.
func (a *Aggregator) Push(evt any) {
	select {
	case a.events <- evt:
	case <-time.After(backpressureTimeout):
		a.mu.Lock()
		a.droppedEvents++
		a.mu.Unlock()
		a.log.Warn("event channel full; dropping event")
	}
}

// TopicNameForWriter returns the topic name currently recorded for guid,
// or "" if the writer is unknown. Unlike Snapshot, this takes the lock
// just long enough for a single map lookup, so it is cheap enough to call
// once per observed data event (e.g. from an OTLP span recorder).
func (a *Aggregator) TopicNameForWriter(guid rtps.GUID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.participants[guid.Prefix]
	if !ok {
		return ""
	}
	w, ok := p.Writers[guid]
	if !ok {
		return ""
	}
	return w.TopicName
}

// ProcessedEvents returns the number of non-Tick events applied so far,
// for feeding internal/metrics.Collector's MessagesProcessed counter from
// outside the updater goroutine.
func (a *Aggregator) ProcessedEvents() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processedEvents
}

// Close signals the updater to exit once it has drained any buffered
// events.
func (a *Aggregator) Close() {
	close(a.events)
}

// Run drains the event channel in batches of up to BatchSize events (or
// whatever has arrived within BatchTimeout of the first one), applying
// each batch under a single lock acquisition. It returns when the event
// channel is closed or ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		var first any
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-a.events:
			if !ok {
				return nil
			}
			first = evt
		}

		batch := make([]any, 0, BatchSize)
		batch = append(batch, first)

		deadline := time.After(BatchTimeout)
	collect:
		for len(batch) < BatchSize {
			select {
			case evt, ok := <-a.events:
				if !ok {
					break collect
				}
				batch = append(batch, evt)
			case <-deadline:
				break collect
			case <-ctx.Done():
				break collect
			}
		}

		a.applyBatch(batch)
	}
}

func (a *Aggregator) applyBatch(batch []any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, evt := range batch {
		a.applyOneLocked(evt)
	}
}

func (a *Aggregator) applyOneLocked(evt any) {
	now := time.Now()
	if _, isTick := evt.(Tick); !isTick {
		a.processedEvents++
	}
	switch e := evt.(type) {
	case submsg.DataEvent:
		a.applyDataLocked(e, now)
	case submsg.DataFragEvent:
		a.applyDataFragLocked(e, now)
	case submsg.HeartbeatEvent:
		a.applyHeartbeatLocked(e, now)
	case submsg.HeartbeatFragEvent:
		a.applyHeartbeatFragLocked(e, now)
	case submsg.AckNackEvent:
		a.applyAckNackLocked(e, now)
	case submsg.NackFragEvent:
		a.applyNackFragLocked(e, now)
	case submsg.GapEvent:
		// Accepted and discarded: no counters are incremented and the
		// gap range is not stored in any state.
		_ = e
	case Tick:
		a.applyTickLocked(e.Now)
	}
}

func (a *Aggregator) participantLocked(prefix rtps.GUIDPrefix, now time.Time) *ParticipantState {
	p, ok := a.participants[prefix]
	if !ok {
		p = newParticipantState(prefix, now)
		a.participants[prefix] = p
	}
	p.LastSeen = now
	return p
}

func (a *Aggregator) writerLocked(guid rtps.GUID, now time.Time) *WriterState {
	p := a.participantLocked(guid.Prefix, now)
	w, ok := p.Writers[guid]
	if !ok {
		w = newWriterState(guid, now, defaultRateWindow)
		p.Writers[guid] = w
	}
	w.LastSeen = now
	return w
}

func (a *Aggregator) readerLocked(guid rtps.GUID, now time.Time) *ReaderState {
	p := a.participantLocked(guid.Prefix, now)
	r, ok := p.Readers[guid]
	if !ok {
		r = newReaderState(guid, now, defaultRateWindow)
		p.Readers[guid] = r
	}
	r.LastSeen = now
	return r
}

func (a *Aggregator) topicLocked(name string) *TopicState {
	if name == "" {
		name = "<none>"
	}
	t, ok := a.topics[name]
	if !ok {
		t = newTopicState(name)
		a.topics[name] = t
	}
	return t
}

func (a *Aggregator) addAbnormalityLocked(kind, detail string, writerID, readerID rtps.GUID, now time.Time) {
	ab := Abnormality{
		ID:       xid.New().String(),
		Time:     now,
		Kind:     kind,
		Detail:   detail,
		WriterID: writerID,
		ReaderID: readerID,
	}
	a.abnormalities = append(a.abnormalities, ab)
	if len(a.abnormalities) > a.abnormalityCap {
		a.abnormalities = append([]Abnormality(nil), a.abnormalities[len(a.abnormalities)-a.abnormalityCap:]...)
	}
	a.log.WithFields(logrus.Fields{"kind": kind, "writer": writerID, "reader": readerID}).Warn(detail)
}
