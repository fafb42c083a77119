package state

import (
	"sort"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

// Snapshot is a point-in-time, read-only copy of the aggregator's state,
// handed to the CSV, OTLP, and TUI consumers. Abnormalities are read
// without being cleared (preserve-on-read), so every consumer sees the
// same retained window; entries are evicted only by the capacity limit on
// insert and by the Tick sweep.
type Snapshot struct {
	Participants  []*ParticipantState
	Topics        []*TopicState
	Abnormalities []Abnormality
	DroppedEvents uint64
}

func (a *Aggregator) snapshotLocked() Snapshot {
	participants := make([]*ParticipantState, 0, len(a.participants))
	for _, p := range a.participants {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Prefix.String() < participants[j].Prefix.String()
	})

	topics := make([]*TopicState, 0, len(a.topics))
	for _, t := range a.topics {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	return Snapshot{
		Participants:  participants,
		Topics:        topics,
		Abnormalities: append([]Abnormality(nil), a.abnormalities...),
		DroppedEvents: a.droppedEvents,
	}
}

// Snapshot takes the aggregator lock and returns copies of its top-level
// maps as sorted slices, suitable for rendering without further locking.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// TrySnapshot behaves like Snapshot but never blocks: if the aggregator
// lock is currently held by the updater, it returns ok=false so the UI
// task can skip this frame instead of stalling, per spec §5's try_lock
// discipline for the UI/sink task.
func (a *Aggregator) TrySnapshot() (Snapshot, bool) {
	if !a.mu.TryLock() {
		return Snapshot{}, false
	}
	defer a.mu.Unlock()
	return a.snapshotLocked(), true
}

// FindWriter looks up a writer by GUID in a snapshot, returning nil if
// absent.
func (s Snapshot) FindWriter(guid rtps.GUID) *WriterState {
	for _, p := range s.Participants {
		if p.Prefix != guid.Prefix {
			continue
		}
		return p.Writers[guid]
	}
	return nil
}
