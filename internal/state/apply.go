package state

import (
	"fmt"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/submsg"
)

var unknownGUID = rtps.GUID{Prefix: rtps.UnknownGUIDPrefix, Entity: rtps.UnknownEntityID}

func (a *Aggregator) applyDataLocked(e submsg.DataEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)

	if w.HasLastSN && e.WriterSN < w.LastSN {
		a.addAbnormalityLocked("sn-regression",
			fmt.Sprintf("writer %s sequence number regressed from %d to %d", e.WriterID, w.LastSN, e.WriterSN),
			e.WriterID, e.ReaderID, now)
	}
	if !w.HasLastSN || e.WriterSN > w.LastSN {
		w.LastSN = e.WriterSN
		w.HasLastSN = true
	}
	w.MessageCount++
	w.ByteCount += uint64(e.PayloadSize)
	w.MessageRate.Push(now, 1)
	w.ByteRate.Push(now, float64(e.PayloadSize))

	if e.ReaderID != unknownGUID && e.ReaderID.Entity != rtps.UnknownEntityID {
		a.readerLocked(e.ReaderID, now)
	}

	if e.Discovery != nil && e.Discovery.TopicName != "" {
		w.TopicName = e.Discovery.TopicName
		w.TypeName = e.Discovery.TypeName
	}

	topic := a.topicLocked(w.TopicName)
	if e.Discovery != nil && e.Discovery.TypeName != "" {
		topic.TypeName = e.Discovery.TypeName
	}
	topic.Writers[e.WriterID] = struct{}{}
	topic.MessageCount++
}

func (a *Aggregator) applyDataFragLocked(e submsg.DataFragEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)

	frag, ok := w.FragMessages[e.WriterSN]
	if !ok {
		frag = newFragmentedMessage(e.DataSize, e.FragmentSize, now)
		w.FragMessages[e.WriterSN] = frag
	}
	if frag.DataSize != e.DataSize {
		a.addAbnormalityLocked("frag-size-mismatch",
			fmt.Sprintf("writer %s fragment data_size changed from %d to %d for sn %d", e.WriterID, frag.DataSize, e.DataSize, e.WriterSN),
			e.WriterID, e.ReaderID, now)
		return
	}

	// Buf's domain is fragment indices [0, NumFragments), not byte
	// offsets: FragmentStartingNum is the 1-based index of the first
	// fragment this submessage carries.
	start := int(e.FragmentStartingNum) - 1
	end := start + int(e.FragmentsInSubmessage)
	start = clamp(start, frag.NumFragments)
	end = clamp(end, frag.NumFragments)
	if start < end {
		if err := frag.Buf.Insert(start, end); err != nil {
			a.log.WithError(err).Debug("failed to record fragment range")
		}
	}
	frag.LastUpdate = now

	if frag.Buf.IsFull() {
		delete(w.FragMessages, e.WriterSN)
		if !w.HasLastSN || e.WriterSN > w.LastSN {
			w.LastSN = e.WriterSN
			w.HasLastSN = true
		}
		w.MessageCount++
		w.ByteCount += uint64(frag.DataSize)
		w.MessageRate.Push(now, 1)
		w.ByteRate.Push(now, float64(frag.DataSize))
	}

	if e.ReaderID.Entity != rtps.UnknownEntityID {
		a.readerLocked(e.ReaderID, now)
	}
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

func (a *Aggregator) applyHeartbeatLocked(e submsg.HeartbeatEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)
	if w.HasHeartbeat && e.Count < w.HeartbeatCount {
		a.addAbnormalityLocked("heartbeat-regression",
			fmt.Sprintf("writer %s heartbeat count regressed from %d to %d", e.WriterID, w.HeartbeatCount, e.Count),
			e.WriterID, unknownGUID, now)
	}
	w.HeartbeatCount = e.Count
	w.HasHeartbeat = true
}

func (a *Aggregator) applyHeartbeatFragLocked(e submsg.HeartbeatFragEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)
	w.LastFragNum = e.LastFragmentNum
}

func (a *Aggregator) applyAckNackLocked(e submsg.AckNackEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)
	w.AckNackCount++
	r := a.readerLocked(e.ReaderID, now)
	r.AckNackCount++
	r.AckNackRate.Push(now, 1)
	r.LastAckNackBaseSN = e.BaseSN
	r.LastAckNackMissing = e.MissingSNs
	r.HasAckNackState = true
	a.linkReaderToWriterTopicLocked(r, w)
}

func (a *Aggregator) applyNackFragLocked(e submsg.NackFragEvent, now time.Time) {
	w := a.writerLocked(e.WriterID, now)
	w.NackFragCount++
	r := a.readerLocked(e.ReaderID, now)
	a.linkReaderToWriterTopicLocked(r, w)
}

// linkReaderToWriterTopicLocked records that a reader is consuming the
// topic its AckNack/NackFrag target writer publishes, inferred the only
// way available without a built-in-subscription-discovery decode:
// co-occurrence on the same writer.
func (a *Aggregator) linkReaderToWriterTopicLocked(r *ReaderState, w *WriterState) {
	if w.TopicName == "" {
		return
	}
	r.TopicName = w.TopicName
	r.TypeName = w.TypeName
	a.topicLocked(w.TopicName).Readers[r.GUID] = struct{}{}
}

// applyTickLocked performs the periodic maintenance pass: evicting
// fragmented messages that have outlived FragmentTimeout, and trimming
// the abnormality log to AbnormalityRetention / abnormalityCap, matching
// state_cleanup.rs's cleanup() shape (a separate sweep driven by a
// periodic tick, not a check on every event).
func (a *Aggregator) applyTickLocked(now time.Time) {
	cleaned := 0
	for _, p := range a.participants {
		for _, w := range p.Writers {
			for sn, frag := range w.FragMessages {
				if now.Sub(frag.LastUpdate) > FragmentTimeout {
					delete(w.FragMessages, sn)
					cleaned++
				}
			}
		}
	}
	if cleaned > 0 {
		a.log.WithField("count", cleaned).Debug("evicted timed-out fragmented messages")
	}

	cutoff := now.Add(-AbnormalityRetention)
	if len(a.abnormalities) > a.abnormalityCap {
		a.abnormalities = append([]Abnormality(nil), a.abnormalities[len(a.abnormalities)-a.abnormalityCap:]...)
	} else {
		kept := a.abnormalities[:0]
		for _, ab := range a.abnormalities {
			if ab.Time.After(cutoff) {
				kept = append(kept, ab)
			}
		}
		a.abnormalities = kept
	}

	for prefix, p := range a.participants {
		if len(p.Writers) == 0 && len(p.Readers) == 0 {
			delete(a.participants, prefix)
		}
	}
	for name, t := range a.topics {
		if len(t.Writers) == 0 && len(t.Readers) == 0 {
			delete(a.topics, name)
		}
	}
}
