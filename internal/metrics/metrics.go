// Package metrics holds the process-wide atomic counters updated on the
// capture and updater hot paths, matching spec §5's guidance to use
// atomic counters for this, outside of the state aggregator's mutex.
package metrics

import "sync/atomic"

// Collector is safe for concurrent use. The capture task updates
// PacketsReceived, PacketsParsed, ParseErrors, RTPSMessagesFound and
// MessagesSent with Add(1). MessagesDropped and MessagesProcessed are not
// incremented by the pipeline; exporters fill those from the aggregator.
// SendTimeouts and ProcessingErrors are never incremented and stay zero.
type Collector struct {
	PacketsReceived  atomic.Uint64
	PacketsParsed    atomic.Uint64
	ParseErrors      atomic.Uint64
	RTPSMessagesFound atomic.Uint64

	MessagesSent     atomic.Uint64
	MessagesDropped  atomic.Uint64
	SendTimeouts     atomic.Uint64

	MessagesProcessed atomic.Uint64
	ProcessingErrors  atomic.Uint64
}

// New returns a zeroed Collector.
func New() *Collector {
	return &Collector{}
}

// Snapshot is a consistent-enough (not atomically joint) point-in-time
// read of every counter, suitable for CSV/OTLP export.
type Snapshot struct {
	PacketsReceived   uint64
	PacketsParsed     uint64
	ParseErrors       uint64
	RTPSMessagesFound uint64
	MessagesSent      uint64
	MessagesDropped   uint64
	SendTimeouts      uint64
	MessagesProcessed uint64
	ProcessingErrors  uint64
}

// Snapshot reads every counter. Each field is read atomically but the
// set as a whole is not a single atomic transaction — adequate for a
// periodic telemetry export, per spec §5's snapshot-may-lag tolerance.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		PacketsReceived:   c.PacketsReceived.Load(),
		PacketsParsed:     c.PacketsParsed.Load(),
		ParseErrors:       c.ParseErrors.Load(),
		RTPSMessagesFound: c.RTPSMessagesFound.Load(),
		MessagesSent:      c.MessagesSent.Load(),
		MessagesDropped:   c.MessagesDropped.Load(),
		SendTimeouts:      c.SendTimeouts.Load(),
		MessagesProcessed: c.MessagesProcessed.Load(),
		ProcessingErrors:  c.ProcessingErrors.Load(),
	}
}
