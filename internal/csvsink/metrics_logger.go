package csvsink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/metrics"
)

// MetricsLogger appends one row of aggregate pipeline counters (and their
// per-interval rates) to a single CSV file, mirroring the original's
// metrics_logger.rs against this implementation's trimmed counter set
// (internal/metrics.Collector has no lock/queue/latency fields, since
// nothing in this implementation's batching updater exposes those the way
// the original's lockfree_state.rs does).
type MetricsLogger struct {
	file      *os.File
	writer    *csv.Writer
	startedAt time.Time

	lastSnapshot metrics.Snapshot
	lastAt       time.Time
	haveLast     bool
}

var metricsHeader = []string{
	"timestamp", "uptime_seconds",
	"packets_received", "packets_parsed", "parse_errors", "rtps_messages_found",
	"messages_sent", "messages_dropped", "send_timeouts",
	"messages_processed", "processing_errors",
	"packet_rate", "message_rate", "processing_rate", "drop_rate",
}

// NewMetricsLogger creates (or truncates) the aggregate metrics CSV at
// path, writing the header row.
func NewMetricsLogger(path string) (*MetricsLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(metricsHeader); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &MetricsLogger{file: f, writer: w, startedAt: time.Now()}, nil
}

// Log appends one row for snap taken at now.
func (l *MetricsLogger) Log(snap metrics.Snapshot, now time.Time) error {
	var packetRate, messageRate, processingRate, dropRate float64
	if l.haveLast {
		elapsed := now.Sub(l.lastAt).Seconds()
		if elapsed > 0 {
			packetRate = float64(snap.PacketsReceived-l.lastSnapshot.PacketsReceived) / elapsed
			messageRate = float64(snap.MessagesSent-l.lastSnapshot.MessagesSent) / elapsed
			processingRate = float64(snap.MessagesProcessed-l.lastSnapshot.MessagesProcessed) / elapsed
			dropRate = float64(snap.MessagesDropped-l.lastSnapshot.MessagesDropped) / elapsed
		}
	}
	l.lastSnapshot = snap
	l.lastAt = now
	l.haveLast = true

	record := []string{
		now.UTC().Format("2006-01-02 15:04:05.000"),
		strconv.FormatFloat(now.Sub(l.startedAt).Seconds(), 'f', 3, 64),
		strconv.FormatUint(snap.PacketsReceived, 10),
		strconv.FormatUint(snap.PacketsParsed, 10),
		strconv.FormatUint(snap.ParseErrors, 10),
		strconv.FormatUint(snap.RTPSMessagesFound, 10),
		strconv.FormatUint(snap.MessagesSent, 10),
		strconv.FormatUint(snap.MessagesDropped, 10),
		strconv.FormatUint(snap.SendTimeouts, 10),
		strconv.FormatUint(snap.MessagesProcessed, 10),
		strconv.FormatUint(snap.ProcessingErrors, 10),
		strconv.FormatFloat(packetRate, 'f', 2, 64),
		strconv.FormatFloat(messageRate, 'f', 2, 64),
		strconv.FormatFloat(processingRate, 'f', 2, 64),
		strconv.FormatFloat(dropRate, 'f', 2, 64),
	}
	if err := l.writer.Write(record); err != nil {
		return err
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close closes the underlying file.
func (l *MetricsLogger) Close() error {
	return l.file.Close()
}
