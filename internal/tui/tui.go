// Package tui renders periodic snapshots of aggregator state as
// tabular terminal output, replacing the original's ratatui widget
// tree (not available in this module's dependency pack) with
// github.com/olekukonko/tablewriter's simpler render-and-print model:
// one table per tick rather than a persistent interactive screen.
package tui

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
)

// Dashboard renders a Snapshot as four tables: writers, readers,
// topics, and abnormalities, matching the original's
// tab_writer/tab_reader/tab_topic/tab_abnormality column layouts.
type Dashboard struct {
	out io.Writer
}

// New creates a Dashboard writing to out.
func New(out io.Writer) *Dashboard {
	return &Dashboard{out: out}
}

// Render prints all four tables for one snapshot.
func (d *Dashboard) Render(snap state.Snapshot) {
	d.renderWriters(snap)
	d.renderReaders(snap)
	d.renderTopics(snap)
	d.renderAbnormalities(snap)
}

type writerRow struct {
	guid    rtps.GUID
	writer  *state.WriterState
}

func (d *Dashboard) renderWriters(snap state.Snapshot) {
	var rows []writerRow
	for _, p := range snap.Participants {
		for guid, w := range p.Writers {
			rows = append(rows, writerRow{guid: guid, writer: w})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].guid.String() < rows[j].guid.String() })

	fmt.Fprintln(d.out, "Writers")
	table := tablewriter.NewWriter(d.out)
	table.SetHeader([]string{"guid", "last_sn", "msg_count", "avg_msgrate", "byte_count", "avg_bitrate", "frag_count", "heartbeat", "type", "topic"})
	for _, r := range rows {
		w := r.writer
		lastSN := "-"
		if w.HasLastSN {
			lastSN = fmt.Sprintf("%d", w.LastSN)
		}
		heartbeat := "-"
		if w.HasHeartbeat {
			heartbeat = fmt.Sprintf("count=%d", w.HeartbeatCount)
		}
		table.Append([]string{
			r.guid.String(),
			lastSN,
			fmt.Sprintf("%d", w.MessageCount),
			fmt.Sprintf("%.2f", w.MessageRate.Stat().Mean),
			fmt.Sprintf("%d", w.ByteCount),
			fmt.Sprintf("%.2f", w.ByteRate.Stat().Mean*8),
			fmt.Sprintf("%d", len(w.FragMessages)),
			heartbeat,
			displayOr(w.TypeName, "-"),
			displayOr(w.TopicName, "-"),
		})
	}
	table.Render()
}

type readerRow struct {
	guid   rtps.GUID
	reader *state.ReaderState
}

func (d *Dashboard) renderReaders(snap state.Snapshot) {
	var rows []readerRow
	for _, p := range snap.Participants {
		for guid, r := range p.Readers {
			rows = append(rows, readerRow{guid: guid, reader: r})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].guid.String() < rows[j].guid.String() })

	fmt.Fprintln(d.out, "Readers")
	table := tablewriter.NewWriter(d.out)
	table.SetHeader([]string{"guid", "total_acknacks", "type", "topic"})
	for _, r := range rows {
		reader := r.reader
		table.Append([]string{
			r.guid.String(),
			fmt.Sprintf("%d", reader.AckNackCount),
			displayOr(reader.TypeName, "-"),
			displayOr(reader.TopicName, "-"),
		})
	}
	table.Render()
}

func (d *Dashboard) renderTopics(snap state.Snapshot) {
	fmt.Fprintln(d.out, "Topics")
	table := tablewriter.NewWriter(d.out)
	table.SetHeader([]string{"name", "n_readers", "n_writers"})
	for _, t := range snap.Topics {
		table.Append([]string{
			t.Name,
			fmt.Sprintf("%d", len(t.Readers)),
			fmt.Sprintf("%d", len(t.Writers)),
		})
	}
	table.Render()
}

func (d *Dashboard) renderAbnormalities(snap state.Snapshot) {
	fmt.Fprintln(d.out, "Abnormalities")
	table := tablewriter.NewWriter(d.out)
	table.SetHeader([]string{"when", "writer", "reader", "kind", "desc"})

	rows := append([]state.Abnormality(nil), snap.Abnormalities...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.After(rows[j].Time) })

	for _, ab := range rows {
		table.Append([]string{
			ab.Time.Format("2006-01-02T15:04:05Z07:00"),
			guidOrDash(ab.WriterID),
			guidOrDash(ab.ReaderID),
			ab.Kind,
			ab.Detail,
		})
	}
	table.Render()
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func guidOrDash(guid rtps.GUID) string {
	if guid.Entity == rtps.UnknownEntityID {
		return "-"
	}
	return guid.String()
}
