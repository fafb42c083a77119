package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NewsLabNTU/ddshark-go/internal/capture"
	"github.com/NewsLabNTU/ddshark-go/internal/csvsink"
	"github.com/NewsLabNTU/ddshark-go/internal/dissect"
	"github.com/NewsLabNTU/ddshark-go/internal/metrics"
	"github.com/NewsLabNTU/ddshark-go/internal/otlpsink"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
	"github.com/NewsLabNTU/ddshark-go/internal/submsg"
	"github.com/NewsLabNTU/ddshark-go/internal/tui"
)

const csvExportInterval = 1 * time.Second

// runCapture owns the capture task: it reads frames from src, dissects
// them, walks the resulting RTPS message into events, and pushes each
// event to agg, counting every pipeline stage in collector. If sink is
// non-nil, one OTLP span is recorded per Data/DataFrag event.
func runCapture(ctx context.Context, src *capture.Source, dis *dissect.Dissector, agg *state.Aggregator, collector *metrics.Collector, sink *otlpsink.Sink, log *logrus.Entry) error {
	for {
		pkt, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		collector.PacketsReceived.Add(1)

		result, ok := dis.Dissect(pkt.Data, pkt.Info.Timestamp)
		if !ok {
			collector.ParseErrors.Add(1)
			continue
		}
		collector.PacketsParsed.Add(1)
		if !result.IsRTPS {
			continue
		}
		collector.RTPSMessagesFound.Add(1)

		for _, evt := range submsg.Walk(result.Message) {
			agg.Push(evt)
			collector.MessagesSent.Add(1)
			if sink != nil {
				recordSpan(sink, agg, evt)
			}
		}
	}
}

func recordSpan(sink *otlpsink.Sink, agg *state.Aggregator, evt submsg.Event) {
	switch e := evt.(type) {
	case submsg.DataEvent:
		sink.RecordDataEvent(e, agg.TopicNameForWriter(e.WriterID))
	case submsg.DataFragEvent:
		sink.RecordDataFragEvent(e, agg.TopicNameForWriter(e.WriterID), time.Now())
	}
}

// runUITask renders a dashboard snapshot at cfg's refresh rate until ctx
// is cancelled, skipping a frame whenever the aggregator's lock is held
// by the updater.
func runUITask(ctx context.Context, agg *state.Aggregator, dash *tui.Dashboard, refreshRate int) {
	ticker := time.NewTicker(time.Second / time.Duration(refreshRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap, ok := agg.TrySnapshot(); ok {
				dash.Render(snap)
			}
		}
	}
}

// runCSVTask writes per-writer/reader/topic CSVs and the aggregate
// metrics CSV once per csvExportInterval until ctx is cancelled.
func runCSVTask(ctx context.Context, agg *state.Aggregator, collector *metrics.Collector, csvLogger *csvsink.Logger, metricsLogger *csvsink.MetricsLogger, log *logrus.Entry) {
	ticker := time.NewTicker(csvExportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			snap := agg.Snapshot()
			if err := csvLogger.Save(snap); err != nil {
				log.WithError(err).Warn("failed to write state csv")
			}

			msnap := collector.Snapshot()
			msnap.MessagesProcessed = agg.ProcessedEvents()
			msnap.MessagesDropped = snap.DroppedEvents
			if err := metricsLogger.Log(msnap, now); err != nil {
				log.WithError(err).Warn("failed to write metrics csv")
			}
		}
	}
}

// runTickTask periodically enqueues a state.Tick event so the updater performs
// its fragment-timeout and abnormality-retention sweep even when no
// protocol events are arriving.
func runTickTask(ctx context.Context, agg *state.Aggregator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			agg.Push(state.Tick{Now: now})
		}
	}
}

// runAll wires every task together and blocks until ctx is cancelled and
// all tasks have drained, returning the capture task's error (if any).
func runAll(ctx context.Context, cfg config, src *capture.Source, dis *dissect.Dissector, agg *state.Aggregator, collector *metrics.Collector, sink *otlpsink.Sink, csvLogger *csvsink.Logger, metricsLogger *csvsink.MetricsLogger, log *logrus.Entry) error {
	var wg sync.WaitGroup
	var captureErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer agg.Close()
		captureErr = runCapture(ctx, src, dis, agg, collector, sink, log)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := agg.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("updater task exited with error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runTickTask(ctx, agg, state.FragmentTimeout)
	}()

	if !cfg.NoTUI {
		dash := tui.New(logOutputWriter())
		wg.Add(1)
		go func() {
			defer wg.Done()
			runUITask(ctx, agg, dash, cfg.RefreshRate)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runCSVTask(ctx, agg, collector, csvLogger, metricsLogger, log)
	}()

	wg.Wait()
	return captureErr
}
