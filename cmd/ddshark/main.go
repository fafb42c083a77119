// Command ddshark passively observes RTPS/DDS traffic on a live interface
// or an offline capture file, aggregating per-writer/reader/topic state
// and exporting it as a terminal dashboard, per-entity CSVs, and
// optionally OpenTelemetry traces/metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/NewsLabNTU/ddshark-go/internal/capture"
	"github.com/NewsLabNTU/ddshark-go/internal/csvsink"
	"github.com/NewsLabNTU/ddshark-go/internal/dissect"
	"github.com/NewsLabNTU/ddshark-go/internal/metrics"
	"github.com/NewsLabNTU/ddshark-go/internal/otlpsink"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
)

const shutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "ddshark",
		Usage: "a quick DDS/RTPS sniffer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "replay an offline capture file"},
			&cli.StringFlag{Name: "interface", Aliases: []string{"i"}, Usage: "capture from a named network interface"},
			&cli.IntFlag{Name: "refresh-rate", Value: 4, Usage: "UI frames per second"},
			&cli.BoolFlag{Name: "otlp", Aliases: []string{"o"}, Usage: "enable OpenTelemetry trace/metric export"},
			&cli.StringFlag{Name: "otlp-endpoint", Aliases: []string{"e"}, Value: "http://localhost:4317", Usage: "OTLP gRPC endpoint"},
			&cli.BoolFlag{Name: "no-tui", Usage: "disable the terminal dashboard"},
			&cli.BoolFlag{Name: "fast-replay", Usage: "ignore capture-file timestamps when replaying"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "logrus level: trace, debug, info, warn, error"},
			&cli.IntFlag{Name: "abnormality-capacity", Value: state.DefaultAbnormalityCapacity, Usage: "maximum retained abnormality log entries"},
		},
		Before: func(c *cli.Context) error {
			cfg := configFromContext(c)
			if err := cfg.validate(); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			cfg := configFromContext(c)
			if err := run(cfg); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func logOutputWriter() *os.File {
	return os.Stdout
}

func run(cfg config) error {
	log := logrus.StandardLogger()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithError(err).Warnf("unrecognized --log-level %q, defaulting to info", cfg.LogLevel)
	}
	entry := logrus.NewEntry(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		entry.Info("shutdown requested")
		cancel()
	}()

	captureCfg := capture.Config{FastReplay: cfg.FastReplay}
	switch {
	case cfg.File != "":
		captureCfg.Kind = capture.SourceFile
		captureCfg.File = cfg.File
	case cfg.Interface != "":
		captureCfg.Kind = capture.SourceInterface
		captureCfg.Interface = cfg.Interface
	default:
		captureCfg.Kind = capture.SourceDefault
	}

	src, err := capture.Open(captureCfg, entry)
	if err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	defer src.Close()

	dis := dissect.New(entry)
	agg := state.New(cfg.AbnormalityCapacity, entry)
	collector := metrics.New()

	csvLogger, err := csvsink.New()
	if err != nil {
		return fmt.Errorf("create csv output directory: %w", err)
	}
	defer csvLogger.Close()

	metricsLogger, err := csvsink.NewMetricsLogger(csvLogger.MetricsLogPath())
	if err != nil {
		return fmt.Errorf("create metrics csv: %w", err)
	}
	defer metricsLogger.Close()

	var sink *otlpsink.Sink
	if cfg.OTLP {
		sink, err = otlpsink.New(ctx, cfg.OTLPEndpoint, collector, agg)
		if err != nil {
			return fmt.Errorf("start otlp export: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := sink.Shutdown(shutdownCtx); err != nil {
				entry.WithError(err).Warn("otlp shutdown failed")
			}
		}()
	}

	return runAll(ctx, cfg, src, dis, agg, collector, sink, csvLogger, metricsLogger, entry)
}
