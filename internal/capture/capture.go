// Package capture opens a live interface or an offline pcap file and
// yields raw frames, reproducing the original capture's cadence when
// replaying from a file.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"github.com/NewsLabNTU/ddshark-go/internal/capabilities"
)

// Packet is one captured frame with its capture-time metadata.
type Packet struct {
	Data []byte
	Info gopacket.CaptureInfo
}

// SourceKind selects which of the three source variants a Source opens.
type SourceKind int

const (
	// SourceDefault auto-selects the first available capture device.
	SourceDefault SourceKind = iota
	// SourceInterface opens a named capture interface.
	SourceInterface
	// SourceFile replays a previously captured pcap file.
	SourceFile
)

// Config selects one source variant. Exactly one of Interface or File
// is meaningful, per the Kind selected.
type Config struct {
	Kind       SourceKind
	Interface  string
	File       string
	FastReplay bool
}

const snapLen = 65536

// Source reads frames from a live device or an offline file. Live
// captures never end on their own; offline replay transitions to
// "pending" (blocks forever) once the file is exhausted, per spec's
// offline-replay design: the UI must stay interactive after a capture
// file is drained.
type Source struct {
	handle     *pcap.Handle
	offline    bool
	fastReplay bool

	wallT0 time.Time
	pktT0  time.Time
	hasT0  bool

	log *logrus.Entry
}

// Open opens the capture source described by cfg. Permission errors on
// a live open are augmented with capabilities.RemediationMessage.
func Open(cfg Config, log *logrus.Entry) (*Source, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	switch cfg.Kind {
	case SourceFile:
		handle, err := pcap.OpenOffline(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("open capture file %q: %w", cfg.File, err)
		}
		return &Source{handle: handle, offline: true, fastReplay: cfg.FastReplay, log: log}, nil

	case SourceInterface:
		handle, err := openLive(cfg.Interface)
		if err != nil {
			return nil, wrapPermissionError(err)
		}
		return &Source{handle: handle, log: log}, nil

	default:
		devices, err := pcap.FindAllDevs()
		if err != nil {
			return nil, fmt.Errorf("enumerate capture devices: %w", err)
		}
		if len(devices) == 0 {
			return nil, errors.New("no available network device")
		}
		handle, err := openLive(devices[0].Name)
		if err != nil {
			return nil, wrapPermissionError(err)
		}
		return &Source{handle: handle, log: log}, nil
	}
}

func openLive(device string) (*pcap.Handle, error) {
	return pcap.OpenLive(device, snapLen, true, pcap.BlockForever)
}

func wrapPermissionError(err error) error {
	ok, probeErr := capabilities.HasCaptureCapability()
	if probeErr == nil && !ok {
		return fmt.Errorf("%w\n\n%s", err, capabilities.RemediationMessage())
	}
	return err
}

// Next blocks until the next frame is available, ctx is cancelled, or
// (for a live source) capture fails. For an offline source, Next sleeps
// to reproduce the original capture's pacing unless FastReplay was set,
// and blocks forever (until ctx is cancelled) once the file is
// exhausted rather than returning io.EOF.
func (s *Source) Next(ctx context.Context) (Packet, error) {
	for {
		data, info, err := s.handle.ReadPacketData()
		if err == nil {
			if s.offline && !s.fastReplay {
				if err := s.pace(ctx, info.Timestamp); err != nil {
					return Packet{}, err
				}
			}
			return Packet{Data: data, Info: info}, nil
		}

		if errors.Is(err, io.EOF) || errors.Is(err, pcap.NextErrorNoMorePackets) {
			if !s.offline {
				return Packet{}, fmt.Errorf("capture ended unexpectedly: %w", err)
			}
			// Pending: block until cancelled rather than return EOF.
			<-ctx.Done()
			return Packet{}, ctx.Err()
		}

		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			select {
			case <-ctx.Done():
				return Packet{}, ctx.Err()
			default:
				continue
			}
		}

		return Packet{}, err
	}
}

// pace sleeps until the wall-clock offset matches the packet-timestamp
// offset recorded since the first replayed packet, mirroring the
// original's offline replay clock: (wall_t0, pkt_t0) recorded on the
// first packet, every subsequent packet waits until
// wall_t0 + (pkt_ts - pkt_t0).
func (s *Source) pace(ctx context.Context, pktTS time.Time) error {
	now := time.Now()
	if !s.hasT0 {
		s.wallT0 = now
		s.pktT0 = pktTS
		s.hasT0 = true
		return nil
	}

	until := s.wallT0.Add(pktTS.Sub(s.pktT0))
	wait := until.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying capture handle.
func (s *Source) Close() {
	if s.handle != nil {
		s.handle.Close()
	}
}
