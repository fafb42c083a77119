// Package dissect turns captured link-layer frames into decoded RTPS
// messages: it strips Ethernet/VLAN/IPv4/UDP framing with gopacket,
// reassembles fragmented IPv4 datagrams, and hands whatever UDP payload
// results to the wire package if it carries the RTPS magic number.
package dissect

import (
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/sirupsen/logrus"

	"github.com/NewsLabNTU/ddshark-go/internal/wire"
)

// FragmentTimeout bounds how long an incomplete IPv4 datagram's
// fragments are held before being discarded, mirroring the reassembly
// timeout used by gVisor's IPv4 fragmentation handler.
const FragmentTimeout = 30 * time.Second

type fragKey struct {
	src   [4]byte
	dst   [4]byte
	ident uint16
}

// Result is a fully dissected packet: its transport addressing and,
// if present, the decoded RTPS message.
type Result struct {
	Timestamp time.Time
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Message   wire.Message
	IsRTPS    bool
}

// Dissector holds in-flight IPv4 fragment reassembly state. The
// fragment maps are guarded by mu, which processFragment holds for each
// fragment it stores; the rest of Dissect keeps no shared state.
type Dissector struct {
	mu         sync.Mutex
	fragments  map[fragKey]map[uint16][]byte
	recvLen    map[fragKey]int
	totalLen   map[fragKey]int
	lastSeen   map[fragKey]time.Time
	log        *logrus.Entry
}

// New creates an empty Dissector.
func New(log *logrus.Entry) *Dissector {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dissector{
		fragments: make(map[fragKey]map[uint16][]byte),
		recvLen:   make(map[fragKey]int),
		totalLen:  make(map[fragKey]int),
		lastSeen:  make(map[fragKey]time.Time),
		log:       log,
	}
}

// Dissect decodes one captured frame. ok is false when the frame is not
// RTPS-over-UDP-over-IPv4 (no error is returned for that case — the
// packet is simply not interesting to this system, per spec's Non-goal
// of "no other-protocol decode").
func (d *Dissector) Dissect(data []byte, ts time.Time) (Result, bool) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{
		Lazy:   true,
		NoCopy: true,
	})

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return Result{}, false
	}
	ip4, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return Result{}, false
	}

	var udpPayload []byte
	isFragment := ip4.Flags&layers.IPv4MoreFragments != 0 || ip4.FragOffset != 0
	if isFragment {
		reassembled, complete := d.processFragment(ip4, ts)
		if !complete {
			return Result{}, false
		}
		udp := &layers.UDP{}
		if err := udp.DecodeFromBytes(reassembled, gopacket.NilDecodeFeedback); err != nil {
			d.log.WithError(err).Debug("failed to decode UDP header from reassembled IPv4 datagram")
			return Result{}, false
		}
		udpPayload = udp.Payload
		if result, ok := d.buildResult(ip4, udp, udpPayload, ts); ok {
			return result, true
		}
		return Result{}, false
	}

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return Result{}, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return Result{}, false
	}
	return d.buildResult(ip4, udp, udp.Payload, ts)
}

func (d *Dissector) buildResult(ip4 *layers.IPv4, udp *layers.UDP, payload []byte, ts time.Time) (Result, bool) {
	result := Result{
		Timestamp: ts,
		SrcIP:     ip4.SrcIP,
		DstIP:     ip4.DstIP,
		SrcPort:   uint16(udp.SrcPort),
		DstPort:   uint16(udp.DstPort),
	}

	if !wire.HasMagic(payload) {
		return result, false
	}

	msg, err := wire.ParseMessage(payload)
	if err != nil {
		d.log.WithError(err).Debug("failed to parse RTPS message")
		if len(msg.Submessages) == 0 {
			return result, false
		}
	}
	result.Message = msg
	result.IsRTPS = true
	return result, true
}

// processFragment stores one IPv4 fragment and reports whether the
// datagram it belongs to is now fully reassembled, in which case the
// reassembled payload (starting at the UDP header) is returned.
//
// Mirrors the original's PacketDecoder.process_fragments: fragments are
// keyed by (source, destination, identification), the datagram is
// complete once the running received length equals the total length
// implied by the final (non-MF) fragment's offset and size.
func (d *Dissector) processFragment(ip4 *layers.IPv4, ts time.Time) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evictExpiredLocked(ts)

	var key fragKey
	copy(key.src[:], ip4.SrcIP.To4())
	copy(key.dst[:], ip4.DstIP.To4())
	key.ident = ip4.Id

	buf, ok := d.fragments[key]
	if !ok {
		buf = make(map[uint16][]byte)
		d.fragments[key] = buf
	}
	offset := ip4.FragOffset * 8
	buf[offset] = append([]byte(nil), ip4.Payload...)
	d.lastSeen[key] = ts

	d.recvLen[key] += len(ip4.Payload)
	if ip4.Flags&layers.IPv4MoreFragments == 0 {
		total := int(offset) + len(ip4.Payload)
		if total > d.totalLen[key] {
			d.totalLen[key] = total
		}
	}

	if d.totalLen[key] == 0 || d.recvLen[key] != d.totalLen[key] {
		return nil, false
	}

	offsets := make([]uint16, 0, len(buf))
	for off := range buf {
		offsets = append(offsets, off)
	}
	sortUint16(offsets)

	reassembled := make([]byte, 0, d.totalLen[key])
	for _, off := range offsets {
		reassembled = append(reassembled, buf[off]...)
	}

	delete(d.fragments, key)
	delete(d.recvLen, key)
	delete(d.totalLen, key)
	delete(d.lastSeen, key)

	return reassembled, true
}

// evictExpiredLocked drops fragment state older than FragmentTimeout.
// Called with mu held.
func (d *Dissector) evictExpiredLocked(now time.Time) {
	for key, seen := range d.lastSeen {
		if now.Sub(seen) > FragmentTimeout {
			delete(d.fragments, key)
			delete(d.recvLen, key)
			delete(d.totalLen, key)
			delete(d.lastSeen, key)
		}
	}
}

func sortUint16(s []uint16) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
