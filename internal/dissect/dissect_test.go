package dissect

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildEthernetFrame(t *testing.T, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Id:       1234,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(239, 255, 0, 1),
	}
	udp := &layers.UDP{SrcPort: 7400, DstPort: 7401}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	return buf.Bytes()
}

func minimalRTPSMessage() []byte {
	msg := make([]byte, 20)
	copy(msg, []byte("RTPS"))
	msg[4], msg[5] = 2, 3
	msg[6], msg[7] = 'X', 'Y'
	return msg
}

func TestDissectRecognizesRTPSPayload(t *testing.T) {
	frame := buildEthernetFrame(t, minimalRTPSMessage())
	d := New(nil)
	result, ok := d.Dissect(frame, time.Now())
	if !ok {
		t.Fatal("Dissect reported not-ok for an RTPS-over-UDP frame")
	}
	if !result.IsRTPS {
		t.Error("IsRTPS = false, want true")
	}
	if result.DstPort != 7401 {
		t.Errorf("DstPort = %d, want 7401", result.DstPort)
	}
}

func TestDissectRejectsNonRTPSPayload(t *testing.T) {
	frame := buildEthernetFrame(t, []byte("not-rtps-at-all-----"))
	d := New(nil)
	_, ok := d.Dissect(frame, time.Now())
	if ok {
		t.Fatal("Dissect should reject a UDP payload without the RTPS magic")
	}
}
