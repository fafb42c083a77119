package wire

import (
	"encoding/binary"
	"testing"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

func appendU16LE(b []byte, v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return append(b, buf...)
}

func appendU32LE(b []byte, v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return append(b, buf...)
}

// buildHeartbeatMessage constructs a minimal RTPS message containing a
// single little-endian Heartbeat submessage.
func buildHeartbeatMessage(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, Magic[:]...)
	buf = append(buf, 2, 3)       // protocol version
	buf = append(buf, 'X', 'Y')   // vendor id
	buf = append(buf, make([]byte, rtps.GUIDPrefixLen)...)

	body := []byte{}
	body = append(body, 0, 0, 0, 2) // readerId
	body = append(body, 0, 0, 0, 3) // writerId
	body = appendU32LE(body, 0)     // firstSN high
	body = appendU32LE(body, 1)     // firstSN low
	body = appendU32LE(body, 0)     // lastSN high
	body = appendU32LE(body, 5)     // lastSN low
	body = appendU32LE(body, 42)    // count

	buf = append(buf, byte(KindHeartbeat), 0x01) // flags: little-endian
	buf = appendU16LE(buf, uint16(len(body)))
	buf = append(buf, body...)

	return buf
}

func TestParseMessageHeartbeat(t *testing.T) {
	buf := buildHeartbeatMessage(t)
	msg, err := ParseMessage(buf)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if len(msg.Submessages) != 1 {
		t.Fatalf("got %d submessages, want 1", len(msg.Submessages))
	}
	hb, ok := msg.Submessages[0].Body.(Heartbeat)
	if !ok {
		t.Fatalf("body type = %T, want Heartbeat", msg.Submessages[0].Body)
	}
	if hb.FirstSN != 1 || hb.LastSN != 5 || hb.Count != 42 {
		t.Errorf("Heartbeat = %+v, unexpected", hb)
	}
}

func TestParseHeaderRejectsMissingMagic(t *testing.T) {
	buf := []byte{'X', 'X', 'X', 'X', 0, 0, 0, 0}
	buf = append(buf, make([]byte, rtps.GUIDPrefixLen)...)
	if _, _, err := ParseHeader(buf); err == nil {
		t.Fatal("ParseHeader should reject a buffer without the RTPS magic")
	}
}

func TestHasMagic(t *testing.T) {
	if !HasMagic([]byte("RTPS2.1...")) {
		t.Error("HasMagic should recognize the RTPS prefix")
	}
	if HasMagic([]byte("XXXX")) {
		t.Error("HasMagic should reject a non-RTPS prefix")
	}
}

func TestParseMessageData(t *testing.T) {
	var buf []byte
	buf = append(buf, Magic[:]...)
	buf = append(buf, 2, 3, 'X', 'Y')
	buf = append(buf, make([]byte, rtps.GUIDPrefixLen)...)

	payload := []byte("hello-sample")

	body := []byte{}
	body = appendU16LE(body, 0)  // extraFlags
	body = appendU16LE(body, 16) // octetsToInlineQos (no extension)
	body = append(body, 0, 0, 0, 4) // readerId
	body = append(body, 0, 0, 0, 2) // writerId (WRITER_WITH_KEY_USER_DEFINED=2)
	body = appendU32LE(body, 0)     // writerSN high
	body = appendU32LE(body, 7)     // writerSN low
	body = append(body, payload...)

	flags := byte(0x01 | dataFlagData) // little-endian, D flag set
	buf = append(buf, byte(KindData), flags)
	buf = appendU16LE(buf, uint16(len(body)))
	buf = append(buf, body...)

	msg, err := ParseMessage(buf)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	d, ok := msg.Submessages[0].Body.(Data)
	if !ok {
		t.Fatalf("body type = %T, want Data", msg.Submessages[0].Body)
	}
	if d.WriterSN != 7 {
		t.Errorf("WriterSN = %d, want 7", d.WriterSN)
	}
	if string(d.SerializedPayload) != string(payload) {
		t.Errorf("SerializedPayload = %q, want %q", d.SerializedPayload, payload)
	}
}
