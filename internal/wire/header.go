package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

// Magic is the 4-byte sequence that identifies an RTPS message, per the
// original's PacketDecoder.dissect_packet check (payload.starts_with(b"RTPS")).
var Magic = [4]byte{'R', 'T', 'P', 'S'}

// HeaderLen is the fixed length of the RTPS message header: 4-byte magic,
// 2-byte protocol version, 2-byte vendor ID, 12-byte GUID prefix.
const HeaderLen = 4 + 2 + 2 + rtps.GUIDPrefixLen

// Header is the fixed-size RTPS message header preceding the submessage
// stream.
type Header struct {
	ProtocolVersion [2]byte
	VendorID        [2]byte
	GUIDPrefix      rtps.GUIDPrefix
}

// ParseHeader validates the magic number and decodes the fixed header,
// returning the remaining bytes (the submessage stream).
func ParseHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderLen {
		return Header{}, nil, fmt.Errorf("wire: message too short for header: %d bytes", len(buf))
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return Header{}, nil, fmt.Errorf("wire: missing RTPS magic")
	}
	var h Header
	copy(h.ProtocolVersion[:], buf[4:6])
	copy(h.VendorID[:], buf[6:8])
	copy(h.GUIDPrefix[:], buf[8:8+rtps.GUIDPrefixLen])
	return h, buf[HeaderLen:], nil
}

// HasMagic reports whether buf begins with the RTPS magic number, without
// otherwise validating or consuming it. Used by the dissector to decide
// whether a UDP payload is worth handing to ParseMessage.
func HasMagic(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == Magic[0] && buf[1] == Magic[1] && buf[2] == Magic[2] && buf[3] == Magic[3]
}

var (
	byteOrderLE = binary.LittleEndian
	byteOrderBE = binary.BigEndian
)
