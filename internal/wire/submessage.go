package wire

// SubmessageKind identifies the type of an RTPS submessage.
type SubmessageKind byte

// Submessage kind IDs, per the DDSI-RTPS wire format.
const (
	KindPad           SubmessageKind = 0x01
	KindAckNack       SubmessageKind = 0x06
	KindHeartbeat     SubmessageKind = 0x07
	KindGap           SubmessageKind = 0x08
	KindInfoTimestamp SubmessageKind = 0x09
	KindInfoSource    SubmessageKind = 0x0c
	KindInfoReplyIP4  SubmessageKind = 0x0d
	KindInfoDest      SubmessageKind = 0x0e
	KindInfoReply     SubmessageKind = 0x0f
	KindNackFrag      SubmessageKind = 0x12
	KindHeartbeatFrag SubmessageKind = 0x13
	KindData          SubmessageKind = 0x15
	KindDataFrag      SubmessageKind = 0x16
)

// flagEndianness is bit 0 of every submessage's flags byte: set means the
// submessage body is little-endian.
const flagEndianness = 0x01

// SubmessageHeader precedes every submessage: a 1-byte kind, 1-byte flags
// (bit 0 is the endianness flag, interpreted the same way for all kinds),
// and a 2-byte octetsToNextHeader length.
type SubmessageHeader struct {
	Kind    SubmessageKind
	Flags   byte
	Length  uint16
}

func (h SubmessageHeader) littleEndian() bool {
	return h.Flags&flagEndianness != 0
}

// Submessage is a decoded RTPS submessage: its header and a body typed
// according to Header.Kind. Body is nil for kinds this package does not
// interpret (e.g. Pad); the caller should not treat that as an error.
type Submessage struct {
	Header SubmessageHeader
	Body   interface{}
}
