package wire

import "encoding/binary"

// Parameter IDs used by the built-in discovery endpoints (SPDP/SEDP),
// per the DDSI-RTPS parameter list encoding (PL_CDR).
const (
	pidPad            = 0x0000
	pidSentinel       = 0x0001
	pidTopicName      = 0x0005
	pidTypeName       = 0x0007
	pidKeyHash        = 0x0070
	pidEndpointGUID   = 0x005a
	pidParticipantGUID = 0x0050
	pidDefaultUnicastLocator = 0x0031
	pidMetatrafficUnicastLocator = 0x0032
)

// Parameter is one PID/value pair from a parameter list.
type Parameter struct {
	ID    uint16
	Value []byte
}

// parseParameterList decodes a PL_CDR-encoded parameter list: a 4-byte
// CDR encapsulation header (representation identifier + options) followed
// by (PID uint16, length uint16, value, padding-to-4) tuples terminated
// by PID_SENTINEL.
func parseParameterList(r *reader) ([]Parameter, error) {
	if err := consumeEncapsulationHeader(r); err != nil {
		return nil, err
	}

	var params []Parameter
	for {
		if r.remaining() < 4 {
			return params, nil
		}
		pid, err := r.u16()
		if err != nil {
			return params, err
		}
		length, err := r.u16()
		if err != nil {
			return params, err
		}
		if pid == pidSentinel {
			return params, nil
		}
		value, err := r.bytes(int(length))
		if err != nil {
			return params, err
		}
		params = append(params, Parameter{ID: pid, Value: append([]byte(nil), value...)})
	}
}

// consumeEncapsulationHeader reads the 4-byte CDR encapsulation header
// (PL_CDR_BE / PL_CDR_LE representation identifier, plus 2 reserved
// option bytes) that precedes a serialized parameter list.
func consumeEncapsulationHeader(r *reader) error {
	_, err := r.bytes(4)
	return err
}

// DiscoveredEndpointInfo is the subset of a DiscoveredWriterData /
// DiscoveredReaderData payload this implementation associates with a
// writer or reader: its topic and type name. Full QoS policy decode is
// out of scope.
type DiscoveredEndpointInfo struct {
	TopicName string
	TypeName  string
}

// ParseDiscoveredEndpointInfo extracts the topic and type name from a
// SEDP DiscoveredWriterData/DiscoveredReaderData PL_CDR payload.
func ParseDiscoveredEndpointInfo(payload []byte, littleEndian bool) (DiscoveredEndpointInfo, error) {
	ord := binary.ByteOrder(byteOrderBE)
	if littleEndian {
		ord = byteOrderLE
	}
	r := newReader(payload, ord)
	params, err := parseParameterList(r)
	if err != nil {
		return DiscoveredEndpointInfo{}, err
	}
	var info DiscoveredEndpointInfo
	for _, p := range params {
		switch p.ID {
		case pidTopicName:
			info.TopicName = parseCDRString(p.Value, ord)
		case pidTypeName:
			info.TypeName = parseCDRString(p.Value, ord)
		}
	}
	return info, nil
}

// parseCDRString decodes a CDR string: a 4-byte length (including the
// trailing NUL) followed by the bytes themselves.
func parseCDRString(b []byte, ord binary.ByteOrder) string {
	if len(b) < 4 {
		return ""
	}
	n := ord.Uint32(b[:4])
	if n == 0 || int(4+n) > len(b) {
		return ""
	}
	s := b[4 : 4+n]
	if len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s)
}
