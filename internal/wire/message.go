package wire

import (
	"encoding/binary"
	"fmt"
)

// Message is a fully decoded RTPS message: its fixed header followed by a
// stream of submessages.
type Message struct {
	Header      Header
	Submessages []Submessage
}

// ParseMessage decodes an RTPS message from buf, which must begin with the
// magic number. It stops and returns the submessages decoded so far (with
// an error) on the first malformed submessage, rather than discarding the
// whole message, since most of a message is typically still informative.
func ParseMessage(buf []byte) (Message, error) {
	header, rest, err := ParseHeader(buf)
	if err != nil {
		return Message{}, err
	}

	var submsgs []Submessage
	pos := 0
	for pos < len(rest) {
		if len(rest)-pos < 4 {
			break
		}
		kind := SubmessageKind(rest[pos])
		flags := rest[pos+1]
		h := SubmessageHeader{Kind: kind, Flags: flags}

		lenOrder := order(h)
		length := lenOrder.Uint16(rest[pos+2 : pos+4])
		h.Length = length

		bodyStart := pos + 4
		var bodyEnd int
		if length == 0 {
			// Extends to the end of the message; only valid for the last
			// submessage.
			bodyEnd = len(rest)
		} else {
			bodyEnd = bodyStart + int(length)
		}
		if bodyEnd > len(rest) {
			return Message{Header: header, Submessages: submsgs}, errShortSubmessage(kind, bodyEnd, len(rest))
		}
		body := rest[bodyStart:bodyEnd]

		sub, err := decodeSubmessageBody(h, body)
		if err != nil {
			return Message{Header: header, Submessages: submsgs}, err
		}
		submsgs = append(submsgs, sub)

		pos = bodyEnd
	}

	return Message{Header: header, Submessages: submsgs}, nil
}

func decodeSubmessageBody(h SubmessageHeader, body []byte) (Submessage, error) {
	var (
		v   interface{}
		err error
	)
	switch h.Kind {
	case KindData:
		v, err = parseData(h, body)
	case KindDataFrag:
		v, err = parseDataFrag(h, body)
	case KindHeartbeat:
		v, err = parseHeartbeat(h, body)
	case KindHeartbeatFrag:
		v, err = parseHeartbeatFrag(h, body)
	case KindAckNack:
		v, err = parseAckNack(h, body)
	case KindNackFrag:
		v, err = parseNackFrag(h, body)
	case KindGap:
		v, err = parseGap(h, body)
	case KindInfoSource:
		v, err = parseInfoSource(h, body)
	case KindInfoDest:
		v, err = parseInfoDestination(h, body)
	case KindInfoReply, KindInfoReplyIP4:
		v, err = parseInfoReply(h, body)
	case KindInfoTimestamp:
		v, err = parseInfoTimestamp(h, body)
	default:
		// Pad and any submessage kind this package does not interpret:
		// keep the header, leave the body uninterpreted.
		v = nil
	}
	if err != nil {
		return Submessage{}, err
	}
	return Submessage{Header: h, Body: v}, nil
}

func order(h SubmessageHeader) binary.ByteOrder {
	if h.littleEndian() {
		return byteOrderLE
	}
	return byteOrderBE
}

type shortSubmessageError struct {
	kind SubmessageKind
	want int
	have int
}

func (e *shortSubmessageError) Error() string {
	return fmt.Sprintf("wire: submessage kind 0x%02x declares a body of %d bytes but only %d remain", byte(e.kind), e.want, e.have)
}

func errShortSubmessage(kind SubmessageKind, want, have int) error {
	return &shortSubmessageError{kind: kind, want: want, have: have}
}
