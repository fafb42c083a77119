package wire

import (
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
)

// InfoSource redirects subsequent submessages to originate from a
// different GUID prefix and protocol version/vendor than the message
// header declares.
type InfoSource struct {
	ProtocolVersion [2]byte
	VendorID        [2]byte
	GUIDPrefix      rtps.GUIDPrefix
}

func parseInfoSource(h SubmessageHeader, body []byte) (InfoSource, error) {
	r := newReader(body, order(h))
	if _, err := r.u32(); err != nil { // unused
		return InfoSource{}, err
	}
	var s InfoSource
	pv, err := r.bytes(2)
	if err != nil {
		return InfoSource{}, err
	}
	copy(s.ProtocolVersion[:], pv)
	vid, err := r.bytes(2)
	if err != nil {
		return InfoSource{}, err
	}
	copy(s.VendorID[:], vid)
	prefix, err := r.bytes(rtps.GUIDPrefixLen)
	if err != nil {
		return InfoSource{}, err
	}
	copy(s.GUIDPrefix[:], prefix)
	return s, nil
}

// InfoDestination redirects subsequent submessages' readers to a
// specific destination participant.
type InfoDestination struct {
	GUIDPrefix rtps.GUIDPrefix
}

func parseInfoDestination(h SubmessageHeader, body []byte) (InfoDestination, error) {
	r := newReader(body, order(h))
	prefix, err := r.bytes(rtps.GUIDPrefixLen)
	if err != nil {
		return InfoDestination{}, err
	}
	var d InfoDestination
	copy(d.GUIDPrefix[:], prefix)
	return d, nil
}

// InfoReply provides locators at which the sender can be reached, for use
// by subsequent submessages' replies.
type InfoReply struct {
	UnicastLocators   []rtps.Locator
	MulticastLocators []rtps.Locator
}

const infoReplyFlagMulticast = 0x02

func parseInfoReply(h SubmessageHeader, body []byte) (InfoReply, error) {
	r := newReader(body, order(h))
	unicast, err := parseLocatorList(r)
	if err != nil {
		return InfoReply{}, err
	}
	var multicast []rtps.Locator
	if h.Flags&infoReplyFlagMulticast != 0 {
		multicast, err = parseLocatorList(r)
		if err != nil {
			return InfoReply{}, err
		}
	}
	return InfoReply{UnicastLocators: unicast, MulticastLocators: multicast}, nil
}

func parseLocatorList(r *reader) ([]rtps.Locator, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]rtps.Locator, 0, count)
	for i := uint32(0); i < count; i++ {
		kind, err := r.i32()
		if err != nil {
			return nil, err
		}
		port, err := r.u32()
		if err != nil {
			return nil, err
		}
		addr, err := r.bytes(16)
		if err != nil {
			return nil, err
		}
		var loc rtps.Locator
		loc.Kind = kind
		loc.Port = port
		copy(loc.Address[:], addr)
		out = append(out, loc)
	}
	return out, nil
}

// InfoTimestamp carries a sender-supplied timestamp that applies to
// subsequent submessages until the next InfoTimestamp or end of message.
type InfoTimestamp struct {
	Invalidate bool
	Timestamp  time.Time
}

const infoTimestampFlagInvalidate = 0x02

func parseInfoTimestamp(h SubmessageHeader, body []byte) (InfoTimestamp, error) {
	if h.Flags&infoTimestampFlagInvalidate != 0 {
		return InfoTimestamp{Invalidate: true}, nil
	}
	r := newReader(body, order(h))
	sec, err := r.u32()
	if err != nil {
		return InfoTimestamp{}, err
	}
	frac, err := r.u32()
	if err != nil {
		return InfoTimestamp{}, err
	}
	nanos := int64(frac) * int64(time.Second) / (1 << 32)
	ts := time.Unix(int64(sec), nanos).UTC()
	return InfoTimestamp{Timestamp: ts}, nil
}
