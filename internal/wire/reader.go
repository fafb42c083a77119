package wire

import (
	"encoding/binary"
	"fmt"
)

// reader walks a byte slice with a configurable byte order, tracking
// position. RTPS messages are little-endian when a submessage's flags bit
// 0 is set and big-endian otherwise; the byte order can change between
// submessages within the same message.
type reader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func newReader(buf []byte, order binary.ByteOrder) *reader {
	return &reader{buf: buf, order: order}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) require(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("wire: short read: need %d bytes, have %d", n, r.remaining())
	}
	return nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// align pads the cursor forward to the next multiple of n bytes relative
// to the start of the buffer, as required between CDR-encoded fields.
func (r *reader) align(n int) error {
	rem := r.pos % n
	if rem == 0 {
		return nil
	}
	pad := n - rem
	_, err := r.bytes(pad)
	return err
}
