package rtps

// SequenceNumber is a signed, monotonically increasing per-writer sequence
// number. SEQUENCENUMBER_UNKNOWN on the wire is represented as -2^32
// (see SequenceNumberUnknown) and is never produced by a conforming writer.
type SequenceNumber int64

// SequenceNumberUnknown mirrors the RTPS SEQUENCENUMBER_UNKNOWN sentinel
// (high=-1, low=0 on the wire).
const SequenceNumberUnknown SequenceNumber = -1 << 32

// SequenceNumberFromWire reconstructs a SequenceNumber from its wire representation: a
// signed 32-bit high word and an unsigned 32-bit low word.
func SequenceNumberFromWire(high int32, low uint32) SequenceNumber {
	return SequenceNumber(int64(high)<<32 | int64(low))
}

// FragmentNumber is a 1-origin index into a fragmented sample.
type FragmentNumber uint32
