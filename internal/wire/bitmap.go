package wire

import "github.com/NewsLabNTU/ddshark-go/internal/rtps"

// SequenceNumberSet is a base sequence number plus a bitmap of additional
// offsets, used by AckNack and Gap submessages.
type SequenceNumberSet struct {
	Base    rtps.SequenceNumber
	NumBits uint32
	Bitmap  []uint32
}

// Offsets returns the offsets (relative to Base) whose bit is set.
func (s SequenceNumberSet) Offsets() []uint32 {
	var out []uint32
	for i := uint32(0); i < s.NumBits; i++ {
		word := s.Bitmap[i/32]
		bit := uint(31 - i%32)
		if word&(1<<bit) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func (r *reader) sequenceNumberSet() (SequenceNumberSet, error) {
	high, err := r.i32()
	if err != nil {
		return SequenceNumberSet{}, err
	}
	low, err := r.u32()
	if err != nil {
		return SequenceNumberSet{}, err
	}
	numBits, err := r.u32()
	if err != nil {
		return SequenceNumberSet{}, err
	}
	numWords := (numBits + 31) / 32
	bitmap := make([]uint32, numWords)
	for i := range bitmap {
		w, err := r.u32()
		if err != nil {
			return SequenceNumberSet{}, err
		}
		bitmap[i] = w
	}
	return SequenceNumberSet{
		Base:    rtps.SequenceNumberFromWire(high, low),
		NumBits: numBits,
		Bitmap:  bitmap,
	}, nil
}

// FragmentNumberSet is a base fragment number plus a bitmap of additional
// offsets, used by NackFrag submessages.
type FragmentNumberSet struct {
	Base    rtps.FragmentNumber
	NumBits uint32
	Bitmap  []uint32
}

func (r *reader) fragmentNumberSet() (FragmentNumberSet, error) {
	base, err := r.u32()
	if err != nil {
		return FragmentNumberSet{}, err
	}
	numBits, err := r.u32()
	if err != nil {
		return FragmentNumberSet{}, err
	}
	numWords := (numBits + 31) / 32
	bitmap := make([]uint32, numWords)
	for i := range bitmap {
		w, err := r.u32()
		if err != nil {
			return FragmentNumberSet{}, err
		}
		bitmap[i] = w
	}
	return FragmentNumberSet{
		Base:    rtps.FragmentNumber(base),
		NumBits: numBits,
		Bitmap:  bitmap,
	}, nil
}

func (r *reader) entityID() (rtps.EntityID, error) {
	b, err := r.bytes(4)
	if err != nil {
		return rtps.EntityID{}, err
	}
	var e rtps.EntityID
	copy(e[:], b)
	return e, nil
}

func (r *reader) sequenceNumber() (rtps.SequenceNumber, error) {
	high, err := r.i32()
	if err != nil {
		return 0, err
	}
	low, err := r.u32()
	if err != nil {
		return 0, err
	}
	return rtps.SequenceNumberFromWire(high, low), nil
}
