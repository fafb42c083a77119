package defrag

import (
	"reflect"
	"testing"
)

func ranges(pairs ...[2]int) []Range {
	out := make([]Range, len(pairs))
	for i, p := range pairs {
		out[i] = Range{Start: p[0], End: p[1]}
	}
	return out
}

func TestDefragBufFullInsert(t *testing.T) {
	b := New(10)
	if got := b.FreeIntervals(); !reflect.DeepEqual(got, ranges([2]int{0, 10})) {
		t.Fatalf("FreeIntervals = %v", got)
	}
	if err := b.Insert(0, 10); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := b.FreeIntervals(); len(got) != 0 {
		t.Fatalf("FreeIntervals after full insert = %v, want empty", got)
	}
	if !b.IsFull() {
		t.Fatal("IsFull() = false, want true")
	}
}

func TestDefragBufOverlapRejected(t *testing.T) {
	b := New(10)
	if err := b.Insert(1, 6); err != nil {
		t.Fatalf("Insert(1,6): %v", err)
	}
	if err := b.Insert(3, 4); err == nil {
		t.Fatal("Insert(3,4) should fail: overlaps a used interval")
	}
	if got, want := b.FreeIntervals(), ranges([2]int{0, 1}, [2]int{6, 10}); !reflect.DeepEqual(got, want) {
		t.Fatalf("FreeIntervals = %v, want %v", got, want)
	}
}

func TestDefragBufCascadingInserts(t *testing.T) {
	b := New(10)

	step := func(wantPairs ...[2]int) {
		t.Helper()
		if got, want := b.FreeIntervals(), ranges(wantPairs...); !reflect.DeepEqual(got, want) {
			t.Fatalf("FreeIntervals = %v, want %v", got, want)
		}
	}

	must := func(start, end int) {
		t.Helper()
		if err := b.Insert(start, end); err != nil {
			t.Fatalf("Insert(%d,%d): %v", start, end, err)
		}
	}

	must(1, 2)
	step([2]int{0, 1}, [2]int{2, 10})

	must(2, 4)
	step([2]int{0, 1}, [2]int{4, 10})

	must(9, 10)
	step([2]int{0, 1}, [2]int{4, 9})

	must(6, 7)
	step([2]int{0, 1}, [2]int{4, 6}, [2]int{7, 9})

	must(8, 9)
	step([2]int{0, 1}, [2]int{4, 6}, [2]int{7, 8})

	must(4, 6)
	step([2]int{0, 1}, [2]int{7, 8})

	must(0, 1)
	step([2]int{7, 8})

	must(7, 8)
	if !b.IsFull() {
		t.Fatal("IsFull() = false, want true")
	}
}

func TestDefragBufInvalidRanges(t *testing.T) {
	b := New(10)
	if err := b.Insert(5, 5); err == nil {
		t.Fatal("Insert(5,5) should fail: empty range")
	}
	if err := b.Insert(0, 11); err == nil {
		t.Fatal("Insert(0,11) should fail: exceeds length")
	}
}
