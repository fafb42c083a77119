package capture

import (
	"context"
	"testing"
	"time"
)

func TestPaceWaitsForSubsequentOffsets(t *testing.T) {
	s := &Source{offline: true}
	ctx := context.Background()

	base := time.Now()
	if err := s.pace(ctx, base); err != nil {
		t.Fatalf("first pace: %v", err)
	}

	start := time.Now()
	if err := s.pace(ctx, base.Add(30*time.Millisecond)); err != nil {
		t.Fatalf("second pace: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 20*time.Millisecond {
		t.Errorf("pace returned after %v, want at least ~30ms", elapsed)
	}
}

func TestPaceCancellable(t *testing.T) {
	s := &Source{offline: true}
	ctx, cancel := context.Background(), func() {}
	_ = cancel

	base := time.Now()
	_ = s.pace(ctx, base)

	cctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	err := s.pace(cctx, base.Add(time.Hour))
	if err == nil {
		t.Fatal("pace should report the cancellation error when ctx is already done")
	}
}
