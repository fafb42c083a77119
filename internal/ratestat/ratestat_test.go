package ratestat

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestTimedStatSumExact(t *testing.T) {
	s := New(5 * time.Second)
	base := time.Unix(1000, 0)

	s.Push(base, 2.0)
	s.Push(base.Add(1*time.Second), 3.0)
	s.Push(base.Add(2*time.Second), 5.0)

	stat := s.Stat()
	assert.Equal(t, stat.Sum, 10.0)
	assert.Equal(t, stat.SumSquares, 4.0+9.0+25.0)
	assert.Equal(t, stat.Mean, 10.0/5.0)
}

func TestTimedStatEvictsOutOfWindow(t *testing.T) {
	s := New(3 * time.Second)
	base := time.Unix(2000, 0)

	s.Push(base, 1.0)
	s.Push(base.Add(1*time.Second), 1.0)

	discarded := s.Push(base.Add(5*time.Second), 1.0)
	assert.Equal(t, len(discarded), 2)
	assert.Equal(t, s.Stat().Sum, 1.0)
}

func TestTimedStatSetLastTSEvictsWithoutPush(t *testing.T) {
	s := New(2 * time.Second)
	base := time.Unix(3000, 0)

	s.Push(base, 4.0)
	discarded := s.SetLastTS(base.Add(10 * time.Second))
	assert.Equal(t, len(discarded), 1)
	assert.Equal(t, s.Stat().Sum, 0.0)
}
