// Package ratestat implements TimedStat, a sliding-window statistic over a
// stream of timestamped samples. It reports a smoothed per-second rate
// (sum of values in the window divided by the window length) rather than
// an arithmetic mean, along with the corresponding variance and standard
// deviation.
package ratestat

import (
	"container/heap"
	"math"
	"time"
)

// Stat holds the current sum, sum of squares, and derived mean/variance/
// standard deviation over the window.
type Stat struct {
	Sum        float64
	SumSquares float64
	Mean       float64
	Var        float64
	StdDev     float64
}

// Sample is a discarded (out-of-window) observation returned by Push and
// SetLastTS.
type Sample struct {
	Time  time.Time
	Value float64
}

type entry struct {
	time  time.Time
	value float64
}

// entryHeap is a min-heap ordered by time, used to efficiently find and
// evict the oldest samples as the window advances.
type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].time.Before(h[j].time) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TimedStat accumulates samples within a trailing window of fixed
// duration and exposes their aggregate statistics.
type TimedStat struct {
	window  time.Duration
	values  entryHeap
	lastTS  time.Time
	hasLast bool
	stat    Stat
}

// New creates a TimedStat with the given window duration. window must be
// positive.
func New(window time.Duration) *TimedStat {
	if window <= 0 {
		panic("ratestat: window must be positive")
	}
	return &TimedStat{window: window}
}

// Push records a new sample at ts and evicts samples that have fallen out
// of the window relative to ts. It returns the evicted samples, oldest
// first.
func (s *TimedStat) Push(ts time.Time, value float64) []Sample {
	heap.Push(&s.values, entry{time: ts, value: value})
	s.stat.Sum += value
	s.stat.SumSquares += value * value
	return s.SetLastTS(ts)
}

// SetLastTS advances the window's reference time without pushing a new
// sample, evicting any samples older than ts-window. It returns the
// evicted samples, oldest first.
func (s *TimedStat) SetLastTS(ts time.Time) []Sample {
	s.lastTS = ts
	s.hasLast = true
	lowerTS := ts.Add(-s.window)

	var discarded []Sample
	for s.values.Len() > 0 {
		e := s.values[0]
		if !e.time.Before(lowerTS) {
			break
		}
		heap.Pop(&s.values)
		discarded = append(discarded, Sample{Time: e.time, Value: e.value})
		s.stat.Sum -= e.value
		s.stat.SumSquares -= e.value * e.value
	}

	s.updateStat()
	return discarded
}

// Stat returns the current aggregate statistics.
func (s *TimedStat) Stat() Stat {
	return s.stat
}

func (s *TimedStat) updateStat() {
	windowSecs := s.window.Seconds()
	mean := s.stat.Sum / windowSecs
	v := s.stat.SumSquares/windowSecs - mean*mean
	s.stat.Mean = mean
	s.stat.Var = v
	s.stat.StdDev = math.Sqrt(v)
}
