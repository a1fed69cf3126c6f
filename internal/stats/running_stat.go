package stats

import (
	"math"
	"sync"
)

// Stat is the contract shared by the unsynchronized RunningStat and the
// mutex-guarded SyncRunningStat.
type Stat interface {
	AddSample(v float64)
	AddSamples(vs ...float64)
	Reset()
	Get(f Figure) float64
	Count() int
	NonZeroCount() int
	SimulateNext(v float64) Projection
	Clone() *RunningStat
}

// NewStat returns a RunningStat, or a SyncRunningStat when threadSafe is set.
func NewStat(threadSafe bool) Stat {
	if threadSafe {
		return NewSyncRunningStat()
	}
	return NewRunningStat()
}

// Projection is the outcome of a what-if sample that was never stored.
type Projection struct {
	Mean     float64
	Variance float64
	StdDev   float64
}

// derived holds the figures recomputed lazily after a mutation.
type derived struct {
	mean           float64
	meanSquare     float64
	rootMeanSquare float64
	variance       float64
	stdDev         float64
	spanDev        float64
}

// RunningStat aggregates count, sums and extremes of an unbounded stream.
// It is not safe for concurrent use; see SyncRunningStat.
type RunningStat struct {
	count        int
	nonZeroCount int
	sum          float64
	negSum       float64
	posSum       float64
	sumOfSquares float64
	min          float64
	max          float64

	dirty   bool
	derived derived
}

// NewRunningStat creates an empty RunningStat, optionally seeded with samples.
func NewRunningStat(samples ...float64) *RunningStat {
	s := &RunningStat{}
	s.AddSamples(samples...)
	return s
}

// AddSample folds v into the aggregate in O(1).
func (s *RunningStat) AddSample(v float64) {
	if s.count == 0 {
		s.min, s.max = v, v
	} else {
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.count++
	if v != 0 {
		s.nonZeroCount++
	}
	s.sum += v
	if v < 0 {
		s.negSum += v
	} else {
		s.posSum += v
	}
	s.sumOfSquares += v * v
	s.dirty = true
}

func (s *RunningStat) AddSamples(vs ...float64) {
	for _, v := range vs {
		s.AddSample(v)
	}
}

func (s *RunningStat) Reset() {
	*s = RunningStat{}
}

func (s *RunningStat) Count() int {
	return s.count
}

func (s *RunningStat) NonZeroCount() int {
	return s.nonZeroCount
}

// Clone returns an independent copy carrying the same accumulated state.
func (s *RunningStat) Clone() *RunningStat {
	c := *s
	return &c
}

// Get returns the requested figure. All figures are 0 while the stat is empty.
func (s *RunningStat) Get(f Figure) float64 {
	if s.count == 0 {
		return 0
	}
	if s.dirty {
		s.recompute()
	}
	switch f {
	case Sum:
		return s.sum
	case NegSum:
		return s.negSum
	case PosSum:
		return s.posSum
	case SumOfSquares:
		return s.sumOfSquares
	case Min:
		return s.min
	case Max:
		return s.max
	case Mid:
		return (s.min + s.max) / 2
	case Span:
		return s.max - s.min
	case ArithAvg:
		return s.derived.mean
	case MeanSquare:
		return s.derived.meanSquare
	case RootMeanSquare:
		return s.derived.rootMeanSquare
	case Variance:
		return s.derived.variance
	case StdDev:
		return s.derived.stdDev
	case SpanDev:
		return s.derived.spanDev
	default:
		return 0
	}
}

// SimulateNext projects mean, variance and deviation as if v had been added.
// The receiver is left untouched.
func (s *RunningStat) SimulateNext(v float64) Projection {
	n := float64(s.count + 1)
	mean := (s.sum + v) / n
	variance := clampVariance((s.sumOfSquares+v*v)/n - mean*mean)
	return Projection{Mean: mean, Variance: variance, StdDev: math.Sqrt(variance)}
}

func (s *RunningStat) recompute() {
	n := float64(s.count)
	d := derived{
		mean:       s.sum / n,
		meanSquare: s.sumOfSquares / n,
	}
	d.rootMeanSquare = math.Sqrt(d.meanSquare)
	d.variance = clampVariance(d.meanSquare - d.mean*d.mean)
	d.stdDev = math.Sqrt(d.variance)
	d.spanDev = (s.max - s.min) * d.stdDev
	s.derived = d
	s.dirty = false
}

// E[x²]-E[x]² can dip below zero through cancellation.
func clampVariance(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// SyncRunningStat guards a RunningStat with a mutex so it can be shared
// between goroutines, e.g. a network-wide aggregate fed by many workers.
type SyncRunningStat struct {
	mu   sync.Mutex
	stat RunningStat
}

func NewSyncRunningStat(samples ...float64) *SyncRunningStat {
	s := &SyncRunningStat{}
	s.stat.AddSamples(samples...)
	return s
}

func (s *SyncRunningStat) AddSample(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stat.AddSample(v)
}

func (s *SyncRunningStat) AddSamples(vs ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stat.AddSamples(vs...)
}

func (s *SyncRunningStat) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stat.Reset()
}

// Get takes the exclusive lock because a read may refresh the derived cache.
func (s *SyncRunningStat) Get(f Figure) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.Get(f)
}

func (s *SyncRunningStat) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.Count()
}

func (s *SyncRunningStat) NonZeroCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.NonZeroCount()
}

func (s *SyncRunningStat) SimulateNext(v float64) Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.SimulateNext(v)
}

// Clone returns an unsynchronized snapshot.
func (s *SyncRunningStat) Clone() *RunningStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.Clone()
}
