package window

import (
	"fmt"
	"math"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

// AllSamples asks a windowed query to cover every buffered sample.
const AllSamples = -1

// SlidingDataWindow keeps the most recent samples of a real-valued series.
type SlidingDataWindow struct {
	queue *BoundedQueue[float64]
}

func NewSlidingDataWindow(capacity int) (*SlidingDataWindow, error) {
	q, err := NewBoundedQueue[float64](capacity)
	if err != nil {
		return nil, err
	}
	return &SlidingDataWindow{queue: q}, nil
}

// AddSample pushes v, silently evicting the oldest sample when full.
func (w *SlidingDataWindow) AddSample(v float64) {
	w.queue.Push(v)
}

func (w *SlidingDataWindow) Capacity() int { return w.queue.Cap() }

func (w *SlidingDataWindow) Count() int { return w.queue.Len() }

func (w *SlidingDataWindow) Full() bool { return w.queue.Full() }

func (w *SlidingDataWindow) Reset() { w.queue.Reset() }

// GetAt returns a buffered sample. With latestFirst index 0 is the newest
// sample, otherwise it is the oldest.
func (w *SlidingDataWindow) GetAt(index int, latestFirst bool) (float64, error) {
	if index < 0 || index >= w.queue.Len() {
		return 0, fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidArgument, index, w.queue.Len())
	}
	if latestFirst {
		return w.queue.Latest(index), nil
	}
	return w.queue.At(index), nil
}

// Filled reports whether at least reqCount samples are buffered.
func (w *SlidingDataWindow) Filled(reqCount int) bool {
	return reqCount <= w.queue.Len()
}

// resolve maps AllSamples to the buffered count and checks readiness.
func (w *SlidingDataWindow) resolve(reqCount int) (int, error) {
	if reqCount == AllSamples {
		return w.queue.Len(), nil
	}
	if reqCount < 0 || reqCount > w.queue.Cap() {
		return 0, fmt.Errorf("%w: request of %d samples on capacity %d", ErrInvalidArgument, reqCount, w.queue.Cap())
	}
	if reqCount > w.queue.Len() {
		return 0, fmt.Errorf("%w: requested %d, buffered %d", ErrInsufficientSamples, reqCount, w.queue.Len())
	}
	return reqCount, nil
}

// selected returns the i-th of the n most recent samples, ordered newest
// first or oldest first.
func (w *SlidingDataWindow) selected(i, n int, latestFirst bool) float64 {
	if latestFirst {
		return w.queue.Latest(i)
	}
	return w.queue.Latest(n - 1 - i)
}

// GetWeightedAvg accumulates the reqCount most recent samples. weights[i]
// applies to the i-th sample in the requested order; nil weights mean 1.
func (w *SlidingDataWindow) GetWeightedAvg(weights []float64, latestFirst bool, reqCount int) (*stats.WeightedAccumulator, error) {
	n, err := w.resolve(reqCount)
	if err != nil {
		return nil, err
	}
	if weights != nil && len(weights) < n {
		return nil, fmt.Errorf("%w: %d weights for %d samples", ErrInvalidArgument, len(weights), n)
	}
	acc := stats.NewWeightedAccumulator()
	for i := 0; i < n; i++ {
		weight := 1.0
		if weights != nil {
			weight = weights[i]
		}
		acc.AddSample(w.selected(i, n, latestFirst), weight)
	}
	return acc, nil
}

// GetDataStat builds a RunningStat over the reqCount most recent samples.
func (w *SlidingDataWindow) GetDataStat(latestFirst bool, reqCount int) (*stats.RunningStat, error) {
	n, err := w.resolve(reqCount)
	if err != nil {
		return nil, err
	}
	s := stats.NewRunningStat()
	for i := 0; i < n; i++ {
		s.AddSample(w.selected(i, n, latestFirst))
	}
	return s, nil
}

// GetDeltaStat builds a RunningStat over the reqCount most recent
// differences between consecutive samples. It needs reqCount+1 samples.
func (w *SlidingDataWindow) GetDeltaStat(reqCount int) (*stats.RunningStat, error) {
	deltas, err := w.deltas(reqCount)
	if err != nil {
		return nil, err
	}
	return stats.NewRunningStat(deltas...), nil
}

func (w *SlidingDataWindow) deltas(reqCount int) ([]float64, error) {
	if reqCount == AllSamples {
		reqCount = max(w.queue.Len()-1, 0)
	}
	if reqCount < 0 || reqCount+1 > w.queue.Cap() {
		return nil, fmt.Errorf("%w: %d deltas on capacity %d", ErrInvalidArgument, reqCount, w.queue.Cap())
	}
	if reqCount+1 > w.queue.Len() {
		return nil, fmt.Errorf("%w: %d deltas need %d samples, buffered %d", ErrInsufficientSamples, reqCount, reqCount+1, w.queue.Len())
	}
	deltas := make([]float64, reqCount)
	for i := 0; i < reqCount; i++ {
		// oldest first
		newer := w.queue.Latest(reqCount - 1 - i)
		older := w.queue.Latest(reqCount - i)
		deltas[i] = newer - older
	}
	return deltas, nil
}

// RescaledRange returns R/S over the k most recent samples, or 0 when
// fewer than two samples are available or the series is flat.
func (w *SlidingDataWindow) RescaledRange(k int) float64 {
	if k == AllSamples {
		k = w.queue.Len()
	}
	if k < 2 || k > w.queue.Len() {
		return 0
	}
	series := make([]float64, k)
	for i := range series {
		series[i] = w.queue.Latest(k - 1 - i)
	}
	return rescaledRange(series)
}

// DeltaRescaledRange returns R/S over the k most recent sample differences.
func (w *SlidingDataWindow) DeltaRescaledRange(k int) float64 {
	deltas, err := w.deltas(k)
	if err != nil || len(deltas) < 2 {
		return 0
	}
	return rescaledRange(deltas)
}

// rescaledRange expects the series oldest first.
func rescaledRange(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	s := stats.NewRunningStat(series...)
	stdDev := s.Get(stats.StdDev)
	if stdDev == 0 {
		return 0
	}
	mean := s.Get(stats.ArithAvg)
	cum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, v := range series {
		cum += v - mean
		lo = math.Min(lo, cum)
		hi = math.Max(hi, cum)
	}
	return (hi - lo) / stdDev
}
