package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// WeightedAccumulator keeps a weighted average that supports removal.
// Sums are held as decimals so that adding and then removing the same
// sample restores the previous state exactly.
type WeightedAccumulator struct {
	sampleCount         int
	sumOfWeightedValues decimal.Decimal
	sumOfWeights        decimal.Decimal
}

// WeightedState is a float view of the accumulator sums.
type WeightedState struct {
	SampleCount         int
	SumOfWeightedValues float64
	SumOfWeights        float64
}

func NewWeightedAccumulator() *WeightedAccumulator {
	return &WeightedAccumulator{}
}

// AddSample accumulates value with the given weight and returns the updated
// average. Non-finite inputs are ignored.
func (a *WeightedAccumulator) AddSample(value, weight float64) float64 {
	if !finite(value) || !finite(weight) {
		return a.Average()
	}
	w := decimal.NewFromFloat(weight)
	a.sumOfWeightedValues = a.sumOfWeightedValues.Add(decimal.NewFromFloat(value).Mul(w))
	a.sumOfWeights = a.sumOfWeights.Add(w)
	a.sampleCount++
	return a.Average()
}

// RemoveSample undoes a previous AddSample(value, weight) and returns the
// updated average.
func (a *WeightedAccumulator) RemoveSample(value, weight float64) (float64, error) {
	if a.sampleCount == 0 {
		return 0, ErrEmptyAccumulator
	}
	if !finite(value) || !finite(weight) {
		return a.Average(), nil
	}
	a.sampleCount--
	if a.sampleCount == 0 {
		a.sumOfWeightedValues = decimal.Zero
		a.sumOfWeights = decimal.Zero
		return 0, nil
	}
	w := decimal.NewFromFloat(weight)
	a.sumOfWeightedValues = a.sumOfWeightedValues.Sub(decimal.NewFromFloat(value).Mul(w))
	a.sumOfWeights = a.sumOfWeights.Sub(w)
	return a.Average(), nil
}

// SimulateNext returns the average AddSample(value, weight) would produce.
func (a *WeightedAccumulator) SimulateNext(value, weight float64) float64 {
	if !finite(value) || !finite(weight) {
		return a.Average()
	}
	w := decimal.NewFromFloat(weight)
	return average(
		a.sumOfWeightedValues.Add(decimal.NewFromFloat(value).Mul(w)),
		a.sumOfWeights.Add(w),
	)
}

// Average is 0 when no weight has been accumulated.
func (a *WeightedAccumulator) Average() float64 {
	return average(a.sumOfWeightedValues, a.sumOfWeights)
}

func (a *WeightedAccumulator) Count() int {
	return a.sampleCount
}

func (a *WeightedAccumulator) State() WeightedState {
	return WeightedState{
		SampleCount:         a.sampleCount,
		SumOfWeightedValues: a.sumOfWeightedValues.InexactFloat64(),
		SumOfWeights:        a.sumOfWeights.InexactFloat64(),
	}
}

func (a *WeightedAccumulator) Reset() {
	*a = WeightedAccumulator{}
}

// average divides in float: decimal.Div rounds to a fixed number of
// decimal places, which flushes small averages to zero.
func average(weighted, weights decimal.Decimal) float64 {
	if weights.IsZero() {
		return 0
	}
	return weighted.InexactFloat64() / weights.InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
