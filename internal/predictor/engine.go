package predictor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
	"github.com/sanspareilsmyn/reservoirlens/internal/window"
)

// Engine drives a fixed list of predictor units over shared resources that
// are sized once, from the largest requirement among the units.
// An Engine must be driven by a single goroutine.
type Engine struct {
	units           []*Unit
	ids             []ID
	res             Resources
	requiredHistory int
	steps           int

	lastActivation float64
	lastNormalized float64
	lastSpike      bool
}

// NewEngine builds the units in the given order and allocates only the
// shared resources they need.
func NewEngine(settings []Settings, logger *zap.Logger) (*Engine, error) {
	if len(settings) == 0 {
		return nil, ErrNoPredictors
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		units: make([]*Unit, 0, len(settings)),
		ids:   make([]ID, 0, len(settings)),
	}
	var need requirements
	for i, s := range settings {
		u, err := NewUnit(s)
		if err != nil {
			return nil, fmt.Errorf("predictor #%d: %w", i, err)
		}
		e.units = append(e.units, u)
		e.ids = append(e.ids, s.ID)

		r := s.requirements()
		need.dataWindow = max(need.dataWindow, r.dataWindow)
		need.bitWindow = max(need.bitWindow, r.bitWindow)
		need.activationStat = need.activationStat || r.activationStat
		need.deltaStat = need.deltaStat || r.deltaStat
		e.requiredHistory = max(e.requiredHistory, s.historyLength())
	}

	if need.activationStat {
		e.res.ActivationStat = stats.NewRunningStat()
	}
	if need.deltaStat {
		e.res.DeltaStat = stats.NewRunningStat()
	}
	if need.dataWindow > 0 {
		w, err := window.NewSlidingDataWindow(need.dataWindow)
		if err != nil {
			return nil, err
		}
		e.res.DataWindow = w
	}
	if need.bitWindow > 0 {
		w, err := window.NewBitRingWindow(need.bitWindow)
		if err != nil {
			return nil, err
		}
		e.res.BitWindow = w
	}

	logger.Debug("Predictor engine sized",
		zap.Int("units", len(e.units)),
		zap.Int("data_window", need.dataWindow),
		zap.Int("bit_window", need.bitWindow),
		zap.Bool("activation_stat", need.activationStat),
		zap.Bool("delta_stat", need.deltaStat),
		zap.Int("required_history", e.requiredHistory),
	)
	return e, nil
}

// Update feeds one simulation step into the shared resources and units.
func (e *Engine) Update(activation, normalizedActivation float64, spike bool) {
	if e.res.ActivationStat != nil {
		e.res.ActivationStat.AddSample(activation)
	}
	// The first step has no predecessor to differ from.
	if e.res.DeltaStat != nil && e.steps > 0 {
		e.res.DeltaStat.AddSample(activation - e.lastActivation)
	}
	if e.res.DataWindow != nil {
		e.res.DataWindow.AddSample(activation)
	}
	if e.res.BitWindow != nil {
		e.res.BitWindow.PushBit(spike)
	}
	for _, u := range e.units {
		u.Update(activation, normalizedActivation, spike)
	}
	e.lastActivation = activation
	e.lastNormalized = normalizedActivation
	e.lastSpike = spike
	e.steps++
}

// ComputePredictors evaluates every unit in configured order. Position i of
// the result belongs to IDs()[i].
func (e *Engine) ComputePredictors() []float64 {
	return e.ComputePredictorsInto(make([]float64, len(e.units)))
}

// ComputePredictorsInto is ComputePredictors writing into dst, which is
// grown when shorter than the unit count.
func (e *Engine) ComputePredictorsInto(dst []float64) []float64 {
	if cap(dst) < len(e.units) {
		dst = make([]float64, len(e.units))
	}
	dst = dst[:len(e.units)]
	for i, u := range e.units {
		dst[i] = u.Compute(&e.res, e.lastActivation, e.lastNormalized, e.lastSpike)
	}
	return dst
}

// IDs returns the predictor ids in output order.
func (e *Engine) IDs() []ID {
	ids := make([]ID, len(e.ids))
	copy(ids, e.ids)
	return ids
}

// Labels returns a distinct label for each output position.
func (e *Engine) Labels() []string {
	labels := make([]string, len(e.units))
	for i, u := range e.units {
		labels[i] = u.Settings().String()
	}
	return labels
}

// RequiredHistoryLength is the number of updates after which no windowed
// unit soft-fails any more.
func (e *Engine) RequiredHistoryLength() int { return e.requiredHistory }

// Ready reports whether RequiredHistoryLength updates have been applied.
func (e *Engine) Ready() bool { return e.steps >= e.requiredHistory }

func (e *Engine) Steps() int { return e.steps }

// Resources exposes the shared resources for inspection.
func (e *Engine) Resources() Resources { return e.res }

// Reset returns the engine and its units to the freshly built state.
func (e *Engine) Reset() {
	if e.res.ActivationStat != nil {
		e.res.ActivationStat.Reset()
	}
	if e.res.DeltaStat != nil {
		e.res.DeltaStat.Reset()
	}
	if e.res.DataWindow != nil {
		e.res.DataWindow.Reset()
	}
	if e.res.BitWindow != nil {
		e.res.BitWindow.Reset()
	}
	for _, u := range e.units {
		u.Reset()
	}
	e.steps = 0
	e.lastActivation, e.lastNormalized, e.lastSpike = 0, 0, false
}
