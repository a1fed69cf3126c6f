package predictor

import (
	"math"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
	"github.com/sanspareilsmyn/reservoirlens/internal/window"
)

// Resources is the bundle of shared state every unit reads in Compute.
// Fields an engine does not need are nil.
type Resources struct {
	ActivationStat *stats.RunningStat
	DeltaStat      *stats.RunningStat
	DataWindow     *window.SlidingDataWindow
	BitWindow      *window.BitRingWindow
}

// Unit is one predictor. Its behaviour is selected by settings.ID; only the
// private fields relevant to that kind are used.
type Unit struct {
	settings Settings
	steps    int

	// windowed weighted averages, latest sample first
	weights []float64
	// continuous linearly weighted average
	linAvg *stats.WeightedAccumulator
	// continuous exponentially weighted average
	fadedSum    float64
	fadedWeight float64
	// continuous firing trace
	trace float64
}

// NewUnit validates settings and prepares the unit's private state.
func NewUnit(settings Settings) (*Unit, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	u := &Unit{settings: settings}
	switch {
	case settings.ID == ActivationLinWAvg && settings.Continuous():
		u.linAvg = stats.NewWeightedAccumulator()
	case settings.ID == ActivationLinWAvg:
		u.weights = window.LinearWeights(settings.Window)
	case settings.ID == ActivationExpWAvg && !settings.Continuous():
		u.weights = window.FadingWeights(settings.Strength, settings.Window)
	}
	return u, nil
}

func (u *Unit) Settings() Settings { return u.settings }

func (u *Unit) ID() ID { return u.settings.ID }

// Accumulating reports whether the unit has seen at least one update.
func (u *Unit) Accumulating() bool { return u.steps > 0 }

func (u *Unit) Reset() {
	u.steps = 0
	u.fadedSum, u.fadedWeight, u.trace = 0, 0, 0
	if u.linAvg != nil {
		u.linAvg.Reset()
	}
}

// Update advances the unit's private continuous state. Kinds that read only
// shared resources just count the step.
func (u *Unit) Update(activation, normalizedActivation float64, spike bool) {
	u.steps++
	if !u.settings.Continuous() {
		return
	}
	keep := 1 - u.settings.Strength
	switch u.settings.ID {
	case ActivationLinWAvg:
		u.linAvg.AddSample(activation, float64(u.steps))
	case ActivationExpWAvg:
		u.fadedSum = u.fadedSum*keep + activation
		u.fadedWeight = u.fadedWeight*keep + 1
	case FiringTrace:
		u.trace = u.trace*keep + spikeValue(spike)
	}
}

// Compute evaluates the unit against the shared resources without mutating
// them. Windowed kinds return 0 until their window has filled.
func (u *Unit) Compute(res *Resources, activation, normalizedActivation float64, spike bool) float64 {
	s := u.settings
	switch s.ID {
	case Activation:
		return activation
	case PoweredActivation:
		v := math.Pow(math.Abs(activation), s.Exponent)
		if s.KeepSign && activation < 0 {
			return -v
		}
		return v
	case ActivationStat:
		return u.computeStat(res)
	case ActivationRescaledRange:
		if !res.DataWindow.Filled(s.dataSamples()) {
			return 0
		}
		if s.Series == SeriesDelta {
			return res.DataWindow.DeltaRescaledRange(s.Window)
		}
		return res.DataWindow.RescaledRange(s.Window)
	case ActivationLinWAvg:
		if s.Continuous() {
			return u.linAvg.Average()
		}
		return u.windowedAverage(res, false)
	case ActivationExpWAvg:
		if s.Continuous() {
			if u.fadedWeight == 0 {
				return 0
			}
			return u.fadedSum / u.fadedWeight
		}
		return u.windowedAverage(res, true)
	case FiringTrace:
		if s.Continuous() {
			return u.trace
		}
		if res.BitWindow.FilledLength() < s.Window {
			return 0
		}
		sum, err := res.BitWindow.GetFadingSum(s.Strength, s.Window)
		if err != nil {
			return 0
		}
		return sum
	case FiringCount:
		n, err := res.BitWindow.GetNumOfSetBits(s.Window)
		if err != nil {
			return 0
		}
		return float64(n)
	case FiringBinPattern:
		code, err := res.BitWindow.GetBits(0, s.Window, false)
		if err != nil {
			return 0
		}
		return float64(code)
	default:
		return 0
	}
}

func (u *Unit) computeStat(res *Resources) float64 {
	s := u.settings
	if s.Continuous() {
		if s.Series == SeriesDelta {
			return res.DeltaStat.Get(s.Figure)
		}
		return res.ActivationStat.Get(s.Figure)
	}
	if !res.DataWindow.Filled(s.dataSamples()) {
		return 0
	}
	var (
		stat *stats.RunningStat
		err  error
	)
	if s.Series == SeriesDelta {
		stat, err = res.DataWindow.GetDeltaStat(s.Window)
	} else {
		stat, err = res.DataWindow.GetDataStat(true, s.Window)
	}
	if err != nil {
		return 0
	}
	return stat.Get(s.Figure)
}

// windowedAverage applies the unit's weights. Linear weights are tabulated
// oldest first, fading weights latest first.
func (u *Unit) windowedAverage(res *Resources, latestFirst bool) float64 {
	if !res.DataWindow.Filled(u.settings.Window) {
		return 0
	}
	acc, err := res.DataWindow.GetWeightedAvg(u.weights, latestFirst, u.settings.Window)
	if err != nil {
		return 0
	}
	return acc.Average()
}

func spikeValue(spike bool) float64 {
	if spike {
		return 1
	}
	return 0
}
