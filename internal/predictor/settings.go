package predictor

import (
	"fmt"
	"strings"

	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

const (
	// NoWindow selects the continuous, whole-history variant of a unit.
	NoWindow = 0

	MinWindow = 2
	MaxWindow = 1024
	// MaxBitWindow bounds firing count windows to one word.
	MaxBitWindow = 64
	// MaxPatternWindow keeps bit pattern codes exact in a float64 mantissa.
	MaxPatternWindow = 53
)

// Settings describes one configured predictor unit.
type Settings struct {
	ID     ID
	Window int
	// Figure applies to ActivationStat.
	Figure stats.Figure
	// Series applies to ActivationStat and ActivationRescaledRange.
	Series Series
	// Exponent and KeepSign apply to PoweredActivation.
	Exponent float64
	KeepSign bool
	// Strength is the fading strength of ActivationExpWAvg and FiringTrace.
	Strength float64
}

// Continuous reports whether the unit spans the whole history.
func (s Settings) Continuous() bool {
	return s.Window == NoWindow
}

// String renders a label unique among distinct settings.
func (s Settings) String() string {
	var b strings.Builder
	b.WriteString(s.ID.String())
	switch s.ID {
	case PoweredActivation:
		fmt.Fprintf(&b, "[exp=%g,keepSign=%t]", s.Exponent, s.KeepSign)
	case ActivationStat:
		fmt.Fprintf(&b, "[%s,%s,%s]", s.Figure, s.Series, windowLabel(s.Window))
	case ActivationRescaledRange:
		fmt.Fprintf(&b, "[%s,%s]", s.Series, windowLabel(s.Window))
	case ActivationExpWAvg, FiringTrace:
		fmt.Fprintf(&b, "[strength=%g,%s]", s.Strength, windowLabel(s.Window))
	case ActivationLinWAvg, FiringCount, FiringBinPattern:
		fmt.Fprintf(&b, "[%s]", windowLabel(s.Window))
	}
	return b.String()
}

func windowLabel(w int) string {
	if w == NoWindow {
		return "continuous"
	}
	return fmt.Sprintf("w=%d", w)
}

// Validate checks the settings against the bounds of the unit kind.
func (s Settings) Validate() error {
	switch s.ID {
	case Activation:
		return s.requireNoWindow()
	case PoweredActivation:
		if !(s.Exponent > 0) {
			return fmt.Errorf("%w: %s exponent %g must be positive", ErrInvalidParameter, s.ID, s.Exponent)
		}
		return s.requireNoWindow()
	case ActivationStat:
		if !s.Figure.Valid() {
			return fmt.Errorf("%w: %s figure %s", ErrInvalidParameter, s.ID, s.Figure)
		}
		if err := s.validateSeries(); err != nil {
			return err
		}
		return s.optionalWindow(MaxWindow)
	case ActivationRescaledRange:
		if err := s.validateSeries(); err != nil {
			return err
		}
		return s.requireWindow(MaxWindow)
	case ActivationLinWAvg:
		return s.optionalWindow(MaxWindow)
	case ActivationExpWAvg, FiringTrace:
		if !(s.Strength > 0 && s.Strength < 1) {
			return fmt.Errorf("%w: %s strength %g outside (0,1)", ErrInvalidParameter, s.ID, s.Strength)
		}
		return s.optionalWindow(MaxWindow)
	case FiringCount:
		return s.requireWindow(MaxBitWindow)
	case FiringBinPattern:
		return s.requireWindow(MaxPatternWindow)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPredictor, s.ID)
	}
}

func (s Settings) validateSeries() error {
	if s.Series != SeriesActivation && s.Series != SeriesDelta {
		return fmt.Errorf("%w: %s", ErrUnknownSeries, s.Series)
	}
	return nil
}

func (s Settings) requireNoWindow() error {
	if s.Window != NoWindow {
		return fmt.Errorf("%w: %s takes no window, got %d", ErrInvalidWindowSize, s.ID, s.Window)
	}
	return nil
}

func (s Settings) optionalWindow(limit int) error {
	if s.Window == NoWindow {
		return nil
	}
	return s.requireWindow(limit)
}

func (s Settings) requireWindow(limit int) error {
	if s.Window < MinWindow || s.Window > limit {
		return fmt.Errorf("%w: %s window %d outside [%d,%d]", ErrInvalidWindowSize, s.ID, s.Window, MinWindow, limit)
	}
	return nil
}

// requirements lists the shared resources a unit reads.
type requirements struct {
	dataWindow     int
	bitWindow      int
	activationStat bool
	deltaStat      bool
}

func (s Settings) requirements() requirements {
	var r requirements
	switch s.ID {
	case ActivationStat:
		switch {
		case s.Continuous() && s.Series == SeriesDelta:
			r.deltaStat = true
		case s.Continuous():
			r.activationStat = true
		default:
			r.dataWindow = s.dataSamples()
		}
	case ActivationRescaledRange:
		r.dataWindow = s.dataSamples()
	case ActivationLinWAvg, ActivationExpWAvg:
		if !s.Continuous() {
			r.dataWindow = s.Window
		}
	case FiringTrace:
		if !s.Continuous() {
			r.bitWindow = s.Window
		}
	case FiringCount, FiringBinPattern:
		r.bitWindow = s.Window
	}
	return r
}

// dataSamples is the number of activations a windowed series needs; K
// deltas are derived from K+1 activations.
func (s Settings) dataSamples() int {
	if s.Series == SeriesDelta {
		return s.Window + 1
	}
	return s.Window
}

// historyLength is the number of updates before the unit stops soft-failing.
func (s Settings) historyLength() int {
	r := s.requirements()
	return max(r.dataWindow, r.bitWindow)
}
