package predictor

import (
	"fmt"
	"strings"
)

// ID identifies a predictor kind. The set is closed.
type ID int

const (
	// Activation passes the current activation through.
	Activation ID = iota
	// PoweredActivation raises |activation| to an exponent, optionally keeping the sign.
	PoweredActivation
	// ActivationStat reports a statistical figure, windowed or continuous.
	ActivationStat
	// ActivationRescaledRange reports the windowed rescaled range.
	ActivationRescaledRange
	// ActivationLinWAvg is a linearly weighted average favouring recent samples.
	ActivationLinWAvg
	// ActivationExpWAvg is an exponentially weighted average.
	ActivationExpWAvg
	// FiringTrace is an exponentially fading sum of spikes.
	FiringTrace
	// FiringCount counts spikes in the window.
	FiringCount
	// FiringBinPattern encodes the window's spikes as an integer code.
	FiringBinPattern
)

var idNames = [...]string{
	Activation:              "Activation",
	PoweredActivation:       "PoweredActivation",
	ActivationStat:          "ActivationStat",
	ActivationRescaledRange: "ActivationRescaledRange",
	ActivationLinWAvg:       "ActivationLinWAvg",
	ActivationExpWAvg:       "ActivationExpWAvg",
	FiringTrace:             "FiringTrace",
	FiringCount:             "FiringCount",
	FiringBinPattern:        "FiringBinPattern",
}

func (id ID) String() string {
	if id.Valid() {
		return idNames[id]
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

func (id ID) Valid() bool {
	return id >= Activation && id <= FiringBinPattern
}

// ParseID resolves a case-insensitive predictor name.
func ParseID(name string) (ID, error) {
	for i, n := range idNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPredictor, name)
}

// Series selects the signal a statistic is computed over.
type Series int

const (
	SeriesActivation Series = iota
	SeriesDelta
)

func (s Series) String() string {
	switch s {
	case SeriesActivation:
		return "activation"
	case SeriesDelta:
		return "delta"
	default:
		return fmt.Sprintf("Series(%d)", int(s))
	}
}

// ParseSeries accepts "activation" (or empty) and "delta".
func ParseSeries(name string) (Series, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "activation":
		return SeriesActivation, nil
	case "delta":
		return SeriesDelta, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
	}
}
