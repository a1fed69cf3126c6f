package stats

import (
	"fmt"
	"strings"
)

// Figure selects one of the values a RunningStat can report.
type Figure int

const (
	Sum Figure = iota
	NegSum
	PosSum
	SumOfSquares
	Min
	Max
	Mid
	Span
	ArithAvg
	MeanSquare
	RootMeanSquare
	Variance
	StdDev
	SpanDev
)

var figureNames = [...]string{
	Sum:            "Sum",
	NegSum:         "NegSum",
	PosSum:         "PosSum",
	SumOfSquares:   "SumOfSquares",
	Min:            "Min",
	Max:            "Max",
	Mid:            "Mid",
	Span:           "Span",
	ArithAvg:       "ArithAvg",
	MeanSquare:     "MeanSquare",
	RootMeanSquare: "RootMeanSquare",
	Variance:       "Variance",
	StdDev:         "StdDev",
	SpanDev:        "SpanDev",
}

func (f Figure) String() string {
	if f.Valid() {
		return figureNames[f]
	}
	return fmt.Sprintf("Figure(%d)", int(f))
}

// Valid reports whether f names a known figure.
func (f Figure) Valid() bool {
	return f >= Sum && f <= SpanDev
}

// ParseFigure resolves a case-insensitive figure name such as "StdDev".
func ParseFigure(name string) (Figure, error) {
	for i, n := range figureNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Figure(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFigure, name)
}
