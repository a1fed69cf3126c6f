package stats

import "errors"

var (
	ErrUnknownFigure    = errors.New("unknown statistical figure")
	ErrEmptyAccumulator = errors.New("weighted accumulator holds no samples")
)
