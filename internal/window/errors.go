package window

import "errors"

var (
	ErrInvalidCapacity     = errors.New("window capacity must be positive")
	ErrInsufficientSamples = errors.New("not enough samples buffered")
	ErrInvalidArgument     = errors.New("invalid window argument")
)
