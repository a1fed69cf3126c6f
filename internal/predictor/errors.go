package predictor

import "errors"

var (
	ErrUnknownPredictor  = errors.New("unknown predictor id")
	ErrUnknownSeries     = errors.New("unknown series")
	ErrInvalidWindowSize = errors.New("invalid predictor window size")
	ErrInvalidParameter  = errors.New("invalid predictor parameter")
	ErrNoPredictors      = errors.New("no predictors configured")
)
