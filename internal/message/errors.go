package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrJSONMarshalFailed   = errors.New("failed to marshal JSON message")
	ErrMissingUnitID       = errors.New("step message has no unit_id")
	ErrNonFiniteSignal     = errors.New("step message carries a non-finite signal")
	ErrNormalizedRange     = errors.New("normalized activation outside [0,1]")
)
