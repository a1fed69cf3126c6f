package message

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParseStepJSON decodes and checks a StepMessage.
func ParseStepJSON(data []byte) (StepMessage, error) {
	var msg StepMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return StepMessage{}, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	if err := msg.Validate(); err != nil {
		return StepMessage{}, err
	}
	return msg, nil
}

// Validate rejects messages the predictor engine cannot consume.
func (m StepMessage) Validate() error {
	if m.UnitID == "" {
		return ErrMissingUnitID
	}
	if math.IsNaN(m.Activation) || math.IsInf(m.Activation, 0) {
		return fmt.Errorf("%w: activation %v", ErrNonFiniteSignal, m.Activation)
	}
	if !(m.NormalizedActivation >= 0 && m.NormalizedActivation <= 1) {
		return fmt.Errorf("%w: %v", ErrNormalizedRange, m.NormalizedActivation)
	}
	return nil
}

// EncodeJSON serializes a PredictorMessage. Non-finite values are written
// as 0 since JSON has no representation for them.
func (m PredictorMessage) EncodeJSON() ([]byte, error) {
	values := make([]float64, len(m.Values))
	for i, v := range m.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = v
		}
	}
	m.Values = values
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONMarshalFailed, err)
	}
	return data, nil
}
