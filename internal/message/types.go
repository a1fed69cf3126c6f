package message

import "time"

// StepMessage carries one unit's signals for one simulation step.
type StepMessage struct {
	UnitID               string  `json:"unit_id"`
	Step                 int64   `json:"step"`
	Activation           float64 `json:"activation"`
	NormalizedActivation float64 `json:"normalized_activation"`
	Spike                bool    `json:"spike"`
}

// PredictorMessage is the published predictor vector of one unit.
// Values[i] belongs to Predictors[i].
type PredictorMessage struct {
	RunID      string    `json:"run_id"`
	UnitID     string    `json:"unit_id"`
	Step       int64     `json:"step"`
	EmittedAt  time.Time `json:"emitted_at"`
	Predictors []string  `json:"predictors"`
	Values     []float64 `json:"values"`
}
