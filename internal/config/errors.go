package config

import "errors"

var (
	ErrReadingConfigFile      = errors.New("failed to read config file")
	ErrUnmarshallingConfig    = errors.New("failed to unmarshal config")
	ErrEmptyKafkaBrokers      = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic        = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID      = errors.New("kafka groupID cannot be empty")
	ErrInvalidPipelineWorkers = errors.New("pipeline workers must be positive")
	ErrInvalidPipelineEmit    = errors.New("pipeline emitEvery must be positive")
	ErrInvalidChannelBuffer   = errors.New("pipeline channelBuffer cannot be negative")
	ErrEmptyMetricsAddress    = errors.New("metrics address cannot be empty when metrics are enabled")
	ErrEmptyPredictors        = errors.New("at least one predictor must be configured")
	ErrInvalidPredictor       = errors.New("invalid predictor descriptor")
	ErrConfigFileMissing      = errors.New("config file not found")
)
