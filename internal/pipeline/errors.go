package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed      = errors.New("failed to commit Kafka offsets")
	ErrConsumerCreationFailed = errors.New("failed to create consumer")
	ErrEngineCreationFailed   = errors.New("failed to create predictor engine")
	ErrConsumerRunFailed      = errors.New("consumer component failed")
	ErrExtractorRunFailed     = errors.New("extractor component failed")
	ErrPublisherRunFailed     = errors.New("publisher component failed")
)
