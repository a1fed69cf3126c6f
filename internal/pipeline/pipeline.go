// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/config"
	"github.com/sanspareilsmyn/reservoirlens/internal/message"
)

// Pipeline orchestrates the stages: consumer, parsing, extraction, publishing.
type Pipeline struct {
	cfg       *config.Config
	runID     string
	consumer  *Consumer
	extractor *Extractor
	publisher *Publisher
	logger    *zap.Logger

	rawMessages       chan []byte
	stepMessages      chan message.StepMessage
	predictorMessages chan message.PredictorMessage
}

// New creates and wires up a new extraction pipeline.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	p, err := newPipeline(cfg, logger)
	if err != nil {
		initLogger.Error("Failed to create extractor", zap.Error(err))
		return nil, err
	}

	consumerInstance, err := NewConsumer(cfg.Kafka, p.rawMessages, logger.Named("consumer"))
	if err != nil {
		initLogger.Error("Failed to create consumer", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}
	p.consumer = consumerInstance
	initLogger.Debug("Consumer created")

	p.publisher = NewPublisher(cfg.Output, p.predictorMessages, p.extractor, logger.Named("publisher"))
	initLogger.Debug("Publisher created")

	initLogger.Info("Pipeline instance created successfully", zap.String("run_id", p.runID))
	return p, nil
}

// newPipeline builds the channels and the extractor. The consumer and
// publisher are attached by the caller.
func newPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	settings, err := cfg.PredictorSettings()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineCreationFailed, err)
	}

	bufferSize := cfg.Pipeline.ChannelBuffer
	p := &Pipeline{
		cfg:               cfg,
		runID:             uuid.NewString(),
		logger:            logger.Named("pipeline"),
		rawMessages:       make(chan []byte, bufferSize),
		stepMessages:      make(chan message.StepMessage, bufferSize),
		predictorMessages: make(chan message.PredictorMessage, bufferSize),
	}

	p.extractor, err = NewExtractor(cfg.Pipeline, settings, p.runID, p.stepMessages, p.predictorMessages, logger.Named("extractor"))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunID identifies the vectors published by this pipeline instance.
func (p *Pipeline) RunID() string { return p.runID }

// Extractor exposes the extraction stage, e.g. for its network statistics.
func (p *Pipeline) Extractor() *Extractor { return p.extractor }

// Run starts all pipeline components and waits for them to complete or context cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	pipelineErr := make(chan error, 4) // consumer, parser, extractor, publisher

	sugar.Info("Pipeline Run: Starting components...")

	wg.Add(4)
	go p.runConsumer(ctx, &wg, pipelineErr)
	go p.runParser(ctx, &wg)
	go p.runExtractor(ctx, &wg, pipelineErr)
	go p.runPublisher(ctx, &wg, pipelineErr)

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
		cancel()
	}

	sugar.Debug("Pipeline Run: Waiting on WaitGroup...")
	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

func (p *Pipeline) runConsumer(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.rawMessages)
		p.logger.Debug("Raw messages channel closed")
	}()

	p.logger.Debug("Starting consumer goroutine...")
	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Consumer component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Consumer goroutine finished normally")
	} else {
		p.logger.Debug("Consumer goroutine cancelled gracefully")
	}
}

// runParser decodes raw payloads. Malformed messages are counted and skipped.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		close(p.stepMessages)
		p.logger.Debug("Step messages channel closed")
	}()

	parserLogger := p.logger.Named("parser").Sugar()
	parserLogger.Debug("Starting parser goroutine...")

	for {
		select {
		case rawMsg, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}

			step, err := message.ParseStepJSON(rawMsg)
			if err != nil {
				stepsDropped.WithLabelValues("parse").Inc()
				parserLogger.Warnw("Failed to parse message, skipping", zap.Error(err))
				continue
			}

			select {
			case p.stepMessages <- step:

			case <-ctx.Done():
				parserLogger.Debug("Parser context cancelled during send.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			parserLogger.Debug("Parser context cancelled while waiting for raw message.", zap.Error(ctx.Err()))
			return
		}
	}
}

func (p *Pipeline) runExtractor(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.predictorMessages)
		p.logger.Debug("Predictor messages channel closed")
	}()

	p.logger.Debug("Starting extractor goroutine...")
	if err := p.extractor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Extractor component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrExtractorRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Extractor goroutine finished normally")
	} else {
		p.logger.Debug("Extractor goroutine cancelled gracefully")
	}
}

func (p *Pipeline) runPublisher(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting publisher goroutine...")
	if err := p.publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Publisher component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrPublisherRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Publisher goroutine finished normally")
	} else {
		p.logger.Debug("Publisher goroutine cancelled gracefully")
	}
}
