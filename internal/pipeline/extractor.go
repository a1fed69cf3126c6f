package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/config"
	"github.com/sanspareilsmyn/reservoirlens/internal/message"
	"github.com/sanspareilsmyn/reservoirlens/internal/predictor"
	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

// unitState is the engine of one simulated unit. It is only touched by the
// worker its unit id hashes to.
type unitState struct {
	engine   *predictor.Engine
	lastStep int64
	buf      []float64
}

// Extractor turns step messages into predictor vectors. Units are sharded
// across workers by unit id, so each engine is driven by one goroutine.
type Extractor struct {
	cfg      config.PipelineConfig
	settings []predictor.Settings
	labels   []string
	runID    string
	input    <-chan message.StepMessage
	output   chan<- message.PredictorMessage
	logger   *zap.Logger

	units   cmap.ConcurrentMap[string, *unitState]
	network *stats.SyncRunningStat
}

// NewExtractor validates the predictor settings once so that per-unit
// engines can be built on demand without failing.
func NewExtractor(cfg config.PipelineConfig, settings []predictor.Settings, runID string,
	input <-chan message.StepMessage, output chan<- message.PredictorMessage, logger *zap.Logger) (*Extractor, error) {
	probe, err := predictor.NewEngine(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineCreationFailed, err)
	}

	e := &Extractor{
		cfg:      cfg,
		settings: settings,
		labels:   probe.Labels(),
		runID:    runID,
		input:    input,
		output:   output,
		logger:   logger,
		units:    cmap.New[*unitState](),
		network:  stats.NewSyncRunningStat(),
	}
	logger.Info("Extractor initialized",
		zap.Int("workers", cfg.Workers),
		zap.Int("predictors", len(settings)),
		zap.Int("required_history", probe.RequiredHistoryLength()),
		zap.Int("emit_every", cfg.EmitEvery),
	)
	return e, nil
}

// Labels lists the predictor labels in vector order.
func (e *Extractor) Labels() []string {
	return append([]string(nil), e.labels...)
}

// ActiveUnits is the number of units with an engine.
func (e *Extractor) ActiveUnits() int {
	return e.units.Count()
}

// NetworkStat aggregates activations of every unit across all workers.
func (e *Extractor) NetworkStat() stats.Stat {
	return e.network
}

// Run dispatches steps to the workers until the input closes or ctx ends.
func (e *Extractor) Run(ctx context.Context) error {
	sugar := e.logger.Sugar()
	sugar.Info("Starting extractor loop...")
	defer sugar.Info("Extractor loop stopped.")

	shards := make([]chan message.StepMessage, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan message.StepMessage, e.cfg.ChannelBuffer)
		wg.Add(1)
		go func(id int, in <-chan message.StepMessage) {
			defer wg.Done()
			e.runWorker(ctx, id, in)
		}(i, shards[i])
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case msg, ok := <-e.input:
			if !ok {
				sugar.Info("Extractor input channel closed.")
				return nil
			}
			shard := shards[xxhash.Sum64String(msg.UnitID)%uint64(len(shards))]
			select {
			case shard <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping extractor.")
			return ctx.Err()
		}
	}
}

func (e *Extractor) runWorker(ctx context.Context, id int, in <-chan message.StepMessage) {
	logger := e.logger.With(zap.Int("worker", id))
	logger.Debug("Extractor worker started")
	defer logger.Debug("Extractor worker stopped")

	for msg := range in {
		result, ok := e.process(msg, logger)
		if !ok {
			continue
		}
		select {
		case e.output <- result:
			vectorsEmitted.Inc()
		case <-ctx.Done():
			return
		}
	}
}

// process applies one step and returns the vector to emit, if any.
func (e *Extractor) process(msg message.StepMessage, logger *zap.Logger) (message.PredictorMessage, bool) {
	state := e.unit(msg.UnitID)
	if state.engine.Steps() > 0 && msg.Step <= state.lastStep {
		stepsDropped.WithLabelValues("stale").Inc()
		logger.Debug("Dropping stale step",
			zap.String("unit_id", msg.UnitID),
			zap.Int64("step", msg.Step),
			zap.Int64("last_step", state.lastStep),
		)
		return message.PredictorMessage{}, false
	}

	state.engine.Update(msg.Activation, msg.NormalizedActivation, msg.Spike)
	state.lastStep = msg.Step
	e.network.AddSample(msg.Activation)
	stepsProcessed.Inc()

	if e.cfg.SkipWarmup && !state.engine.Ready() {
		return message.PredictorMessage{}, false
	}
	if state.engine.Steps()%e.cfg.EmitEvery != 0 {
		return message.PredictorMessage{}, false
	}

	state.buf = state.engine.ComputePredictorsInto(state.buf)
	return message.PredictorMessage{
		RunID:      e.runID,
		UnitID:     msg.UnitID,
		Step:       msg.Step,
		EmittedAt:  time.Now(),
		Predictors: e.labels,
		Values:     append([]float64(nil), state.buf...),
	}, true
}

// unit returns the state for id, building its engine on first sight.
func (e *Extractor) unit(id string) *unitState {
	if state, ok := e.units.Get(id); ok {
		return state
	}
	return e.units.Upsert(id, nil, func(exist bool, current, _ *unitState) *unitState {
		if exist {
			return current
		}
		// Settings were validated in NewExtractor.
		engine, _ := predictor.NewEngine(e.settings, e.logger.Named("engine"))
		return &unitState{engine: engine}
	})
}
