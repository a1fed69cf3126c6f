package pipeline

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/config"
	"github.com/sanspareilsmyn/reservoirlens/internal/message"
	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

const networkRefreshInterval = 5 * time.Second

// networkFigures are exported as reservoirlens_network_activation.
var networkFigures = []stats.Figure{stats.ArithAvg, stats.StdDev, stats.Min, stats.Max}

// resultWriter is the part of *kafka.Writer the publisher relies on.
type resultWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// networkSource exposes the network-wide view kept by the extractor.
type networkSource interface {
	ActiveUnits() int
	NetworkStat() stats.Stat
}

// Publisher exports predictor vectors as gauges and, when an output topic
// is configured, writes them to Kafka keyed by unit id.
type Publisher struct {
	writer  resultWriter
	input   <-chan message.PredictorMessage
	source  networkSource
	refresh time.Duration
	logger  *zap.Logger
}

// NewPublisher creates a publisher. Without cfg.Topic it only updates metrics.
func NewPublisher(cfg config.OutputConfig, input <-chan message.PredictorMessage, source networkSource, logger *zap.Logger) *Publisher {
	var w resultWriter
	if cfg.Topic != "" {
		w = &kafka.Writer{
			Addr:        kafka.TCP(cfg.Brokers...),
			Topic:       cfg.Topic,
			Balancer:    &kafka.Hash{},
			Logger:      kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
			ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
		}
		logger.Info("Kafka writer created",
			zap.String("topic", cfg.Topic),
			zap.Strings("brokers", cfg.Brokers),
		)
	}
	return newPublisher(w, input, source, logger)
}

func newPublisher(writer resultWriter, input <-chan message.PredictorMessage, source networkSource, logger *zap.Logger) *Publisher {
	logger.Debug("Publisher initialized", zap.Bool("kafka_output", writer != nil))
	return &Publisher{
		writer:  writer,
		input:   input,
		source:  source,
		refresh: networkRefreshInterval,
		logger:  logger,
	}
}

// Run publishes vectors until the input closes or ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Starting publisher loop...")
	defer func() {
		p.refreshNetwork()
		if p.writer != nil {
			if err := p.writer.Close(); err != nil {
				sugar.Errorw("Failed to close Kafka writer cleanly", zap.Error(err))
			}
		}
		sugar.Info("Publisher loop stopped.")
	}()

	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-p.input:
			if !ok {
				sugar.Info("Publisher input channel closed.")
				return nil
			}
			p.publish(ctx, msg)

		case <-ticker.C:
			p.refreshNetwork()

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping publisher.")
			return ctx.Err()
		}
	}
}

// publish updates the per-unit gauges and forwards the vector. Write
// failures are logged and counted; they do not stop the pipeline.
func (p *Publisher) publish(ctx context.Context, msg message.PredictorMessage) {
	for i, label := range msg.Predictors {
		if i >= len(msg.Values) {
			break
		}
		predictorValue.WithLabelValues(msg.UnitID, label).Set(msg.Values[i])
	}

	if p.writer == nil {
		return
	}
	payload, err := msg.EncodeJSON()
	if err != nil {
		p.logger.Warn("Failed to encode predictor vector, skipping",
			zap.String("unit_id", msg.UnitID),
			zap.Int64("step", msg.Step),
			zap.Error(err),
		)
		vectorsPublished.WithLabelValues("error").Inc()
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.UnitID), Value: payload})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("Failed to write predictor vector",
			zap.String("unit_id", msg.UnitID),
			zap.Int64("step", msg.Step),
			zap.Error(err),
		)
		vectorsPublished.WithLabelValues("error").Inc()
		return
	}
	vectorsPublished.WithLabelValues("ok").Inc()
}

func (p *Publisher) refreshNetwork() {
	if p.source == nil {
		return
	}
	unitsActive.Set(float64(p.source.ActiveUnits()))
	stat := p.source.NetworkStat()
	for _, f := range networkFigures {
		networkActivation.WithLabelValues(f.String()).Set(stat.Get(f))
	}
	p.logger.Debug("Network statistics refreshed",
		zap.Int("units", p.source.ActiveUnits()),
		zap.Int("samples", stat.Count()),
	)
}
