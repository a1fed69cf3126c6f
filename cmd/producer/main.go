package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/reservoirlens/internal/message"
)

var (
	kafkaBroker = flag.String("broker", "localhost:9092", "Kafka bootstrap broker")
	topic       = flag.String("topic", "neuron-steps", "Topic to publish step messages to")
	unitCount   = flag.Int("units", 16, "Number of simulated units")
	interval    = flag.Duration("interval", 100*time.Millisecond, "Time between simulation steps")
)

// Leaky integrate-and-fire parameters of the synthetic reservoir.
const (
	leak          = 0.9
	threshold     = 1.0
	restPotential = 0.0
	inputScale    = 0.35
)

// neuron is one simulated leaky integrate-and-fire unit.
type neuron struct {
	id        string
	potential float64
	bias      float64
}

// step integrates one input and reports the new potential and whether the
// unit fired. A firing unit resets to rest.
func (n *neuron) step(input float64) (float64, bool) {
	n.potential = n.potential*leak + n.bias + input
	if n.potential >= threshold {
		n.potential = restPotential
		return threshold, true
	}
	return n.potential, false
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*kafkaBroker),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			sugar.Errorw("Error closing kafka writer", zap.Error(err))
		}
	}()
	sugar.Infow("Starting synthetic reservoir producer",
		"topic", *topic,
		"broker", *kafkaBroker,
		"units", *unitCount,
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		sugar.Info("Shutdown signal received, stopping producer...")
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	neurons := make([]*neuron, *unitCount)
	for i := range neurons {
		neurons[i] = &neuron{id: fmt.Sprintf("unit_%03d", i), bias: 0.02 + rng.Float64()*0.05}
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var step int64
	for {
		select {
		case <-ticker.C:
			step++
			batch := generateStep(rng, neurons, step)
			if len(batch) == 0 {
				continue
			}
			if err := writer.WriteMessages(ctx, batch...); err != nil {
				if ctx.Err() != nil {
					sugar.Info("Context cancelled, exiting message loop.")
					return
				}
				sugar.Warnw("Error writing step batch", "step", step, zap.Error(err))
				continue
			}
			if step%100 == 0 {
				sugar.Infow("Produced steps", "step", step, "messages", len(batch))
			}

		case <-ctx.Done():
			sugar.Info("Producer loop stopped.")
			return
		}
	}
}

// generateStep advances every neuron by one step and encodes the results.
func generateStep(rng *rand.Rand, neurons []*neuron, step int64) []kafka.Message {
	batch := make([]kafka.Message, 0, len(neurons))
	for _, n := range neurons {
		activation, spike := n.step(rng.NormFloat64() * inputScale)
		normalized := min(max(activation/threshold, 0), 1)
		msg := message.StepMessage{
			UnitID:               n.id,
			Step:                 step,
			Activation:           activation,
			NormalizedActivation: normalized,
			Spike:                spike,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		batch = append(batch, kafka.Message{Key: []byte(n.id), Value: data})
	}
	return batch
}
