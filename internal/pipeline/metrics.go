package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	stepsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoirlens_steps_processed_total",
			Help: "Total number of unit steps applied to predictor engines.",
		},
	)
	stepsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservoirlens_steps_dropped_total",
			Help: "Total number of steps discarded before reaching an engine.",
		},
		[]string{"reason"}, // Label: reason (e.g., parse, stale)
	)
	vectorsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoirlens_vectors_emitted_total",
			Help: "Total number of predictor vectors computed and sent downstream.",
		},
	)
	vectorsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservoirlens_vectors_published_total",
			Help: "Predictor vectors written to the output topic, by outcome.",
		},
		[]string{"outcome"}, // Label: outcome (ok, error)
	)
	unitsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservoirlens_units_active",
			Help: "Number of units with a live predictor engine.",
		},
	)
	predictorValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reservoirlens_predictor_value",
			Help: "Latest predictor value per unit and predictor.",
		},
		[]string{"unit_id", "predictor"},
	)
	networkActivation = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reservoirlens_network_activation",
			Help: "Whole-history activation statistics over all units.",
		},
		[]string{"figure"}, // Label: figure (ArithAvg, StdDev, Min, Max)
	)
)
