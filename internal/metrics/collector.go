// Package metrics provides internal metrics collection for the memory
// engine. This package is internal and should not be imported by external
// projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the Prometheus metrics of the memory engine.
type Collector struct {
	interactionsTotal *prometheus.CounterVec
	promotionsTotal   *prometheus.CounterVec
	discardsTotal     *prometheus.CounterVec
	retrievalsTotal   *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	recordsPerTier    *prometheus.GaugeVec
	persistenceOps    *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered on reg (the default
// registerer when nil).
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.interactionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Total number of interactions added",
		},
		[]string{"set_id"},
	)

	c.promotionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Total number of records promoted to long-term storage",
		},
		[]string{"set_id"},
	)

	c.discardsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discards_total",
			Help:      "Total number of records discarded on eviction",
		},
		[]string{"set_id"},
	)

	c.retrievalsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Total number of retrieval queries",
		},
		[]string{"set_id"},
	)

	c.retrievalDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"set_id"},
	)

	c.recordsPerTier = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Current number of records per tier",
		},
		[]string{"set_id", "tier"},
	)

	c.persistenceOps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_operations_total",
			Help:      "Total number of persistence gateway operations",
		},
		[]string{"operation", "status"},
	)

	return c
}

// RecordInteraction counts one added interaction.
func (c *Collector) RecordInteraction(setID string) {
	c.interactionsTotal.WithLabelValues(setID).Inc()
}

// RecordPromotion counts promoted and discarded records of one pass.
func (c *Collector) RecordPromotion(setID string, promoted, discarded int) {
	if promoted > 0 {
		c.promotionsTotal.WithLabelValues(setID).Add(float64(promoted))
	}
	if discarded > 0 {
		c.discardsTotal.WithLabelValues(setID).Add(float64(discarded))
	}
}

// RecordRetrieval counts one retrieval query and its duration.
func (c *Collector) RecordRetrieval(setID string, duration time.Duration) {
	c.retrievalsTotal.WithLabelValues(setID).Inc()
	c.retrievalDuration.WithLabelValues(setID).Observe(duration.Seconds())
}

// SetTierSizes updates the per-tier record gauges.
func (c *Collector) SetTierSizes(setID string, shortTerm, longTerm int) {
	c.recordsPerTier.WithLabelValues(setID, "short_term").Set(float64(shortTerm))
	c.recordsPerTier.WithLabelValues(setID, "long_term").Set(float64(longTerm))
}

// RecordPersistenceOp counts one gateway operation.
func (c *Collector) RecordPersistenceOp(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.persistenceOps.WithLabelValues(operation, status).Inc()
}
