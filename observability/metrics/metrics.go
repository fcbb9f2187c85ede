// Package metrics exposes prometheus collectors for the rate limiter,
// aggregator and manager engines. Each registry is lazily initialised
// and registered exactly once, so a host process can import this
// package from multiple engines without panicking on a duplicate
// registration.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rateLimiterMetrics struct {
	consumed  *prometheus.CounterVec
	queued    *prometheus.CounterVec
	capacity  *prometheus.GaugeVec
}

var (
	rateLimiterOnce sync.Once
	rateLimiterReg  *rateLimiterMetrics

	aggregatorOnce sync.Once
	aggregatorReg  *aggregatorMetrics

	managerOnce sync.Once
	managerReg  *managerMetrics
)

// RateLimiter returns the lazily-initialised rate limiter metrics
// registry.
func RateLimiter() *rateLimiterMetrics {
	rateLimiterOnce.Do(func() {
		rateLimiterReg = &rateLimiterMetrics{
			consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "ratelimiter",
				Name:      "consumed_total",
				Help:      "Count of successful bucket consumptions segmented by direction.",
			}, []string{"direction"}),
			queued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "ratelimiter",
				Name:      "queued_total",
				Help:      "Count of transfers queued due to insufficient bucket capacity.",
			}, []string{"direction"}),
			capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "ntt",
				Subsystem: "ratelimiter",
				Name:      "capacity",
				Help:      "Most recently observed bucket capacity, labelled by bucket id hex.",
			}, []string{"bucket"}),
		}
		prometheus.MustRegister(rateLimiterReg.consumed, rateLimiterReg.queued, rateLimiterReg.capacity)
	})
	return rateLimiterReg
}

// RecordConsume increments the consumption counter for direction
// ("outbound" or "inbound").
func (m *rateLimiterMetrics) RecordConsume(direction string) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(labelDirection(direction)).Inc()
}

// RecordQueued increments the queued counter for direction.
func (m *rateLimiterMetrics) RecordQueued(direction string) {
	if m == nil {
		return
	}
	m.queued.WithLabelValues(labelDirection(direction)).Inc()
}

// SetCapacity records bucket's current capacity as a float64. Precision
// beyond 2^53 is not preserved; this is a dashboard gauge, not a
// ledger.
func (m *rateLimiterMetrics) SetCapacity(bucketHex string, capacity float64) {
	if m == nil {
		return
	}
	m.capacity.WithLabelValues(bucketHex).Set(capacity)
}

type aggregatorMetrics struct {
	attestations *prometheus.CounterVec
	approvals    *prometheus.CounterVec
	sendLatency  *prometheus.HistogramVec
}

// Aggregator returns the lazily-initialised aggregator metrics registry.
func Aggregator() *aggregatorMetrics {
	aggregatorOnce.Do(func() {
		aggregatorReg = &aggregatorMetrics{
			attestations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "aggregator",
				Name:      "attestations_total",
				Help:      "Count of attestations recorded, segmented by handler.",
			}, []string{"handler"}),
			approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "aggregator",
				Name:      "approvals_total",
				Help:      "Count of digests that crossed their captured threshold.",
			}, []string{"handler"}),
			sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "ntt",
				Subsystem: "aggregator",
				Name:      "send_duration_seconds",
				Help:      "Latency distribution for fanning a message out to all configured transceivers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"handler"}),
		}
		prometheus.MustRegister(aggregatorReg.attestations, aggregatorReg.approvals, aggregatorReg.sendLatency)
	})
	return aggregatorReg
}

// RecordAttestation increments the attestation counter for handlerHex.
func (m *aggregatorMetrics) RecordAttestation(handlerHex string) {
	if m == nil {
		return
	}
	m.attestations.WithLabelValues(handlerHex).Inc()
}

// RecordApproval increments the approval counter for handlerHex.
func (m *aggregatorMetrics) RecordApproval(handlerHex string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(handlerHex).Inc()
}

// ObserveSend records how long a fan-out send took for handlerHex.
func (m *aggregatorMetrics) ObserveSend(handlerHex string, d time.Duration) {
	if m == nil {
		return
	}
	m.sendLatency.WithLabelValues(handlerHex).Observe(d.Seconds())
}

type managerMetrics struct {
	transfers *prometheus.CounterVec
	mints     *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// Manager returns the lazily-initialised manager metrics registry.
func Manager() *managerMetrics {
	managerOnce.Do(func() {
		managerReg = &managerMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "manager",
				Name:      "transfers_total",
				Help:      "Count of outbound transfers segmented by destination chain and outcome.",
			}, []string{"chain", "outcome"}),
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "manager",
				Name:      "mints_total",
				Help:      "Count of inbound mints segmented by source chain and outcome.",
			}, []string{"chain", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ntt",
				Subsystem: "manager",
				Name:      "errors_total",
				Help:      "Count of manager operation failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
		}
		prometheus.MustRegister(managerReg.transfers, managerReg.mints, managerReg.errors)
	})
	return managerReg
}

// RecordTransfer records an outbound transfer outcome ("sent" or
// "queued") for chain.
func (m *managerMetrics) RecordTransfer(chain, outcome string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(chain, outcome).Inc()
}

// RecordMint records an inbound mint outcome ("minted" or "queued") for
// chain.
func (m *managerMetrics) RecordMint(chain, outcome string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(chain, outcome).Inc()
}

// RecordError increments the error counter for operation and reason.
func (m *managerMetrics) RecordError(operation, reason string) {
	if m == nil {
		return
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unspecified"
	}
	m.errors.WithLabelValues(operation, reason).Inc()
}

func labelDirection(direction string) string {
	d := strings.ToLower(strings.TrimSpace(direction))
	if d != "outbound" && d != "inbound" {
		return "unknown"
	}
	return d
}
