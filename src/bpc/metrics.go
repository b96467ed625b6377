package bpc

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry of the solver
	Registry = prometheus.NewRegistry()
	// NodesProcessed counts branch-and-price nodes by outcome
	NodesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bpc_nodes_total", Help: "Processed nodes by outcome."},
		[]string{"outcome"},
	)
	// PricingCalls counts pricing runs by variant
	PricingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bpc_pricing_calls_total", Help: "Pricing runs by variant."},
		[]string{"variant"},
	)
	ColumnsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bpc_columns_total", Help: "Columns added to master problems."},
	)
	CutsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bpc_cuts_total", Help: "Subset-row cuts added."},
	)
	LabelsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bpc_labels_total", Help: "Labels created by pricing."},
	)
	// PhaseDuration records master and pricing solve times in seconds
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "bpc_phase_duration_seconds", Help: "Master and pricing solve time.", Buckets: prometheus.ExponentialBuckets(0.001, 4, 10)},
		[]string{"phase"},
	)
	Incumbent = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bpc_incumbent_cost", Help: "Cost of the best known solution."},
	)
)

// RegisterMetrics registers the collectors to Registry.
func RegisterMetrics() {
	regOnce.Do(func() {
		Registry.MustRegister(NodesProcessed)
		Registry.MustRegister(PricingCalls)
		Registry.MustRegister(ColumnsAdded)
		Registry.MustRegister(CutsAdded)
		Registry.MustRegister(LabelsCreated)
		Registry.MustRegister(PhaseDuration)
		Registry.MustRegister(Incumbent)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
