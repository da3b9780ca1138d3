// Package metrics exposes prometheus collectors for the transfer lifecycle and the ledger simulator.
//
// Every method is safe to call on a nil receiver, so instrumented code does not need to check whether metrics are
// enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aptos_transfer"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Flow counts and times the stages of transfers
type Flow struct {
	stages   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewFlow creates the flow collectors and registers them on registerer, if not nil
func NewFlow(registerer prometheus.Registerer) (*Flow, error) {
	flow := &Flow{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "stages_total",
			Help:      "Transfer stages run, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each transfer stage.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{flow.stages, flow.duration} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return flow, nil
}

// ObserveStage records one run of stage
func (f *Flow) ObserveStage(stage string, err error, elapsed time.Duration) {
	if f == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	f.stages.WithLabelValues(stage, outcome).Inc()
	f.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// StageCount reads the counter for stage and outcome, for tests and status pages
func (f *Flow) StageCount(stage string, outcome string) float64 {
	if f == nil {
		return 0
	}
	return counterValue(f.stages.WithLabelValues(stage, outcome))
}

// Ledger counts what the ledger simulator accepts and commits
type Ledger struct {
	requests  *prometheus.CounterVec
	committed *prometheus.CounterVec
	version   prometheus.Gauge
}

// NewLedger creates the ledger collectors and registers them on registerer, if not nil
func NewLedger(registerer prometheus.Registerer) (*Ledger, error) {
	ledger := &Ledger{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledgersim",
			Name:      "requests_total",
			Help:      "REST requests served, by route and status code class.",
		}, []string{"route", "code"}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledgersim",
			Name:      "transactions_committed_total",
			Help:      "Transactions committed, by outcome.",
		}, []string{"outcome"}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledgersim",
			Name:      "ledger_version",
			Help:      "Latest committed ledger version.",
		}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{ledger.requests, ledger.committed, ledger.version} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return ledger, nil
}

// ObserveRequest counts one served request
func (l *Ledger) ObserveRequest(route string, code string) {
	if l == nil {
		return
	}
	l.requests.WithLabelValues(route, code).Inc()
}

// ObserveCommit counts one committed transaction and moves the version gauge
func (l *Ledger) ObserveCommit(success bool, version uint64) {
	if l == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	l.committed.WithLabelValues(outcome).Inc()
	l.version.Set(float64(version))
}

// CommittedCount reads the committed counter for outcome
func (l *Ledger) CommittedCount(outcome string) float64 {
	if l == nil {
		return 0
	}
	return counterValue(l.committed.WithLabelValues(outcome))
}
