package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/cfadjust/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Gateway metrics
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	GatewayWaits    prometheus.Histogram

	// Workflow metrics
	WorkflowRuns     *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec

	// Account cache metrics
	AccountRefreshes prometheus.Counter
	CachedAccounts   prometheus.Gauge

	// Journal metrics
	JournalWrites *prometheus.CounterVec

	// Idempotency metrics
	IdempotentReplays prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Gateway metrics
		GatewayCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfadjust_gateway_calls_total",
				Help: "Total calls to the host ledger by operation and status",
			},
			[]string{"operation", "status"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cfadjust_gateway_call_duration_seconds",
				Help:    "Duration of calls to the host ledger",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		GatewayWaits: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfadjust_gateway_pacing_wait_seconds",
			Help:    "Time calls spent waiting for the outbound rate limiter",
			Buckets: []float64{.001, .01, .1, .25, .5, 1, 2.5, 5},
		}),

		// Workflow metrics
		WorkflowRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfadjust_workflow_runs_total",
				Help: "Total adjustment runs by workflow and final state",
			},
			[]string{"workflow", "state"},
		),
		WorkflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cfadjust_workflow_duration_seconds",
				Help:    "Duration of adjustment runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),

		// Account cache metrics
		AccountRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "cfadjust_account_refreshes_total",
			Help: "Total account list refreshes",
		}),
		CachedAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cfadjust_cached_accounts",
			Help: "Number of accounts in the latest cached snapshot",
		}),

		// Journal metrics
		JournalWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfadjust_journal_writes_total",
				Help: "Total run journal writes by result",
			},
			[]string{"result"},
		),

		// Idempotency metrics
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "cfadjust_idempotent_replays_total",
			Help: "Total requests answered from the idempotency store",
		}),
	}
}

// ObserveWorkflow records the outcome of a finished run.
func (m *Metrics) ObserveWorkflow(kind domain.WorkflowKind, state domain.RunState, duration time.Duration) {
	m.WorkflowRuns.WithLabelValues(string(kind), string(state)).Inc()
	m.WorkflowDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// ObserveGatewayCall records one call to the host. status is zero when no
// response was received.
func (m *Metrics) ObserveGatewayCall(operation string, status int, duration time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.GatewayCalls.WithLabelValues(operation, label).Inc()
	m.GatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObservePacingWait records time spent waiting for the outbound limiter.
func (m *Metrics) ObservePacingWait(d time.Duration) {
	m.GatewayWaits.Observe(d.Seconds())
}

// ObserveAccountRefresh records a stored account snapshot.
func (m *Metrics) ObserveAccountRefresh(count int) {
	m.AccountRefreshes.Inc()
	m.CachedAccounts.Set(float64(count))
}

// ObserveJournalWrite records a run journal write.
func (m *Metrics) ObserveJournalWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.JournalWrites.WithLabelValues(result).Inc()
}

// ObserveIdempotentReplay records a response served from the idempotency
// store.
func (m *Metrics) ObserveIdempotentReplay() {
	m.IdempotentReplays.Inc()
}
