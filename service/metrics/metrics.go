package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec
	solanaRPCRetries      *prometheus.CounterVec

	// Submission Metrics
	transactionsSubmittedTotal *prometheus.CounterVec

	// Confirmation Metrics
	confirmationPollsTotal  *prometheus.CounterVec
	confirmationWaitSeconds *prometheus.HistogramVec

	// Replay Loop Metrics
	replayIterationsTotal *prometheus.CounterVec
	replayLoopDuration    *prometheus.HistogramVec
	activeReplayLoops     prometheus.Gauge

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		solanaRPCRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_retries_total",
				Help: "Total number of Solana RPC retry attempts",
			},
			[]string{"method", "reason"},
		),

		// Submission Metrics
		transactionsSubmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_submitted_total",
				Help: "Total number of transaction submissions by wallet and status",
			},
			[]string{"wallet_address", "status"},
		),

		// Confirmation Metrics
		confirmationPollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confirmation_polls_total",
				Help: "Total number of confirmation status queries by outcome",
			},
			[]string{"wallet_address", "outcome"},
		),
		confirmationWaitSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confirmation_wait_seconds",
				Help:    "Time from submission to terminal confirmation in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"wallet_address"},
		),

		// Replay Loop Metrics
		replayIterationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replay_iterations_total",
				Help: "Total number of replay iterations by wallet and status",
			},
			[]string{"wallet_address", "status"},
		),
		replayLoopDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "replay_loop_duration_seconds",
				Help:    "Duration of a full per-account replay loop in seconds",
				Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600},
			},
			[]string{"wallet_address"},
		),
		activeReplayLoops: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_replay_loops",
				Help: "Number of per-account replay loops currently running",
			},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRPCRetry records a retry attempt.
func (m *Metrics) RecordRPCRetry(method, reason string) {
	m.solanaRPCRetries.WithLabelValues(method, reason).Inc()
}

// Submission metric helpers

// RecordSubmission records a transaction submission attempt.
func (m *Metrics) RecordSubmission(walletAddress, status string) {
	m.transactionsSubmittedTotal.WithLabelValues(walletAddress, status).Inc()
}

// Confirmation metric helpers

// RecordConfirmationPoll records one confirmation status query.
func (m *Metrics) RecordConfirmationPoll(walletAddress, outcome string) {
	m.confirmationPollsTotal.WithLabelValues(walletAddress, outcome).Inc()
}

// RecordConfirmationWait records how long a submission took to reach a
// terminal confirmation state.
func (m *Metrics) RecordConfirmationWait(walletAddress string, seconds float64) {
	m.confirmationWaitSeconds.WithLabelValues(walletAddress).Observe(seconds)
}

// Replay loop metric helpers

// RecordIteration records a completed replay iteration.
func (m *Metrics) RecordIteration(walletAddress, status string) {
	m.replayIterationsTotal.WithLabelValues(walletAddress, status).Inc()
}

// RecordLoopDuration records the duration of a full per-account loop.
func (m *Metrics) RecordLoopDuration(walletAddress string, seconds float64) {
	m.replayLoopDuration.WithLabelValues(walletAddress).Observe(seconds)
}

// RecordLoopActive records a replay loop starting or finishing.
func (m *Metrics) RecordLoopActive(delta float64) {
	m.activeReplayLoops.Add(delta)
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}
