// Package metrics provides Prometheus metrics for the logoduel vote ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the vote ledger.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Vote flow
	votesRecorded  prometheus.Counter
	votesRejected  prometheus.Counter
	contestsReset  prometheus.Counter
	matchupsServed prometheus.Counter

	// Durability
	auditAppends       prometheus.Counter
	auditDecodeSkips   prometheus.Counter
	backupsCreated     prometheus.Counter
	backupsSkipped     prometheus.Counter
	backupsPruned      prometheus.Counter
	backupsRestored    prometheus.Counter
	ledgerLoadLatency  prometheus.Histogram
	ledgerWriteLatency prometheus.Histogram

	// Reconciliation and merge
	reconcileRuns    prometheus.Counter
	reconcileDrift   prometheus.Gauge
	mergeDuplicates  prometheus.Counter
	mergeRejected    prometheus.Counter
	trackedContests  prometheus.Gauge
	trackedLogos     prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "logoduel",
		subsystem:        "ledger",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.votesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_recorded_total",
		Help:      "Total number of votes applied to a contest ledger",
	})
	m.votesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_rejected_total",
		Help:      "Total number of votes rejected by validation",
	})
	m.contestsReset = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "contests_reset_total",
		Help:      "Total number of contest vote resets",
	})
	m.matchupsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_served_total",
		Help:      "Total number of matchup pairs produced",
	})

	m.auditAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_appends_total",
		Help:      "Total number of audit events appended",
	})
	m.auditDecodeSkips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_decode_skips_total",
		Help:      "Total number of malformed audit lines skipped on read",
	})
	m.backupsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backups_created_total",
		Help:      "Total number of ledger backups written",
	})
	m.backupsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backups_skipped_total",
		Help:      "Total number of backups skipped by throttling",
	})
	m.backupsPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backups_pruned_total",
		Help:      "Total number of backups removed by retention",
	})
	m.backupsRestored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backups_restored_total",
		Help:      "Total number of successful restores from backup",
	})
	m.ledgerLoadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_load_latency_milliseconds",
		Help:      "Histogram of ledger file load latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.ledgerWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_write_latency_milliseconds",
		Help:      "Histogram of ledger file write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_runs_total",
		Help:      "Total number of audit-replay reconciliations",
	})
	m.reconcileDrift = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_drift_entities",
		Help:      "Entities with drift detected by the last reconciliation",
	})
	m.mergeDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merge_duplicates_total",
		Help:      "Total number of duplicate votes dropped during merge",
	})
	m.mergeRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merge_rejected_total",
		Help:      "Total number of malformed records rejected during merge",
	})
	m.trackedContests = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_contests",
		Help:      "Number of contests present in the ledger file",
	})
	m.trackedLogos = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_logos",
		Help:      "Number of active logos in the last loaded roster",
	})
}

// Package-level helpers on the global manager.

// RecordVote increments the recorded-votes counter.
func RecordVote() { globalManager.votesRecorded.Inc() }

// RecordVoteRejected increments the rejected-votes counter.
func RecordVoteRejected() { globalManager.votesRejected.Inc() }

// RecordReset increments the contest-reset counter.
func RecordReset() { globalManager.contestsReset.Inc() }

// RecordMatchupServed increments the matchups counter.
func RecordMatchupServed() { globalManager.matchupsServed.Inc() }

// RecordAuditAppend increments the audit-append counter.
func RecordAuditAppend() { globalManager.auditAppends.Inc() }

// RecordAuditDecodeSkip increments the malformed-audit-line counter.
func RecordAuditDecodeSkip() { globalManager.auditDecodeSkips.Inc() }

// RecordBackupCreated increments the backups-created counter.
func RecordBackupCreated() { globalManager.backupsCreated.Inc() }

// RecordBackupSkipped increments the throttle-skip counter.
func RecordBackupSkipped() { globalManager.backupsSkipped.Inc() }

// RecordBackupPruned adds n to the retention-prune counter.
func RecordBackupPruned(n int) { globalManager.backupsPruned.Add(float64(n)) }

// RecordBackupRestored increments the restore counter.
func RecordBackupRestored() { globalManager.backupsRestored.Inc() }

// RecordLedgerLoadLatency observes a ledger load duration in milliseconds.
func RecordLedgerLoadLatency(latencyMs float64) { globalManager.ledgerLoadLatency.Observe(latencyMs) }

// RecordLedgerWriteLatency observes a ledger write duration in milliseconds.
func RecordLedgerWriteLatency(latencyMs float64) { globalManager.ledgerWriteLatency.Observe(latencyMs) }

// RecordReconcileRun increments the reconcile counter.
func RecordReconcileRun() { globalManager.reconcileRuns.Inc() }

// UpdateReconcileDrift sets the drifted-entity gauge.
func UpdateReconcileDrift(entities int) { globalManager.reconcileDrift.Set(float64(entities)) }

// RecordMergeDuplicates adds n to the merge-duplicate counter.
func RecordMergeDuplicates(n int) { globalManager.mergeDuplicates.Add(float64(n)) }

// RecordMergeRejected adds n to the merge-rejected counter.
func RecordMergeRejected(n int) { globalManager.mergeRejected.Add(float64(n)) }

// UpdateTrackedContests sets the tracked-contest gauge.
func UpdateTrackedContests(n int) { globalManager.trackedContests.Set(float64(n)) }

// UpdateTrackedLogos sets the active-roster gauge.
func UpdateTrackedLogos(n int) { globalManager.trackedLogos.Set(float64(n)) }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
