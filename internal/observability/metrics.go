package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pool engine.
type Metrics struct {
	// --- Policy lifecycle ---
	PoliciesOpened    prometheus.Counter
	PoliciesExpired   *prometheus.CounterVec // trigger: direct|batch|settle
	PremiumsCollected prometheus.Counter
	AggregateCoverage prometheus.Gauge
	PoolBalance       prometheus.Gauge

	// --- Claims ---
	ClaimsSettled  *prometheus.CounterVec // outcome: full|partial
	ClaimsFailed   *prometheus.CounterVec // reason
	PayoutsTotal   prometheus.Counter
	SettleDuration prometheus.Histogram

	// --- Oracle ---
	OracleChecks *prometheus.CounterVec // outcome: healthy|<reason>

	// --- Admission ---
	AdmissionsRejected *prometheus.CounterVec // reason

	// --- Persistence ---
	PersistEventsWritten prometheus.Counter
	PersistClaimsWritten prometheus.Counter
	PersistErrors        *prometheus.CounterVec
	PersistBatchDur      prometheus.Histogram
	PersistLastSequence  prometheus.Gauge

	// --- Outbound publishing ---
	PublishDrops  prometheus.Counter
	EventsEmitted *prometheus.CounterVec // event_type
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0,
	}

	return &Metrics{
		PoliciesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_policies_opened_total",
			Help: "Policies successfully opened",
		}),

		PoliciesExpired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_policies_expired_total",
			Help: "Policies deactivated by expiration",
		}, []string{"trigger"}),

		PremiumsCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_premiums_collected_total",
			Help: "Total premiums collected (token base units)",
		}),

		AggregateCoverage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cover_aggregate_coverage",
			Help: "Running sum of coverage across active policies",
		}),

		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cover_pool_balance",
			Help: "Last observed pool token balance",
		}),

		ClaimsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_claims_settled_total",
			Help: "Successful settlements",
		}, []string{"outcome"}),

		ClaimsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_claims_failed_total",
			Help: "Settlement attempts with an unsuccessful outcome",
		}, []string{"reason"}),

		PayoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_payouts_total",
			Help: "Total paid out (token base units)",
		}),

		SettleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cover_settle_duration_seconds",
			Help:    "End-to-end settlement attempt duration",
			Buckets: latencyBuckets,
		}),

		OracleChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_oracle_checks_total",
			Help: "Oracle health validations by outcome",
		}, []string{"outcome"}),

		AdmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_admissions_rejected_total",
			Help: "Policy purchases rejected before any fund movement",
		}, []string{"reason"}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_persist_events_written_total",
			Help: "Events written to Postgres",
		}),

		PersistClaimsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_persist_claims_written_total",
			Help: "Claim records written to Postgres",
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cover_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: latencyBuckets,
		}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cover_persist_last_sequence",
			Help: "Last persisted event sequence",
		}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cover_publish_drops_total",
			Help: "Events dropped due to full publish channel",
		}),

		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_events_emitted_total",
			Help: "Observable events emitted by the engine",
		}, []string{"event_type"}),
	}
}
