package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline.
type Metrics struct {
	RecordsFetched *prometheus.CounterVec // labels: source, kind={crisis,charity}
	FetchErrors    *prometheus.CounterVec // labels: source

	CrisesInserted    prometheus.Counter
	CrisesSkipped     prometheus.Counter // duplicate source_id
	CrisesDropped     prometheus.Counter // unresolvable location
	CharitiesInserted prometheus.Counter
	CharitiesLinked   prometheus.Counter

	RunDuration prometheus.Histogram
	RunsTotal   *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates all pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "records_fetched_total",
			Help:      "Normalized records fetched per source adapter.",
		}, []string{"source", "kind"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "fetch_errors_total",
			Help:      "Failed adapter fetches (the run continues without them).",
		}, []string{"source"}),
		CrisesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "crises_inserted_total",
			Help:      "Crisis rows inserted into the store.",
		}),
		CrisesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "crises_skipped_total",
			Help:      "Crisis records skipped as duplicates of a stored source_id.",
		}),
		CrisesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "crises_dropped_total",
			Help:      "Crisis records dropped for lack of a resolvable location.",
		}),
		CharitiesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "charities_inserted_total",
			Help:      "Charity rows inserted into the store.",
		}),
		CharitiesLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "charities_linked_total",
			Help:      "Charities linked to a crisis by country code at insert time.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globemap",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete ingestion run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globemap",
			Name:      "runs_total",
			Help:      "Completed ingestion runs by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.RecordsFetched,
		m.FetchErrors,
		m.CrisesInserted,
		m.CrisesSkipped,
		m.CrisesDropped,
		m.CharitiesInserted,
		m.CharitiesLinked,
		m.RunDuration,
		m.RunsTotal,
	)
	return m
}
