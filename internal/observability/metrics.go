package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snow_rank"

// Metrics holds the Prometheus counters, histograms, and gauges for ranking runs.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={ok,error,no_date,no_metrics,no_rows,no_groups}
	RunDuration        prometheus.Histogram
	ObservationsLoaded prometheus.Counter
	NewSnowDerived     *prometheus.CounterVec // labels: result={positive,rejected}
	RegionsRanked      prometheus.Gauge
	WeightsRejected    prometheus.Counter
	RankingsPublished  prometheus.Counter
	PublishErrors      prometheus.Counter

	// Remote source metrics.
	SourceFetches       *prometheus.CounterVec // labels: outcome={success,error}
	SourceCache         *prometheus.CounterVec // labels: result={hit,miss}
	SourceFetchDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ranking runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-derive-score-rank run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ObservationsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_loaded_total",
			Help:      "Total observations read from the configured source.",
		}),
		NewSnowDerived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_snow_deltas_total",
			Help:      "Positive snow depth deltas accepted or rejected as new snow.",
		}, []string{"result"}),
		RegionsRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_ranked",
			Help:      "Number of regions in the most recent ranking.",
		}),
		WeightsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weight_overrides_rejected_total",
			Help:      "Weight overrides ignored because they could not be parsed.",
		}),
		RankingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_published_total",
			Help:      "Rankings delivered to every configured sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Ranking publications that failed on at least one sink.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Remote dataset downloads by outcome.",
		}, []string{"outcome"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_cache_total",
			Help:      "Remote dataset cache lookups by result.",
		}, []string{"result"}),
		SourceFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Remote dataset download duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ObservationsLoaded,
		m.NewSnowDerived,
		m.RegionsRanked,
		m.WeightsRejected,
		m.RankingsPublished,
		m.PublishErrors,
		m.SourceFetches,
		m.SourceCache,
		m.SourceFetchDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
