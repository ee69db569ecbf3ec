package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// plant ETL pipeline.
type Metrics struct {
	RecordsFetched prometheus.Counter
	FetchErrors    prometheus.Counter
	RunsTotal      *prometheus.CounterVec // labels: outcome={success,error}
	PipelineActive prometheus.Gauge
	RunDuration    prometheus.Histogram

	// Batch cleaning metrics.
	RowsDropped  prometheus.Counter
	FieldDefects *prometheus.CounterVec // labels: field={email,phone,watered_time,reading_time,temperature}

	// Storage metrics, labeled by table.
	RowsLoaded    *prometheus.CounterVec
	LoadErrors    *prometheus.CounterVec
	RowsMigrated  *prometheus.CounterVec
	MigrateErrors *prometheus.CounterVec
	RowsPruned    *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "records_fetched_total",
			Help:      "Total raw plant records fetched from the upstream API.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "fetch_errors_total",
			Help:      "Total per-plant fetch failures (skipped ids).",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plant_etl",
			Name:      "pipeline_active",
			Help:      "1 while a pipeline run is in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plant_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-transform-load-migrate-prune cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during cleaning (missing name or temporal anchors).",
		}),
		FieldDefects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "field_defects_total",
			Help:      "Field-level defects resolved to null during cleaning.",
		}, []string{"field"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "rows_loaded_total",
			Help:      "Rows inserted into the short-term schema by table.",
		}, []string{"table"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "load_errors_total",
			Help:      "Failed load steps by table.",
		}, []string{"table"}),
		RowsMigrated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "rows_migrated_total",
			Help:      "Rows copied from the short-term to the long-term schema by table.",
		}, []string{"table"}),
		MigrateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "migrate_errors_total",
			Help:      "Failed migration steps by table.",
		}, []string{"table"}),
		RowsPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plant_etl",
			Name:      "rows_pruned_total",
			Help:      "Short-term rows deleted past the retention window by table.",
		}, []string{"table"}),
	}

	prometheus.MustRegister(
		m.RecordsFetched,
		m.FetchErrors,
		m.RunsTotal,
		m.PipelineActive,
		m.RunDuration,
		m.RowsDropped,
		m.FieldDefects,
		m.RowsLoaded,
		m.LoadErrors,
		m.RowsMigrated,
		m.MigrateErrors,
		m.RowsPruned,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plant_etl", Name: "records_fetched_total"}),
		FetchErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plant_etl", Name: "fetch_errors_total"}),
		RunsTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "runs_total"}, []string{"outcome"}),
		PipelineActive: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "plant_etl", Name: "pipeline_active"}),
		RunDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "plant_etl", Name: "run_duration_seconds"}),
		RowsDropped:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "plant_etl", Name: "rows_dropped_total"}),
		FieldDefects:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "field_defects_total"}, []string{"field"}),
		RowsLoaded:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "rows_loaded_total"}, []string{"table"}),
		LoadErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "load_errors_total"}, []string{"table"}),
		RowsMigrated:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "rows_migrated_total"}, []string{"table"}),
		MigrateErrors:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "migrate_errors_total"}, []string{"table"}),
		RowsPruned:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "plant_etl", Name: "rows_pruned_total"}, []string{"table"}),
	}
}
