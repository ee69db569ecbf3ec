package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
	"github.com/couchcryptid/plant-sensor-etl/internal/observability"
)

// Extractor reads the full set of raw plant records from the source.
type Extractor interface {
	FetchAll(ctx context.Context) ([]domain.RawRecord, error)
}

// Loader writes a cleaned batch into the short-term schema.
type Loader interface {
	LoadBatch(ctx context.Context, rows []domain.CleanRecord) []domain.TableResult
}

// Archiver moves short-term data into long-term storage and applies the
// retention window.
type Archiver interface {
	Migrate(ctx context.Context) []domain.TableResult
	Prune(ctx context.Context, cutoff time.Time) (domain.PruneResult, error)
}

// RunReport summarises one complete pipeline cycle.
type RunReport struct {
	Fetched  int
	Cleaned  int
	Stats    domain.BatchStats
	Loaded   int64
	Migrated int64
	Pruned   int64
}

// Pipeline orchestrates the fetch-flatten-clean-load-migrate-prune cycle.
type Pipeline struct {
	extractor Extractor
	loader    Loader
	archiver  Archiver
	logger    *slog.Logger
	metrics   *observability.Metrics
	retention time.Duration
	dryRun    bool
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, l Loader, a Archiver, logger *slog.Logger, metrics *observability.Metrics, retention time.Duration, dryRun bool) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		archiver:  a,
		logger:    logger,
		metrics:   metrics,
		retention: retention,
		dryRun:    dryRun,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// run, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one complete cycle. Load failures abort the run; migration
// failures are degraded-mode (the failed tables are retried next cycle), so
// they are reported but do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (RunReport, error) {
	start := time.Now()
	p.metrics.PipelineActive.Set(1)
	defer p.metrics.PipelineActive.Set(0)

	report, err := p.runOnce(ctx)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		p.ready.Store(true)
		p.logger.Info("pipeline run complete",
			"fetched", report.Fetched,
			"cleaned", report.Cleaned,
			"dropped", report.Stats.DroppedNoName+report.Stats.DroppedNoTimestamps,
			"loaded", report.Loaded,
			"migrated", report.Migrated,
			"pruned", report.Pruned,
			"duration", time.Since(start))
	}
	return report, err
}

func (p *Pipeline) runOnce(ctx context.Context) (RunReport, error) {
	var report RunReport

	raw, err := p.extractor.FetchAll(ctx)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		return report, fmt.Errorf("extracting records: %w", err)
	}
	report.Fetched = len(raw)
	p.metrics.RecordsFetched.Add(float64(len(raw)))

	flat := make([]domain.FlatRecord, len(raw))
	for i, r := range raw {
		flat[i] = domain.Flatten(r)
	}

	cleaned, stats, err := domain.CleanBatch(flat)
	if err != nil {
		return report, fmt.Errorf("cleaning batch: %w", err)
	}
	report.Cleaned = len(cleaned)
	report.Stats = stats
	p.recordCleaningStats(stats)

	if p.dryRun {
		p.logger.Info("dry run, skipping load and migration",
			"fetched", report.Fetched, "cleaned", report.Cleaned)
		return report, nil
	}

	loaded, err := p.load(ctx, cleaned)
	report.Loaded = loaded
	if err != nil {
		return report, err
	}

	report.Migrated = p.migrate(ctx)
	pruned, err := p.prune(ctx)
	report.Pruned = pruned
	return report, err
}

func (p *Pipeline) load(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	var loaded int64
	for _, res := range p.loader.LoadBatch(ctx, rows) {
		if res.Err != nil {
			p.metrics.LoadErrors.WithLabelValues(res.Table).Inc()
			return loaded, fmt.Errorf("loading table %s: %w", res.Table, res.Err)
		}
		loaded += res.Rows
		p.metrics.RowsLoaded.WithLabelValues(res.Table).Add(float64(res.Rows))
	}
	return loaded, nil
}

func (p *Pipeline) migrate(ctx context.Context) int64 {
	var migrated int64
	for _, res := range p.archiver.Migrate(ctx) {
		if res.Err != nil {
			p.metrics.MigrateErrors.WithLabelValues(res.Table).Inc()
			continue
		}
		migrated += res.Rows
		p.metrics.RowsMigrated.WithLabelValues(res.Table).Add(float64(res.Rows))
	}
	return migrated
}

func (p *Pipeline) prune(ctx context.Context) (int64, error) {
	cutoff := domain.Now().Add(-p.retention)
	result, err := p.archiver.Prune(ctx, cutoff)
	p.metrics.RowsPruned.WithLabelValues("reading").Add(float64(result.Readings))
	p.metrics.RowsPruned.WithLabelValues("water_history").Add(float64(result.Waterings))
	if err != nil {
		return result.Readings + result.Waterings, fmt.Errorf("pruning short-term data: %w", err)
	}
	return result.Readings + result.Waterings, nil
}

func (p *Pipeline) recordCleaningStats(stats domain.BatchStats) {
	p.metrics.RowsDropped.Add(float64(stats.DroppedNoName + stats.DroppedNoTimestamps))
	p.metrics.FieldDefects.WithLabelValues("email").Add(float64(stats.EmailDefects))
	p.metrics.FieldDefects.WithLabelValues("phone").Add(float64(stats.PhoneDefects))
	p.metrics.FieldDefects.WithLabelValues("watered_time").Add(float64(stats.WateredDefects))
	p.metrics.FieldDefects.WithLabelValues("reading_time").Add(float64(stats.ReadingTimeDefects))
	p.metrics.FieldDefects.WithLabelValues("temperature").Add(float64(stats.TemperatureFaults))
}

// RunScheduled executes Run on a fixed interval until the context is
// cancelled. The first run happens immediately. A failed run is logged and
// the schedule continues; each cycle is idempotent, so the next run picks up
// whatever the failed one missed.
func (p *Pipeline) RunScheduled(ctx context.Context, interval time.Duration) {
	p.logger.Info("pipeline scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("pipeline run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline scheduler stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}
