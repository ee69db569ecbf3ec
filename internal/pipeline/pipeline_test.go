package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
	"github.com/couchcryptid/plant-sensor-etl/internal/observability"
	"github.com/couchcryptid/plant-sensor-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	records []domain.RawRecord
	err     error
	calls   int
}

func (m *mockExtractor) FetchAll(_ context.Context) ([]domain.RawRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockLoader struct {
	loaded  [][]domain.CleanRecord
	results []domain.TableResult
}

func (m *mockLoader) LoadBatch(_ context.Context, rows []domain.CleanRecord) []domain.TableResult {
	m.loaded = append(m.loaded, rows)
	if m.results != nil {
		return m.results
	}
	return []domain.TableResult{
		{Table: "plant_origin", Rows: 1},
		{Table: "plant", Rows: 1},
		{Table: "botanist", Rows: 1},
		{Table: "water_history", Rows: 1},
		{Table: "reading", Rows: int64(len(rows))},
	}
}

type mockArchiver struct {
	migrateCalls int
	migrated     []domain.TableResult
	pruneCalls   int
	pruneCutoff  time.Time
	pruned       domain.PruneResult
	pruneErr     error
}

func (m *mockArchiver) Migrate(_ context.Context) []domain.TableResult {
	m.migrateCalls++
	if m.migrated != nil {
		return m.migrated
	}
	return []domain.TableResult{{Table: "reading", Rows: 2}}
}

func (m *mockArchiver) Prune(_ context.Context, cutoff time.Time) (domain.PruneResult, error) {
	m.pruneCalls++
	m.pruneCutoff = cutoff
	return m.pruned, m.pruneErr
}

func newTestMetrics() *observability.Metrics {
	// Use unregistered metrics to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func sampleRawRecord(id float64) domain.RawRecord {
	return domain.RawRecord{
		"plant_id":        id,
		"name":            "Venus Flytrap",
		"recording_taken": "2024-06-12 14:03:31",
		"temperature":     12.5,
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1), sampleRawRecord(2)}}
	ldr := &mockLoader{}
	arc := &mockArchiver{pruned: domain.PruneResult{Readings: 3, Waterings: 1}}

	p := pipeline.New(ext, ldr, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Cleaned)
	assert.Equal(t, int64(6), report.Loaded)
	assert.Equal(t, int64(2), report.Migrated)
	assert.Equal(t, int64(4), report.Pruned)

	require.Len(t, ldr.loaded, 1)
	assert.Len(t, ldr.loaded[0], 2)
	assert.Equal(t, 1, arc.migrateCalls)
	assert.Equal(t, 1, arc.pruneCalls)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: errors.New("api unreachable")}
	ldr := &mockLoader{}
	arc := &mockArchiver{}

	p := pipeline.New(ext, ldr, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Zero(t, arc.migrateCalls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoadFailureSkipsMigration(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1)}}
	ldr := &mockLoader{results: []domain.TableResult{
		{Table: "plant_origin", Rows: 1},
		{Table: "plant", Err: errors.New("connection reset")},
	}}
	arc := &mockArchiver{}

	p := pipeline.New(ext, ldr, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plant")
	assert.Equal(t, int64(1), report.Loaded)
	assert.Zero(t, arc.migrateCalls)
	assert.Zero(t, arc.pruneCalls)
}

func TestPipeline_Run_MigrationFailureIsDegradedNotFatal(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1)}}
	ldr := &mockLoader{}
	arc := &mockArchiver{migrated: []domain.TableResult{
		{Table: "botanist", Rows: 1},
		{Table: "plant", Err: errors.New("lock timeout")},
		{Table: "reading", Rows: 4},
	}}

	p := pipeline.New(ext, ldr, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.Migrated)
	assert.Equal(t, 1, arc.pruneCalls)
}

func TestPipeline_Run_PruneCutoff(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 6, 13, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1)}}
	arc := &mockArchiver{}

	p := pipeline.New(ext, &mockLoader{}, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC), arc.pruneCutoff)
}

func TestPipeline_Run_DryRunSkipsStorage(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1)}}
	ldr := &mockLoader{}
	arc := &mockArchiver{}

	p := pipeline.New(ext, ldr, arc, slog.Default(), newTestMetrics(), 24*time.Hour, true)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cleaned)
	assert.Empty(t, ldr.loaded)
	assert.Zero(t, arc.migrateCalls)
	assert.Zero(t, arc.pruneCalls)
}

func TestPipeline_RunScheduled_StopsOnCancel(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{sampleRawRecord(1)}}
	arc := &mockArchiver{}

	p := pipeline.New(ext, &mockLoader{}, arc, slog.Default(), newTestMetrics(), 24*time.Hour, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.RunScheduled(ctx, time.Minute)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
	// The immediate first run still happens before the cancelled select.
	assert.Equal(t, 1, ext.calls)
}
