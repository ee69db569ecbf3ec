//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchcryptid/plant-sensor-etl/internal/adapter/postgres"
	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres launches a disposable Postgres and returns a connected Store
// plus a raw pool for test assertions.
func startPostgres(ctx context.Context, t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("plants"),
		tcpostgres.WithUsername("etl"),
		tcpostgres.WithPassword("etl"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgres.New(ctx, url, "short_term", "long_term", discardLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchemas(ctx))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return store, pool
}

func countRows(ctx context.Context, t *testing.T, pool *pgxpool.Pool, schema, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+schema+"."+table).Scan(&n))
	return n
}

func cleanRow(plantID int64, name string, reading time.Time) domain.CleanRecord {
	sci := "dionaea muscipula"
	botanist := "carl linnaeus"
	email := "carl.linnaeus@lnhm.co.uk"
	phone := "146-994-1635"
	lat, lon := 5.27247, -3.59625
	country := "ci"
	watered := reading.Add(-13 * time.Hour)
	temp, moisture := 11.5, 31.9

	return domain.CleanRecord{
		PlantID:        &plantID,
		PlantName:      name,
		ScientificName: &sci,
		BotanistName:   &botanist,
		BotanistEmail:  &email,
		BotanistPhone:  &phone,
		LastWatered:    &watered,
		RecordingTime:  &reading,
		Latitude:       &lat,
		Longitude:      &lon,
		Country:        &country,
		Temperature:    &temp,
		SoilMoisture:   &moisture,
		SunCondition:   "full sun",
		ShadeCondition: "part shade",
	}
}

// TestLoadBatchIdempotence verifies that re-loading an identical batch is a
// no-op for every table: conflict-skip inserts make repeated runs safe.
func TestLoadBatchIdempotence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, pool := startPostgres(ctx, t)

	reading := time.Date(2024, 6, 12, 14, 3, 31, 0, time.UTC)
	rows := []domain.CleanRecord{
		cleanRow(1, "venus flytrap", reading),
		cleanRow(2, "corpse flower", reading.Add(time.Minute)),
	}

	first := store.LoadBatch(ctx, rows)
	for _, res := range first {
		require.NoError(t, res.Err, "table %s", res.Table)
	}
	assert.Equal(t, int64(2), countRows(ctx, t, pool, "short_term", "reading"))
	assert.Equal(t, int64(2), countRows(ctx, t, pool, "short_term", "plant"))

	second := store.LoadBatch(ctx, rows)
	for _, res := range second {
		require.NoError(t, res.Err, "table %s", res.Table)
		assert.Zero(t, res.Rows, "table %s should skip duplicates", res.Table)
	}
}

// TestMigrateCopiesOnceAndResolvesKeys verifies the anti-join migration:
// a first cycle copies everything, a second copies nothing, and the
// long-term reading resolves its foreign keys against long-term parents.
func TestMigrateCopiesOnceAndResolvesKeys(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, pool := startPostgres(ctx, t)

	reading := time.Date(2024, 6, 12, 14, 3, 31, 0, time.UTC)
	for _, res := range store.LoadBatch(ctx, []domain.CleanRecord{cleanRow(1, "venus flytrap", reading)}) {
		require.NoError(t, res.Err)
	}

	first := store.Migrate(ctx)
	var copied int64
	for _, res := range first {
		require.NoError(t, res.Err, "table %s", res.Table)
		copied += res.Rows
	}
	assert.Positive(t, copied)
	assert.Equal(t, int64(1), countRows(ctx, t, pool, "long_term", "reading"))

	second := store.Migrate(ctx)
	for _, res := range second {
		require.NoError(t, res.Err, "table %s", res.Table)
		assert.Zero(t, res.Rows, "second migration of %s should copy nothing", res.Table)
	}

	// The long-term reading must join out to long-term dimensions.
	var botanist, sun, shade string
	require.NoError(t, pool.QueryRow(ctx, `SELECT b.botanist_name, sc.sun_condition_type, sh.shade_condition_type
FROM long_term.reading r
JOIN long_term.botanist b ON b.botanist_id = r.botanist_id
JOIN long_term.sun_condition sc ON sc.sun_condition_id = r.sun_condition_id
JOIN long_term.shade_condition sh ON sh.shade_condition_id = r.shade_condition_id`).
		Scan(&botanist, &sun, &shade))
	assert.Equal(t, "carl linnaeus", botanist)
	assert.Equal(t, "full sun", sun)
	assert.Equal(t, "part shade", shade)
}

// TestPruneRespectsRetentionWindow verifies that pruning deletes only
// short-term fact rows past the cutoff that have already been migrated,
// and never touches long-term data or dimension tables.
func TestPruneRespectsRetentionWindow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, pool := startPostgres(ctx, t)

	now := time.Now().UTC().Truncate(time.Second)
	old := cleanRow(1, "venus flytrap", now.Add(-25*time.Hour))
	fresh := cleanRow(2, "corpse flower", now.Add(-23*time.Hour))

	for _, res := range store.LoadBatch(ctx, []domain.CleanRecord{old, fresh}) {
		require.NoError(t, res.Err)
	}
	for _, res := range store.Migrate(ctx) {
		require.NoError(t, res.Err)
	}

	pruned, err := store.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned.Readings)

	// Old reading gone from short-term, both remain in long-term.
	assert.Equal(t, int64(1), countRows(ctx, t, pool, "short_term", "reading"))
	assert.Equal(t, int64(2), countRows(ctx, t, pool, "long_term", "reading"))

	// Dimensions survive the prune.
	assert.Equal(t, int64(2), countRows(ctx, t, pool, "short_term", "plant"))
	assert.Equal(t, int64(1), countRows(ctx, t, pool, "short_term", "botanist"))

	// Pruning again deletes nothing.
	pruned, err = store.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned.Readings)
	assert.Zero(t, pruned.Waterings)
}

// TestPruneSkipsUnmigratedRows verifies the safety rail: a row past the
// cutoff that has not reached long-term storage yet is kept in short-term.
func TestPruneSkipsUnmigratedRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, pool := startPostgres(ctx, t)

	now := time.Now().UTC().Truncate(time.Second)
	for _, res := range store.LoadBatch(ctx, []domain.CleanRecord{cleanRow(1, "venus flytrap", now.Add(-48*time.Hour))}) {
		require.NoError(t, res.Err)
	}

	// No migration has run; the stale row must survive.
	pruned, err := store.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned.Readings)
	assert.Equal(t, int64(1), countRows(ctx, t, pool, "short_term", "reading"))
}
