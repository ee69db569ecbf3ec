package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

// Migrate copies rows present in the short-term schema but absent in the
// long-term schema, table by table in dependency order. Matching is by
// natural key only: surrogate ids are assigned independently in each schema,
// so every surrogate foreign key is re-resolved against the long-term
// parents during the copy. A failed table is logged and the remaining tables
// are still attempted; the next run re-attempts whatever was missed.
// Running Migrate twice with no new data copies nothing the second time.
func (s *Store) Migrate(ctx context.Context) []domain.TableResult {
	steps := []struct {
		table string
		query string
	}{
		{"sun_condition", s.migrateSunConditionSQL()},
		{"shade_condition", s.migrateShadeConditionSQL()},
		{"botanist", s.migrateBotanistSQL()},
		{"plant_origin", s.migrateOriginSQL()},
		{"plant", s.migratePlantSQL()},
		{"water_history", s.migrateWaterHistorySQL()},
		{"reading", s.migrateReadingSQL()},
	}

	results := make([]domain.TableResult, 0, len(steps))
	for _, step := range steps {
		tag, err := s.pool.Exec(ctx, step.query)
		result := domain.TableResult{Table: step.table, Err: err}
		if err != nil {
			s.logger.Error("migration step failed, continuing", "table", step.table, "error", err)
		} else {
			result.Rows = tag.RowsAffected()
			s.logger.Info("migrated table", "table", step.table, "rows", result.Rows)
		}
		results = append(results, result)
	}
	return results
}

// Prune deletes short-term water_history and reading rows older than the
// cutoff, but only rows already present in the long-term schema — a row the
// migration has not copied yet is never lost to the retention window.
// Dimension tables (origin, plant, botanist, conditions) are never pruned;
// they are ongoing lookup dimensions, not historical facts.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (domain.PruneResult, error) {
	var result domain.PruneResult
	var errs []error

	readingSQL := fmt.Sprintf(`DELETE FROM %[1]s.reading AS s
WHERE s.plant_reading_time < $1
  AND EXISTS (
      SELECT 1 FROM %[2]s.reading AS l
      WHERE l.plant_id IS NOT DISTINCT FROM s.plant_id
        AND l.plant_reading_time = s.plant_reading_time)`, s.shortSchema, s.longSchema)

	tag, err := s.pool.Exec(ctx, readingSQL, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune reading: %w", err))
	} else {
		result.Readings = tag.RowsAffected()
	}

	wateringSQL := fmt.Sprintf(`DELETE FROM %[1]s.water_history AS s
WHERE s.time_watered < $1
  AND EXISTS (
      SELECT 1 FROM %[2]s.water_history AS l
      WHERE l.plant_id IS NOT DISTINCT FROM s.plant_id
        AND l.time_watered = s.time_watered)`, s.shortSchema, s.longSchema)

	tag, err = s.pool.Exec(ctx, wateringSQL, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune water_history: %w", err))
	} else {
		result.Waterings = tag.RowsAffected()
	}

	return result, errors.Join(errs...)
}

func (s *Store) migrateSunConditionSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.sun_condition (sun_condition_type)
SELECT s.sun_condition_type FROM %[1]s.sun_condition AS s
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.sun_condition AS l
    WHERE l.sun_condition_type = s.sun_condition_type)`, s.shortSchema, s.longSchema)
}

func (s *Store) migrateShadeConditionSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.shade_condition (shade_condition_type)
SELECT s.shade_condition_type FROM %[1]s.shade_condition AS s
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.shade_condition AS l
    WHERE l.shade_condition_type = s.shade_condition_type)`, s.shortSchema, s.longSchema)
}

func (s *Store) migrateBotanistSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.botanist (botanist_name, botanist_email, botanist_phone_number)
SELECT s.botanist_name, s.botanist_email, s.botanist_phone_number
FROM %[1]s.botanist AS s
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.botanist AS l
    WHERE l.botanist_name = s.botanist_name)`, s.shortSchema, s.longSchema)
}

func (s *Store) migrateOriginSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.plant_origin (latitude, longitude, country)
SELECT s.latitude, s.longitude, s.country
FROM %[1]s.plant_origin AS s
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.plant_origin AS l
    WHERE l.latitude = s.latitude
      AND l.longitude = s.longitude
      AND l.country IS NOT DISTINCT FROM s.country)`, s.shortSchema, s.longSchema)
}

// migratePlantSQL re-resolves the origin surrogate id through the short-term
// origin's natural key against the long-term origin table.
func (s *Store) migratePlantSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.plant (plant_id, plant_name, plant_scientific_name, plant_cycle, plant_origin_id)
SELECT s.plant_id, s.plant_name, s.plant_scientific_name, s.plant_cycle,
    (SELECT lo.plant_origin_id FROM %[2]s.plant_origin AS lo
     WHERE lo.latitude = o.latitude
       AND lo.longitude = o.longitude
       AND lo.country IS NOT DISTINCT FROM o.country)
FROM %[1]s.plant AS s
LEFT JOIN %[1]s.plant_origin AS o ON o.plant_origin_id = s.plant_origin_id
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.plant AS l
    WHERE l.plant_id = s.plant_id)`, s.shortSchema, s.longSchema)
}

func (s *Store) migrateWaterHistorySQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.water_history (time_watered, plant_id)
SELECT s.time_watered, s.plant_id
FROM %[1]s.water_history AS s
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.water_history AS l
    WHERE l.time_watered = s.time_watered
      AND l.plant_id IS NOT DISTINCT FROM s.plant_id)`, s.shortSchema, s.longSchema)
}

// migrateReadingSQL re-resolves the botanist and condition surrogate ids
// through their short-term natural keys against the long-term lookups.
func (s *Store) migrateReadingSQL() string {
	return fmt.Sprintf(`INSERT INTO %[2]s.reading
    (plant_id, plant_reading_time, botanist_id, temperature, soil_moisture, sun_condition_id, shade_condition_id)
SELECT s.plant_id, s.plant_reading_time,
    (SELECT lb.botanist_id FROM %[2]s.botanist AS lb WHERE lb.botanist_name = b.botanist_name),
    s.temperature, s.soil_moisture,
    (SELECT lsc.sun_condition_id FROM %[2]s.sun_condition AS lsc WHERE lsc.sun_condition_type = sc.sun_condition_type),
    (SELECT lsh.shade_condition_id FROM %[2]s.shade_condition AS lsh WHERE lsh.shade_condition_type = sh.shade_condition_type)
FROM %[1]s.reading AS s
LEFT JOIN %[1]s.botanist AS b ON b.botanist_id = s.botanist_id
LEFT JOIN %[1]s.sun_condition AS sc ON sc.sun_condition_id = s.sun_condition_id
LEFT JOIN %[1]s.shade_condition AS sh ON sh.shade_condition_id = s.shade_condition_id
WHERE NOT EXISTS (
    SELECT 1 FROM %[2]s.reading AS l
    WHERE l.plant_id IS NOT DISTINCT FROM s.plant_id
      AND l.plant_reading_time = s.plant_reading_time)`, s.shortSchema, s.longSchema)
}
