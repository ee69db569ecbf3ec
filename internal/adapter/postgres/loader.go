package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

// LoadBatch maps a cleaned batch onto the short-term schema's five insertion
// targets. Each step is a conflict-tolerant bulk upsert (INSERT ... ON
// CONFLICT DO NOTHING) committed independently of the others; foreign keys
// are resolved by correlated natural-key subselects so rows inserted earlier
// in the same run are visible to later steps.
//
// A failed step stops the sequence. Earlier tables stay loaded — the next
// run's identical inserts are no-ops for rows that already landed, so no
// compensating rollback is needed. The returned results carry one entry per
// attempted step. It implements pipeline.Loader.
func (s *Store) LoadBatch(ctx context.Context, rows []domain.CleanRecord) []domain.TableResult {
	steps := []struct {
		table string
		load  func(context.Context, []domain.CleanRecord) (int64, error)
	}{
		{"plant_origin", s.loadOrigins},
		{"plant", s.loadPlants},
		{"botanist", s.loadBotanists},
		{"water_history", s.loadWaterHistory},
		{"reading", s.loadReadings},
	}

	results := make([]domain.TableResult, 0, len(steps))
	for _, step := range steps {
		inserted, err := step.load(ctx, rows)
		results = append(results, domain.TableResult{Table: step.table, Rows: inserted, Err: err})
		if err != nil {
			s.logger.Error("load step failed, aborting remaining steps",
				"table", step.table, "error", err)
			break
		}
		s.logger.Info("loaded table", "table", step.table, "rows", inserted)
	}
	return results
}

// loadOrigins inserts origin rows for records with a complete coordinate
// pair. Origins without both coordinates cannot form a natural key and are
// skipped; their plants resolve to a null origin reference.
func (s *Store) loadOrigins(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s.plant_origin (latitude, longitude, country)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`, s.shortSchema)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		batch.Queue(query, row.Latitude, row.Longitude, row.Country)
	}
	return s.sendBatch(ctx, batch)
}

// loadPlants inserts plant rows keyed on the upstream plant id; the origin
// reference is resolved by natural key against rows made visible by the
// preceding origin step.
func (s *Store) loadPlants(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %[1]s.plant (plant_id, plant_name, plant_scientific_name, plant_cycle, plant_origin_id)
VALUES ($1, $2, $3, $4,
    (SELECT plant_origin_id FROM %[1]s.plant_origin
     WHERE latitude = $5 AND longitude = $6 AND country IS NOT DISTINCT FROM $7))
ON CONFLICT (plant_id) DO NOTHING`, s.shortSchema)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.PlantID == nil {
			continue
		}
		batch.Queue(query, row.PlantID, row.PlantName, row.ScientificName, row.PlantCycle,
			row.Latitude, row.Longitude, row.Country)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) loadBotanists(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s.botanist (botanist_name, botanist_email, botanist_phone_number)
VALUES ($1, $2, $3)
ON CONFLICT (botanist_name) DO NOTHING`, s.shortSchema)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.BotanistName == nil {
			continue
		}
		batch.Queue(query, row.BotanistName, row.BotanistEmail, row.BotanistPhone)
	}
	return s.sendBatch(ctx, batch)
}

// loadWaterHistory inserts watering events keyed on (time_watered, plant_id).
// A duplicate pair is a no-op insert, not an error.
func (s *Store) loadWaterHistory(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s.water_history (time_watered, plant_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, s.shortSchema)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.LastWatered == nil {
			continue
		}
		batch.Queue(query, row.LastWatered, row.PlantID)
	}
	return s.sendBatch(ctx, batch)
}

// loadReadings upserts the sun/shade condition lookup values seen in the
// batch, then inserts reading rows keyed on (plant_id, plant_reading_time)
// with botanist and condition references resolved by natural key. An
// unresolved reference yields a null foreign key, not a load failure.
func (s *Store) loadReadings(ctx context.Context, rows []domain.CleanRecord) (int64, error) {
	if err := s.upsertConditions(ctx, rows); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %[1]s.reading
    (plant_id, plant_reading_time, botanist_id, temperature, soil_moisture, sun_condition_id, shade_condition_id)
VALUES ($1, $2,
    (SELECT botanist_id FROM %[1]s.botanist WHERE botanist_name = $3),
    $4, $5,
    (SELECT sun_condition_id FROM %[1]s.sun_condition WHERE sun_condition_type = $6),
    (SELECT shade_condition_id FROM %[1]s.shade_condition WHERE shade_condition_type = $7))
ON CONFLICT DO NOTHING`, s.shortSchema)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.RecordingTime == nil {
			continue
		}
		batch.Queue(query, row.PlantID, row.RecordingTime, row.BotanistName,
			row.Temperature, row.SoilMoisture, row.SunCondition, row.ShadeCondition)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) upsertConditions(ctx context.Context, rows []domain.CleanRecord) error {
	sunQuery := fmt.Sprintf(`INSERT INTO %s.sun_condition (sun_condition_type)
VALUES ($1) ON CONFLICT DO NOTHING`, s.shortSchema)
	shadeQuery := fmt.Sprintf(`INSERT INTO %s.shade_condition (shade_condition_type)
VALUES ($1) ON CONFLICT DO NOTHING`, s.shortSchema)

	sun := make(map[string]struct{})
	shade := make(map[string]struct{})
	batch := &pgx.Batch{}
	for _, row := range rows {
		if _, seen := sun[row.SunCondition]; row.SunCondition != "" && !seen {
			sun[row.SunCondition] = struct{}{}
			batch.Queue(sunQuery, row.SunCondition)
		}
		if _, seen := shade[row.ShadeCondition]; row.ShadeCondition != "" && !seen {
			shade[row.ShadeCondition] = struct{}{}
			batch.Queue(shadeQuery, row.ShadeCondition)
		}
	}
	_, err := s.sendBatch(ctx, batch)
	return err
}

// sendBatch executes a queued batch and sums the inserted row counts.
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := res.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
