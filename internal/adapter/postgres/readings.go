package postgres

import (
	"context"
	"fmt"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

// RecentReadings returns the newest long-term readings joined back out to
// their dimensions, newest first. This is the denormalized shape the
// dashboard consumes; per-reading watering history is the most recent
// watering at or before the reading.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]domain.ReadingSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT
    p.plant_name,
    p.plant_scientific_name,
    r.plant_reading_time,
    r.temperature,
    r.soil_moisture,
    sc.sun_condition_type,
    sh.shade_condition_type,
    b.botanist_name,
    b.botanist_email,
    b.botanist_phone_number,
    o.latitude,
    o.longitude,
    o.country,
    (SELECT MAX(w.time_watered) FROM %[1]s.water_history AS w
     WHERE w.plant_id = r.plant_id AND w.time_watered <= r.plant_reading_time)
FROM %[1]s.reading AS r
JOIN %[1]s.plant AS p ON p.plant_id = r.plant_id
LEFT JOIN %[1]s.plant_origin AS o ON o.plant_origin_id = p.plant_origin_id
LEFT JOIN %[1]s.botanist AS b ON b.botanist_id = r.botanist_id
LEFT JOIN %[1]s.sun_condition AS sc ON sc.sun_condition_id = r.sun_condition_id
LEFT JOIN %[1]s.shade_condition AS sh ON sh.shade_condition_id = r.shade_condition_id
ORDER BY r.plant_reading_time DESC
LIMIT $1`, s.longSchema)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent readings: %w", err)
	}
	defer rows.Close()

	var out []domain.ReadingSummary
	for rows.Next() {
		var r domain.ReadingSummary
		if err := rows.Scan(
			&r.PlantName, &r.ScientificName, &r.ReadingTime,
			&r.Temperature, &r.SoilMoisture,
			&r.SunCondition, &r.ShadeCondition,
			&r.BotanistName, &r.BotanistEmail, &r.BotanistPhone,
			&r.Latitude, &r.Longitude, &r.Country,
			&r.LastWatered,
		); err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return out, nil
}
