package postgres

import "fmt"

// schemaDDL renders the table shapes for one schema. Both schemas are
// identical; surrogate ids are schema-local and must never be compared
// across schemas (cross-schema matching is always by natural key).
//
// UNIQUE NULLS NOT DISTINCT keeps the conflict-skip inserts idempotent for
// rows whose natural key includes a null component (e.g. a reading whose
// plant id never resolved).
func schemaDDL(schema string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s.plant_origin (
    plant_origin_id BIGSERIAL PRIMARY KEY,
    latitude        DOUBLE PRECISION NOT NULL,
    longitude       DOUBLE PRECISION NOT NULL,
    country         TEXT,
    UNIQUE NULLS NOT DISTINCT (latitude, longitude, country)
);

CREATE TABLE IF NOT EXISTS %[1]s.plant (
    plant_id              BIGINT PRIMARY KEY,
    plant_name            TEXT NOT NULL,
    plant_scientific_name TEXT,
    plant_cycle           TEXT,
    plant_origin_id       BIGINT REFERENCES %[1]s.plant_origin (plant_origin_id)
);

CREATE TABLE IF NOT EXISTS %[1]s.botanist (
    botanist_id           BIGSERIAL PRIMARY KEY,
    botanist_name         TEXT NOT NULL UNIQUE,
    botanist_email        TEXT,
    botanist_phone_number TEXT
);

CREATE TABLE IF NOT EXISTS %[1]s.sun_condition (
    sun_condition_id   BIGSERIAL PRIMARY KEY,
    sun_condition_type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS %[1]s.shade_condition (
    shade_condition_id   BIGSERIAL PRIMARY KEY,
    shade_condition_type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS %[1]s.water_history (
    water_history_id BIGSERIAL PRIMARY KEY,
    time_watered     TIMESTAMPTZ NOT NULL,
    plant_id         BIGINT REFERENCES %[1]s.plant (plant_id),
    UNIQUE NULLS NOT DISTINCT (time_watered, plant_id)
);

CREATE TABLE IF NOT EXISTS %[1]s.reading (
    reading_id         BIGSERIAL PRIMARY KEY,
    plant_id           BIGINT REFERENCES %[1]s.plant (plant_id),
    plant_reading_time TIMESTAMPTZ NOT NULL,
    botanist_id        BIGINT REFERENCES %[1]s.botanist (botanist_id),
    temperature        DOUBLE PRECISION,
    soil_moisture      DOUBLE PRECISION,
    sun_condition_id   BIGINT REFERENCES %[1]s.sun_condition (sun_condition_id),
    shade_condition_id BIGINT REFERENCES %[1]s.shade_condition (shade_condition_id),
    UNIQUE NULLS NOT DISTINCT (plant_id, plant_reading_time)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_reading_time ON %[1]s.reading (plant_reading_time);
CREATE INDEX IF NOT EXISTS idx_%[1]s_water_history_time ON %[1]s.water_history (time_watered);
`, schema)
}
