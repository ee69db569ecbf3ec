package domain

import (
	"encoding/json"
	"time"
)

// RawRecord is one nested, untyped plant record as returned by the upstream
// API. Field access goes through the optional accessors below, which apply a
// single policy uniformly: a missing key, a null value, or a value of the
// wrong type all read as absent.
type RawRecord map[string]any

// String reads a string field.
func (r RawRecord) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int reads an integer field. JSON numbers decode as float64; values with a
// fractional part are not integers and read as absent.
func (r RawRecord) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// Float reads a numeric field.
func (r RawRecord) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// StringList reads a list-of-strings field. A bare string reads as a
// single-element list; non-string list entries are skipped.
func (r RawRecord) StringList(key string) ([]string, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	switch l := v.(type) {
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	case []string:
		return l, true
	case string:
		return []string{l}, true
	}
	return nil, false
}

// Group reads a nested object field.
func (r RawRecord) Group(key string) (RawRecord, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return RawRecord(m), true
	case RawRecord:
		return m, true
	}
	return nil, false
}

// FlatRecord is the output of [Flatten]: one raw record with the nesting
// removed and the ambiguous multi-value fields resolved. Contact and temporal
// fields are still raw strings; typing happens in [CleanBatch].
type FlatRecord struct {
	PlantID         *int64
	PlantName       *string
	ScientificNames []string
	PlantCycle      *string

	BotanistName  *string
	BotanistEmail *string
	BotanistPhone *string

	LastWatered   *string
	RecordingTime *string

	OriginLatitude  *string
	OriginLongitude *string
	OriginCountry   *string

	Temperature  *float64
	SoilMoisture *float64

	SunCondition   string
	ShadeCondition string
}

// CleanRecord is one fully cleaned, typed row ready for relational loading.
// Every CleanRecord has a non-empty PlantName and at least one of LastWatered
// and RecordingTime; all other fields may be nil.
type CleanRecord struct {
	PlantID        *int64
	PlantName      string
	ScientificName *string
	PlantCycle     *string

	BotanistName  *string
	BotanistEmail *string
	BotanistPhone *string

	LastWatered   *time.Time
	RecordingTime *time.Time

	Latitude  *float64
	Longitude *float64
	Country   *string

	Temperature  *float64
	SoilMoisture *float64

	SunCondition   string
	ShadeCondition string
}

// TableResult reports the outcome of one table's load or migration step.
// Steps commit independently; a failed step leaves earlier tables loaded
// (accepted partial-failure mode, re-attempted by the next idempotent run).
type TableResult struct {
	Table string
	Rows  int64
	Err   error
}

// PruneResult reports how many short-term fact rows a retention pass
// deleted per table.
type PruneResult struct {
	Readings  int64
	Waterings int64
}

// ReadingSummary is the denormalized read shape consumed by the dashboard.
// Column naming is part of the external contract and must stay stable.
type ReadingSummary struct {
	PlantName      string     `json:"plant_name"`
	ScientificName *string    `json:"plant_scientific_name"`
	ReadingTime    time.Time  `json:"plant_reading_time"`
	Temperature    *float64   `json:"temperature"`
	SoilMoisture   *float64   `json:"soil_moisture"`
	SunCondition   *string    `json:"sun_condition"`
	ShadeCondition *string    `json:"shade_condition"`
	BotanistName   *string    `json:"botanist_name"`
	BotanistEmail  *string    `json:"botanist_email"`
	BotanistPhone  *string    `json:"botanist_phone_number"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Country        *string    `json:"country"`
	LastWatered    *time.Time `json:"last_watered,omitempty"`
}
