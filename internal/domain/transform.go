package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// wateredTimeLayout matches the RFC-1123-style last_watered strings,
	// e.g. "Mon, 14 Jun 2024 13:23:01 GMT".
	wateredTimeLayout = "Mon, 02 Jan 2006 15:04:05 MST"

	// readingTimeLayout matches recording_taken, e.g. "2024-06-14 13:00:09".
	readingTimeLayout = "2006-01-02 15:04:05"

	// Temperatures outside this band (Celsius) are sensor faults.
	minTemperature = -40
	maxTemperature = 75
)

var (
	// emailRe extracts the first email-shaped token from a free-text
	// contact string, e.g. "Carl Linnaeus (carl@lnhm.co.uk)" -> "carl@lnhm.co.uk".
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

	// phoneRe matches a 10-digit phone number in its common upstream
	// encodings: "001-481-273-3691", "(541) 754 3010", "920.717.4581",
	// "9266126735". Digits are regrouped by normalizePhone afterwards.
	phoneRe = regexp.MustCompile(`\(?\d{3}[)./\- ]*\d{3}[)./\- ]*\d{4}`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// BatchStats reports what CleanBatch did to a batch: how many rows survived
// and why the rest were dropped or partially nulled.
type BatchStats struct {
	Input               int
	DroppedNoName       int
	DroppedNoTimestamps int
	Output              int

	EmailDefects       int
	PhoneDefects       int
	WateredDefects     int
	ReadingTimeDefects int
	TemperatureFaults  int
}

// CleanBatch applies the field-level cleaning ruleset to a batch of flattened
// records and returns the rows fit for relational loading. Stage order is
// significant: the completeness filter runs first, contact/temporal/numeric
// cleaning next, lookup-key lowercasing after that, and the temporal-anchor
// drop last. Per-field failures resolve to nil; per-row failures drop the
// row. The only fatal condition is a systemic one: a non-null geocoordinate
// that cannot be typed as a number.
func CleanBatch(records []FlatRecord) ([]CleanRecord, BatchStats, error) {
	stats := BatchStats{Input: len(records)}
	cleaned := make([]CleanRecord, 0, len(records))

	for i, rec := range records {
		// Row completeness: a record without a display name is unusable.
		if rec.PlantName == nil || strings.TrimSpace(*rec.PlantName) == "" {
			stats.DroppedNoName++
			continue
		}

		row := CleanRecord{
			PlantID:      rec.PlantID,
			PlantName:    *rec.PlantName,
			PlantCycle:   rec.PlantCycle,
			BotanistName: rec.BotanistName,
			Temperature:  rec.Temperature,
			SoilMoisture: rec.SoilMoisture,
		}

		row.BotanistEmail = extractEmail(rec.BotanistEmail)
		if rec.BotanistEmail != nil && row.BotanistEmail == nil {
			stats.EmailDefects++
		}
		row.BotanistPhone = extractPhone(rec.BotanistPhone)
		if rec.BotanistPhone != nil && row.BotanistPhone == nil {
			stats.PhoneDefects++
		}

		row.ScientificName = collapseScientificName(rec.ScientificNames)

		row.LastWatered = parseTimestamp(rec.LastWatered, wateredTimeLayout)
		if rec.LastWatered != nil && row.LastWatered == nil {
			stats.WateredDefects++
		}
		row.RecordingTime = parseTimestamp(rec.RecordingTime, readingTimeLayout)
		if rec.RecordingTime != nil && row.RecordingTime == nil {
			stats.ReadingTimeDefects++
		}

		var err error
		if row.Latitude, err = parseCoordinate(rec.OriginLatitude); err != nil {
			return nil, stats, fmt.Errorf("record %d: latitude: %w", i, err)
		}
		if row.Longitude, err = parseCoordinate(rec.OriginLongitude); err != nil {
			return nil, stats, fmt.Errorf("record %d: longitude: %w", i, err)
		}
		row.Country = rec.OriginCountry

		if rec.Temperature != nil && cleanTemperature(*rec.Temperature) == nil {
			stats.TemperatureFaults++
		}
		row.Temperature = cleanTemperaturePtr(rec.Temperature)

		row.SunCondition = rec.SunCondition
		row.ShadeCondition = rec.ShadeCondition
		lowerLookupKeys(&row)

		// Temporal anchors: a row with neither a watering time nor a
		// reading time cannot join any event table.
		if row.LastWatered == nil && row.RecordingTime == nil {
			stats.DroppedNoTimestamps++
			continue
		}

		cleaned = append(cleaned, row)
	}

	stats.Output = len(cleaned)
	return cleaned, stats, nil
}

// extractEmail pulls the first email address out of a raw contact string.
func extractEmail(raw *string) *string {
	if raw == nil {
		return nil
	}
	match := emailRe.FindString(*raw)
	if match == "" {
		return nil
	}
	return &match
}

// extractPhone pulls the first phone number out of a raw contact string and
// normalizes it to NNN-NNN-NNNN regardless of the upstream separator style.
func extractPhone(raw *string) *string {
	if raw == nil {
		return nil
	}
	match := phoneRe.FindString(*raw)
	if match == "" {
		return nil
	}
	normalized := normalizePhone(match)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func normalizePhone(match string) string {
	digits := nonDigitRe.ReplaceAllString(match, "")
	if len(digits) < 10 {
		return ""
	}
	// Keep the last ten digits: longer runs carry a country/trunk prefix.
	digits = digits[len(digits)-10:]
	return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
}

// collapseScientificName joins multiple upstream scientific names with ", ",
// unwraps a single one, and yields nil for a missing or empty list.
func collapseScientificName(names []string) *string {
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, ", ")
	return &joined
}

func parseTimestamp(raw *string, layout string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := time.Parse(layout, *raw)
	if err != nil {
		return nil
	}
	return &t
}

// parseCoordinate types a raw latitude/longitude string. A nil input stays
// nil; a non-nil value that is not numeric is a systemic type error.
func parseCoordinate(raw *string) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil, fmt.Errorf("coerce %q: %w", *raw, err)
	}
	return &v, nil
}

// cleanTemperature nulls readings outside the plausible sensor band.
func cleanTemperature(v float64) *float64 {
	if v < minTemperature || v > maxTemperature {
		return nil
	}
	return &v
}

func cleanTemperaturePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return cleanTemperature(*v)
}

// lowerLookupKeys lowercases the text fields used as natural lookup keys so
// conflict-tolerant inserts and cross-schema anti-joins match consistently.
func lowerLookupKeys(row *CleanRecord) {
	row.PlantName = strings.ToLower(row.PlantName)
	row.SunCondition = strings.ToLower(row.SunCondition)
	row.ShadeCondition = strings.ToLower(row.ShadeCondition)
	lowerPtr(&row.BotanistName)
	lowerPtr(&row.ScientificName)
	lowerPtr(&row.PlantCycle)
	lowerPtr(&row.Country)
}

func lowerPtr(s **string) {
	if *s == nil {
		return
	}
	lowered := strings.ToLower(**s)
	*s = &lowered
}
