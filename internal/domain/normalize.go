package domain

import "strings"

// NoInformation is the sentinel for a sun/shade condition that is missing or
// ambiguous. Ambiguity must never silently pick an arbitrary winner.
const NoInformation = "No Information"

// Flatten converts one raw nested record into a FlatRecord. It is a pure
// function and never fails: any missing or mistyped field yields a nil field.
func Flatten(raw RawRecord) FlatRecord {
	var flat FlatRecord

	if id, ok := raw.Int("plant_id"); ok {
		flat.PlantID = &id
	}
	if name, ok := raw.String("name"); ok {
		cleaned := cleanCurlyQuotes(name)
		flat.PlantName = &cleaned
	}
	if names, ok := raw.StringList("scientific_name"); ok {
		flat.ScientificNames = names
	}
	if cycle, ok := raw.String("cycle"); ok {
		flat.PlantCycle = &cycle
	}
	if watered, ok := raw.String("last_watered"); ok {
		flat.LastWatered = &watered
	}
	if recorded, ok := raw.String("recording_taken"); ok {
		flat.RecordingTime = &recorded
	}
	if temp, ok := raw.Float("temperature"); ok {
		flat.Temperature = &temp
	}
	if moisture, ok := raw.Float("soil_moisture"); ok {
		flat.SoilMoisture = &moisture
	}

	if botanist, ok := raw.Group("botanist"); ok {
		if name, ok := botanist.String("name"); ok {
			flat.BotanistName = &name
		}
		if email, ok := botanist.String("email"); ok {
			flat.BotanistEmail = &email
		}
		if phone, ok := botanist.String("phone"); ok {
			flat.BotanistPhone = &phone
		}
	}

	flat.OriginLatitude, flat.OriginLongitude, flat.OriginCountry = splitOriginLocation(raw)

	descriptors, _ := raw.StringList("sunlight")
	flat.SunCondition = ResolveCondition(descriptors, "sun")
	flat.ShadeCondition = ResolveCondition(descriptors, "shade")

	return flat
}

// ResolveCondition extracts the descriptor containing the given keyword from
// a list of free-text sunlight descriptors. Each descriptor is split on "/"
// into sub-tokens, and every sub-token containing the keyword
// (case-insensitively) is a candidate. Exactly one candidate is returned
// verbatim; multiple case-insensitively identical candidates collapse to the
// first. Zero candidates, or multiple conflicting ones, resolve to
// [NoInformation].
func ResolveCondition(descriptors []string, keyword string) string {
	var candidates []string
	for _, d := range descriptors {
		for _, token := range strings.Split(d, "/") {
			if strings.Contains(strings.ToLower(token), keyword) {
				candidates = append(candidates, token)
			}
		}
	}

	switch {
	case len(candidates) == 0:
		return NoInformation
	case len(candidates) == 1:
		return candidates[0]
	case allEqualFold(candidates):
		return candidates[0]
	default:
		return NoInformation
	}
}

func allEqualFold(values []string) bool {
	for _, v := range values[1:] {
		if !strings.EqualFold(v, values[0]) {
			return false
		}
	}
	return true
}

// splitOriginLocation reads the positional origin_location list: latitude at
// index 0, longitude at index 1, country as the trailing token. Lists shorter
// than three entries yield absent fields for the positions they lack.
func splitOriginLocation(raw RawRecord) (lat, lon, country *string) {
	tokens, ok := raw.StringList("origin_location")
	if !ok {
		return nil, nil, nil
	}
	if len(tokens) > 0 {
		lat = &tokens[0]
	}
	if len(tokens) > 1 {
		lon = &tokens[1]
	}
	if len(tokens) > 2 {
		country = &tokens[len(tokens)-1]
	}
	return lat, lon, country
}

// cleanCurlyQuotes replaces typographic single quotes with ASCII apostrophes
// so display names match across runs regardless of upstream encoding.
func cleanCurlyQuotes(s string) string {
	return strings.NewReplacer("‘", "'", "’", "'").Replace(s)
}
