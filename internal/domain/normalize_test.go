package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCondition(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []string
		keyword     string
		expected    string
	}{
		{"single sun candidate", []string{"part sun", "part shade"}, "sun", "part sun"},
		{"duplicate sun candidates collapse", []string{"part sun", "part sun"}, "sun", "part sun"},
		{"conflicting split is ambiguous", []string{"part sun/full sun", "part shade"}, "sun", NoInformation},
		{"no sun candidates", []string{"part shade", "part shade"}, "sun", NoInformation},
		{"single shade candidate", []string{"part sun", "part shade"}, "shade", "part shade"},
		{"duplicate shade candidates collapse", []string{"part shade", "part shade"}, "shade", "part shade"},
		{"no shade candidates", []string{"part sun", "part sun"}, "shade", NoInformation},
		{"conflicting shade split", []string{"part sun", "part shade/filtered shade"}, "shade", NoInformation},
		{"case-insensitive duplicates keep first verbatim", []string{"Full Sun", "full sun"}, "sun", "Full Sun"},
		{"case preserved for single candidate", []string{"Full sun", "Part shade"}, "sun", "Full sun"},
		{"empty descriptor list", nil, "sun", NoInformation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveCondition(tt.descriptors, tt.keyword))
		})
	}
}

func TestFlatten(t *testing.T) {
	t.Run("complete record", func(t *testing.T) {
		raw := RawRecord{
			"plant_id":        float64(8),
			"name":            "Venus Flytrap",
			"scientific_name": []any{"Dionaea muscipula"},
			"cycle":           "Perennial",
			"last_watered":    "Mon, 14 Jun 2024 13:23:01 GMT",
			"recording_taken": "2024-06-14 13:00:09",
			"temperature":     11.5,
			"soil_moisture":   94.2,
			"sunlight":        []any{"Full sun", "Part shade"},
			"origin_location": []any{"5.27", "-3.59", "CI", "Abidjan", "Africa"},
			"botanist": map[string]any{
				"name":  "Carl Linnaeus",
				"email": "carl.linnaeus@lnhm.co.uk",
				"phone": "(146)994-1635x35992",
			},
		}

		flat := Flatten(raw)

		require.NotNil(t, flat.PlantID)
		assert.Equal(t, int64(8), *flat.PlantID)
		require.NotNil(t, flat.PlantName)
		assert.Equal(t, "Venus Flytrap", *flat.PlantName)
		assert.Equal(t, []string{"Dionaea muscipula"}, flat.ScientificNames)
		require.NotNil(t, flat.PlantCycle)
		assert.Equal(t, "Perennial", *flat.PlantCycle)
		require.NotNil(t, flat.BotanistName)
		assert.Equal(t, "Carl Linnaeus", *flat.BotanistName)
		require.NotNil(t, flat.OriginLatitude)
		assert.Equal(t, "5.27", *flat.OriginLatitude)
		require.NotNil(t, flat.OriginLongitude)
		assert.Equal(t, "-3.59", *flat.OriginLongitude)
		require.NotNil(t, flat.OriginCountry)
		assert.Equal(t, "Africa", *flat.OriginCountry)
		assert.Equal(t, "Full sun", flat.SunCondition)
		assert.Equal(t, "Part shade", flat.ShadeCondition)
		require.NotNil(t, flat.Temperature)
		assert.Equal(t, 11.5, *flat.Temperature)
	})

	t.Run("missing nested groups degrade to nil", func(t *testing.T) {
		raw := RawRecord{"plant_id": float64(3), "name": "Basil"}

		flat := Flatten(raw)

		assert.Nil(t, flat.BotanistName)
		assert.Nil(t, flat.BotanistEmail)
		assert.Nil(t, flat.BotanistPhone)
		assert.Nil(t, flat.OriginLatitude)
		assert.Nil(t, flat.OriginLongitude)
		assert.Nil(t, flat.OriginCountry)
		assert.Equal(t, NoInformation, flat.SunCondition)
		assert.Equal(t, NoInformation, flat.ShadeCondition)
	})

	t.Run("short origin list yields partial fields", func(t *testing.T) {
		raw := RawRecord{"name": "Fern", "origin_location": []any{"51.5"}}

		flat := Flatten(raw)

		require.NotNil(t, flat.OriginLatitude)
		assert.Equal(t, "51.5", *flat.OriginLatitude)
		assert.Nil(t, flat.OriginLongitude)
		assert.Nil(t, flat.OriginCountry)
	})

	t.Run("mistyped fields read as absent", func(t *testing.T) {
		raw := RawRecord{
			"plant_id":    "eight",
			"name":        float64(42),
			"temperature": "warm",
			"sunlight":    "full sun",
		}

		flat := Flatten(raw)

		assert.Nil(t, flat.PlantID)
		assert.Nil(t, flat.PlantName)
		assert.Nil(t, flat.Temperature)
		// A bare string sunlight field reads as a one-element list.
		assert.Equal(t, "full sun", flat.SunCondition)
	})

	t.Run("curly quotes normalized in name", func(t *testing.T) {
		raw := RawRecord{"name": "Bird’s Nest Fern"}

		flat := Flatten(raw)

		require.NotNil(t, flat.PlantName)
		assert.Equal(t, "Bird's Nest Fern", *flat.PlantName)
	})

	t.Run("scientific name accepts a bare string", func(t *testing.T) {
		raw := RawRecord{"name": "Aloe", "scientific_name": "Aloe vera"}

		flat := Flatten(raw)

		assert.Equal(t, []string{"Aloe vera"}, flat.ScientificNames)
	})
}

func TestRawRecordAccessors(t *testing.T) {
	raw := RawRecord{
		"int_field":    float64(7),
		"frac_field":   7.5,
		"str_field":    "hello",
		"null_field":   nil,
		"list_field":   []any{"a", float64(1), "b"},
		"group_field":  map[string]any{"inner": "value"},
		"wrong_group":  "not a map",
		"wrong_string": float64(3),
	}

	t.Run("int", func(t *testing.T) {
		v, ok := raw.Int("int_field")
		assert.True(t, ok)
		assert.Equal(t, int64(7), v)

		_, ok = raw.Int("frac_field")
		assert.False(t, ok)

		_, ok = raw.Int("missing")
		assert.False(t, ok)
	})

	t.Run("string", func(t *testing.T) {
		v, ok := raw.String("str_field")
		assert.True(t, ok)
		assert.Equal(t, "hello", v)

		_, ok = raw.String("null_field")
		assert.False(t, ok)

		_, ok = raw.String("wrong_string")
		assert.False(t, ok)
	})

	t.Run("string list skips non-strings", func(t *testing.T) {
		v, ok := raw.StringList("list_field")
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("group", func(t *testing.T) {
		g, ok := raw.Group("group_field")
		require.True(t, ok)
		inner, ok := g.String("inner")
		assert.True(t, ok)
		assert.Equal(t, "value", inner)

		_, ok = raw.Group("wrong_group")
		assert.False(t, ok)
	})
}
