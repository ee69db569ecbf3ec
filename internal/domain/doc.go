// Package domain models plant sensor readings fetched from the plant
// monitoring API, and implements the pure transformation core of the
// pipeline: record flattening, field normalization, and batch cleaning.
//
// # Data Source
//
// Readings originate from a per-plant HTTP API. Each tracked plant is fetched
// by its numeric identifier (GET /plants/{id} over a fixed id range); the
// response is a nested JSON object whose shape is only loosely stable. Nested
// groups (the botanist contact block, the origin_location list) may be absent
// entirely, and several fields change type between records. All access goes
// through [RawRecord]'s optional accessors: a missing or mistyped field reads
// as absent, never as an error.
//
// # Upstream Conventions
//
// Sunlight descriptors:
//
//	A list of free-text strings, e.g. ["Full sun", "part shade"]. A single
//	entry may pack several descriptors separated by "/" ("part sun/part shade").
//	Duplicated entries are common. [ResolveCondition] extracts the sun or
//	shade descriptor: exactly one candidate wins verbatim, duplicates collapse
//	to the first, and anything ambiguous resolves to the "No Information"
//	sentinel rather than picking an arbitrary winner.
//
// Origin location:
//
//	A positional string list: latitude first, longitude second, and the
//	country as the trailing token, e.g. ["5.27", "-3.59", "CI", "Abidjan",
//	"Africa"]. Lists shorter than expected yield absent coordinates.
//
// Timestamps:
//
//	last_watered uses an RFC-1123-style format ("Mon, 02 Jan 2006 15:04:05 MST"),
//	recording_taken uses "2006-01-02 15:04:05". The two are parsed
//	independently; either may be absent or malformed without affecting the
//	other.
//
// Contact fields:
//
//	Botanist email and phone arrive as free text. The canonical extraction
//	rules: email is the first match of `[\w.-]+@[\w.-]+`; phone is the first
//	10-digit run allowing dots, dashes, slashes, spaces, and parentheses as
//	separators, regrouped as NNN-NNN-NNNN. Unextractable values read as null.
//
// Temperature:
//
//	Degrees Celsius. Values outside [-40, 75] are sensor faults and are
//	nulled, not dropped; the reading row survives with a null temperature.
//
// # Cleaning Guarantees
//
// [CleanBatch] guarantees that every surviving record has a non-empty plant
// name and at least one temporal anchor (watering time or reading time).
// Text fields used as natural lookup keys (names, country, conditions, cycle)
// are lowercased so that conflict-tolerant inserts match consistently.
package domain
