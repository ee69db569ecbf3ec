// Command validate runs a raw plant API snapshot through the full cleaning
// path without touching a database. It reports per-stage counts and field
// defect totals, then checks the cleaned batch against the invariants the
// loader depends on. Useful for vetting a captured snapshot before wiring it
// into tests, and for eyeballing what a schema drift upstream would do to
// the pipeline.
//
// The input file holds a JSON array of raw records, one per plant id, as
// returned by the API.
//
// Usage:
//
//	go run ./cmd/validate -input snapshot.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

func main() {
	input := flag.String("input", "", "path to a JSON array of raw plant records")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*input); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}

	var raw []domain.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse snapshot: %v\n", err)
		return 1
	}

	flat := make([]domain.FlatRecord, len(raw))
	for i, r := range raw {
		flat[i] = domain.Flatten(r)
	}

	cleaned, stats, err := domain.CleanBatch(flat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: batch cleaning aborted: %v\n", err)
		return 1
	}

	printStats(stats)

	problems := checkInvariants(cleaned)
	if len(problems) > 0 {
		fmt.Printf("\n%d invariant violation(s):\n", len(problems))
		for i, p := range problems {
			fmt.Printf("  [%d] %s\n", i+1, p)
		}
		return 1
	}

	fmt.Println("\nAll cleaned rows satisfy loader invariants.")
	return 0
}

func printStats(stats domain.BatchStats) {
	fmt.Println("=== Plant Snapshot Validation ===")
	fmt.Println()
	fmt.Printf("Input rows:              %d\n", stats.Input)
	fmt.Printf("Dropped (no name):       %d\n", stats.DroppedNoName)
	fmt.Printf("Dropped (no timestamps): %d\n", stats.DroppedNoTimestamps)
	fmt.Printf("Output rows:             %d\n", stats.Output)
	fmt.Println()
	fmt.Println("Field defects nulled during cleaning:")
	fmt.Printf("  email:        %d\n", stats.EmailDefects)
	fmt.Printf("  phone:        %d\n", stats.PhoneDefects)
	fmt.Printf("  last_watered: %d\n", stats.WateredDefects)
	fmt.Printf("  reading_time: %d\n", stats.ReadingTimeDefects)
	fmt.Printf("  temperature:  %d\n", stats.TemperatureFaults)
}

// checkInvariants verifies the guarantees CleanBatch makes to the loader:
// non-empty names, at least one temporal anchor, lowercased lookup keys,
// in-range temperatures, and normalized phone shapes.
func checkInvariants(rows []domain.CleanRecord) []string {
	var problems []string
	errorf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for i, row := range rows {
		if row.PlantName == "" {
			errorf("row %d: empty plant name", i)
		}
		if row.PlantName != strings.ToLower(row.PlantName) {
			errorf("row %d: plant name %q not lowercased", i, row.PlantName)
		}
		if row.LastWatered == nil && row.RecordingTime == nil {
			errorf("row %d: no temporal anchor survived cleaning", i)
		}
		if row.Temperature != nil && (*row.Temperature < -40 || *row.Temperature > 75) {
			errorf("row %d: temperature %g outside plausible range", i, *row.Temperature)
		}
		if row.BotanistPhone != nil && !phoneShapeOK(*row.BotanistPhone) {
			errorf("row %d: phone %q not in NNN-NNN-NNNN form", i, *row.BotanistPhone)
		}
		if row.BotanistEmail != nil && !strings.Contains(*row.BotanistEmail, "@") {
			errorf("row %d: email %q has no @", i, *row.BotanistEmail)
		}
	}
	return problems
}

func phoneShapeOK(phone string) bool {
	parts := strings.Split(phone, "-")
	if len(parts) != 3 || len(parts[0]) != 3 || len(parts[1]) != 3 || len(parts[2]) != 4 {
		return false
	}
	for _, p := range parts {
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
