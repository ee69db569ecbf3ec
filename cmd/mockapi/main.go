// Command mockapi serves a local stand-in for the plant sensor API. Each
// plant id returns a deterministic record; a fixed subset of ids reproduces
// the upstream's known failure modes (missing fields, mistyped values,
// error payloads, hard 500s) so the pipeline's skip-and-continue paths can
// be exercised without the real API.
//
// Usage:
//
//	go run ./cmd/mockapi -addr :9000 -plants 50
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"
)

var plantNames = []string{
	"Epipremnum Aureum", "Venus flytrap", "Corpse flower", "Rafflesia arnoldii",
	"Black bat flower", "Pitcher plant", "Wollemi pine", "Bird of paradise",
	"Cactus", "Dragon tree", "Asclepias Curassavica", "Brugmansia X Candida",
	"Canna ‘Striata’", "Colocasia Esculenta", "Cuphea ‘David Verity’",
	"Euphorbia Cotinifolia", "Ipomoea Batatas", "Manihot Esculenta ‘Variegata’",
	"Musa Basjoo", "Salvia Splendens", "Anthurium", "Bromeliad", "Calathea",
	"Croton", "Dieffenbachia", "Ficus", "Hibiscus", "Jasmine", "Kalanchoe", "Lily",
}

var scientificNames = map[string][]string{
	"Venus flytrap":         {"Dionaea muscipula"},
	"Corpse flower":         {"Amorphophallus titanum"},
	"Rafflesia arnoldii":    {"Rafflesia arnoldii"},
	"Black bat flower":      {"Tacca chantrieri"},
	"Pitcher plant":         {"Sarracenia catesbaei"},
	"Wollemi pine":          {"Wollemia nobilis"},
	"Bird of paradise":      {"Heliconia schiedeana 'Fire and Ice'"},
	"Epipremnum Aureum":     {"Epipremnum aureum"},
	"Asclepias Curassavica": {"Asclepias curassavica"},
}

var botanists = []map[string]any{
	{"name": "Gertrude Jekyll", "email": "gertrude.jekyll@lnhm.co.uk", "phone": "001-481-273-3691x127"},
	{"name": "Carl Linnaeus", "email": "carl.linnaeus@lnhm.co.uk", "phone": "(146)994-1635x35992"},
	{"name": "Eliza Andrews", "email": "eliza.andrews@lnhm.co.uk", "phone": "(846)669-6651x75948"},
}

var origins = [][]any{
	{"-19.32556", "-41.25528", "Resplendor", "BR", "America/Sao_Paulo"},
	{"33.95015", "-118.03917", "South Whittier", "US", "America/Los_Angeles"},
	{"7.65649", "4.92235", "Efon-Alaaye", "NG", "Africa/Lagos"},
	{"43.86682", "-79.2663", "Markham", "CA", "America/Toronto"},
	{"5.27247", "-3.59625", "Bonoua", "CI", "Africa/Abidjan"},
}

var sunlights = [][]string{
	{"full sun", "part shade"},
	{"part sun/part shade"},
	{"full sun"},
	{"filtered shade", "part shade"},
	{"Full sun", "full sun"},
}

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	plants := flag.Int("plants", 50, "highest plant id served")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /plants/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id < 0 || id > *plants {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "plant not found"}) //nolint:errcheck
			return
		}
		serveRecord(w, id, logger)
	})

	logger.Info("mock plant api listening", "addr", *addr, "plants", *plants)
	if err := http.ListenAndServe(*addr, mux); err != nil { //nolint:gosec // local test server
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serveRecord(w http.ResponseWriter, id int, logger *slog.Logger) {
	// Fixed failure ids keep broken-record handling reproducible across runs.
	switch id % 17 {
	case 7:
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "internal server error")
		return
	case 11:
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error":    "plant sensor fault",
			"plant_id": id,
		})
		return
	}

	record := buildRecord(id)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		logger.Error("encoding record", "plant_id", id, "error", err)
	}
}

// buildRecord assembles one plant reading. Most fields rotate through fixed
// pools keyed on the id; a few ids get deliberately degraded payloads.
func buildRecord(id int) map[string]any {
	now := time.Now().UTC()
	name := plantNames[id%len(plantNames)]
	origin := origins[id%len(origins)]

	record := map[string]any{
		"plant_id":        id,
		"name":            name,
		"cycle":           []string{"Perennial", "Annual", "Biennial"}[id%3],
		"botanist":        botanists[id%len(botanists)],
		"origin_location": origin,
		"sunlight":        sunlights[id%len(sunlights)],
		"last_watered":    now.Add(-time.Duration(id%36) * time.Hour).Format("Mon, 02 Jan 2006 15:04:05 GMT"),
		"recording_taken": now.Format("2006-01-02 15:04:05"),
		"temperature":     9.0 + float64(id%20) + float64(id%7)/10,
		"soil_moisture":   20.0 + float64(id*13%60),
	}
	if sci, ok := scientificNames[name]; ok {
		record["scientific_name"] = sci
	}

	// Degraded payloads mirroring real upstream misbehaviour.
	switch id % 13 {
	case 3:
		delete(record, "name") // dropped during cleaning
	case 5:
		record["temperature"] = -3568.25 // sensor fault, nulled during cleaning
	case 8:
		delete(record, "last_watered")
		delete(record, "recording_taken") // no temporal anchor, dropped
	case 9:
		record["scientific_name"] = "bare string instead of a list"
	case 12:
		record["botanist"] = "not an object"
	}

	return record
}
