// Package plantapi fetches raw plant records from the upstream monitoring API.
package plantapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/plant-sensor-etl/internal/domain"
)

// ErrSourceUnavailable is returned when no plant in the configured id range
// could be fetched: the whole source is treated as unreachable and the run
// is aborted (no partial load is attempted).
var ErrSourceUnavailable = errors.New("plant api: no plant could be fetched")

// Client fetches plant records by id from the upstream API.
// It implements pipeline.Extractor.
type Client struct {
	baseURL    string
	maxPlantID int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a plant API client covering ids 0..maxPlantID inclusive.
func NewClient(baseURL string, maxPlantID int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		maxPlantID: maxPlantID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchAll retrieves every plant in the id range. Individual failures
// (unreachable id, non-2xx status, malformed body, upstream error marker) are
// logged and skipped; FetchAll fails only when every id fails.
func (c *Client) FetchAll(ctx context.Context) ([]domain.RawRecord, error) {
	records := make([]domain.RawRecord, 0, c.maxPlantID+1)
	failures := 0

	for id := 0; id <= c.maxPlantID; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := c.fetchPlant(ctx, id)
		if err != nil {
			failures++
			c.logger.Warn("skipping plant", "plant_id", id, "error", err)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 && failures > 0 {
		return nil, fmt.Errorf("%w: %d failures over ids 0..%d", ErrSourceUnavailable, failures, c.maxPlantID)
	}

	c.logger.Info("fetched plant records", "fetched", len(records), "skipped", failures)
	return records, nil
}

func (c *Client) fetchPlant(ctx context.Context, id int) (domain.RawRecord, error) {
	url := fmt.Sprintf("%s/plants/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch plant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var record domain.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	// The upstream returns 200 with an error marker body for retired ids.
	if marker, ok := record.String("error"); ok {
		return nil, fmt.Errorf("upstream error marker: %s", marker)
	}

	return record, nil
}
