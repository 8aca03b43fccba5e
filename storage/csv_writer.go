package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"carscout/models"
)

// RatingsCSVWriter exports the rated listings to a CSV report at the
// end of a run, for a quick look outside the database.
type RatingsCSVWriter struct {
	path string
}

// NewRatingsCSVWriter prepares the output directory for the report.
func NewRatingsCSVWriter(path string) (*RatingsCSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}
	return &RatingsCSVWriter{path: path}, nil
}

// WriteReport writes one row per rated advertisement. Ads without a
// rating are left out of the report.
func (w *RatingsCSVWriter) WriteReport(ads []*models.Listing, ratings map[string]*models.Rating) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{"title", "url", "price", "negotiable", "location", "posted_at", "score", "reasoning_low", "reasoning_high"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, ad := range ads {
		r, ok := ratings[ad.ID]
		if !ok {
			continue
		}
		row := []string{
			ad.Title,
			ad.URL,
			strconv.FormatFloat(ad.Price, 'f', 2, 64),
			ad.Negotiable,
			ad.Location,
			ad.PostedAt,
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			r.ReasoningLow,
			r.ReasoningHigh,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	return nil
}
