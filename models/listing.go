package models

import "time"

// Negotiable markers stored in the advertisements table.
const (
	PriceFixed      = "Fix"
	PriceNegotiable = "Negotiable"
)

// Listing is the summary record extracted from a search-results page.
// URL is the identity key: a re-scrape of a known URL is a no-op, so a
// persisted listing is never updated in place.
type Listing struct {
	ID          string
	Title       string
	URL         string
	Price       float64
	Negotiable  string
	Location    string
	PostedAt    string // "DD-MM-YYYY HH:MM"
	Size        *float64
	Age         *int
	Kilometers  *int
	ListingType string
}

// ListingDetail is the richer record read from a listing's own page.
// Parameter values are one of: string, bool (bare presence flag), or
// map[string][]string for expandable feature groups. The record is
// transient — computed at rating time, never persisted on its own.
type ListingDetail struct {
	Description string
	Parameters  map[string]any
}

// EmptyDetail is what an unsupported site yields. The pipeline keeps
// going with it rather than treating the domain as an error.
func EmptyDetail() ListingDetail {
	return ListingDetail{Parameters: map[string]any{}}
}

// Rating is the aggregated AI score for one advertisement. Exactly one
// row exists per AdID; a later scoring run replaces the prior one.
type Rating struct {
	ID            string
	AdID          string
	Score         float64
	ReasoningLow  string
	ReasoningHigh string
	CreatedAt     time.Time
}

// Preferences holds the operator's free-text description of what a good
// listing looks like. Immutable for the duration of one run.
type Preferences struct {
	Description string
}

// RunReport holds the summary statistics printed at the end of a run.
type RunReport struct {
	TotalAds      int
	RatedAds      int
	AveragePrice  float64
	AverageScore  float64
	MinScore      float64
	MaxScore      float64
	BestAd        *Listing
	BestScore     float64
	AdsByLocation map[string]int
}
