// Package scraper dispatches listing URLs to per-site extractors.
// Adding a marketplace means adding a variant to the registry, not
// editing a branch chain.
package scraper

import (
	"carscout/models"
	"carscout/renderer"
	"carscout/scraper/autovit"
	"carscout/scraper/olx"
	"carscout/scraper/storia"
	"carscout/utils"
)

// Extractor turns a rendered ad page into a structured detail record.
type Extractor interface {
	Matches(url string) bool
	ExtractDetail(url string, r renderer.Renderer) (models.ListingDetail, error)
}

// Registry holds the closed set of known site variants.
type Registry struct {
	logger *utils.Logger
	sites  []Extractor
}

// NewRegistry wires up all supported marketplaces.
func NewRegistry(logger *utils.Logger) *Registry {
	return &Registry{
		logger: logger,
		sites: []Extractor{
			olx.New(logger),
			storia.New(logger),
			autovit.New(logger),
		},
	}
}

// ExtractorFor returns the extractor matching the URL's domain, if any.
func (reg *Registry) ExtractorFor(url string) (Extractor, bool) {
	for _, site := range reg.sites {
		if site.Matches(url) {
			return site, true
		}
	}
	return nil, false
}

// ExtractDetail runs the extractor matching the URL's domain. An
// unrecognized domain yields an empty detail record and no error, so
// the pipeline keeps going for partially-supported catalogs.
func (reg *Registry) ExtractDetail(url string, r renderer.Renderer) (models.ListingDetail, error) {
	site, ok := reg.ExtractorFor(url)
	if !ok {
		reg.logger.Warn("[scraper] Unsupported website: %s", url)
		return models.EmptyDetail(), nil
	}
	return site.ExtractDetail(url, r)
}
