package storia

import (
	"fmt"
	"strings"
	"time"

	"carscout/models"
	"carscout/renderer"
	"carscout/utils"
)

// Extractor handles storia.ro ad detail pages. Storia exposes no
// structured parameter blocks worth reading; only the free-text
// description is extracted.
type Extractor struct {
	logger      *utils.Logger
	waitTimeout time.Duration
}

// New creates a storia.ro Extractor.
func New(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger, waitTimeout: 10 * time.Second}
}

// Matches reports whether the URL belongs to storia.ro.
func (e *Extractor) Matches(u string) bool {
	return strings.Contains(u, "storia.ro")
}

// ExtractDetail reads the ad description once it renders.
func (e *Extractor) ExtractDetail(adURL string, r renderer.Renderer) (models.ListingDetail, error) {
	detail := models.EmptyDetail()

	if err := r.Navigate(adURL); err != nil {
		return detail, fmt.Errorf("storia: navigate %s: %w", adURL, err)
	}
	if err := r.WaitVisible(`[data-cy="adPageAdDescription"]`, e.waitTimeout); err != nil {
		return detail, fmt.Errorf("storia: description never appeared on %s: %w", adURL, err)
	}

	detail.Description = utils.OrDefault(func() (string, error) {
		return r.Text(`[data-cy="adPageAdDescription"] span`)
	}, "")
	if detail.Description == "" {
		detail.Description = utils.OrDefault(func() (string, error) {
			return r.Text(`[data-cy="adPageAdDescription"]`)
		}, "")
	}

	return detail, nil
}
