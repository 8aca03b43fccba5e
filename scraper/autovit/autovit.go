package autovit

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"carscout/models"
	"carscout/renderer"
	"carscout/utils"
)

// Extractor handles autovit.ro ad detail pages: free-text description,
// seller type, spec tables, and the collapsible equipment groups that
// only render their items after a synthetic click.
type Extractor struct {
	logger      *utils.Logger
	waitTimeout time.Duration
	settleDelay time.Duration
	retry       *utils.RetryConfig
}

// New creates an autovit.ro Extractor.
func New(logger *utils.Logger) *Extractor {
	return &Extractor{
		logger:      logger,
		waitTimeout: 10 * time.Second,
		settleDelay: 500 * time.Millisecond,
		retry: &utils.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

// Matches reports whether the URL belongs to autovit.ro.
func (e *Extractor) Matches(u string) bool {
	return strings.Contains(u, "autovit.ro")
}

// ExtractDetail reads the description, then best-effort reads each
// structured block behind its own failure boundary.
func (e *Extractor) ExtractDetail(adURL string, r renderer.Renderer) (models.ListingDetail, error) {
	detail := models.EmptyDetail()

	if err := r.Navigate(adURL); err != nil {
		return detail, fmt.Errorf("autovit: navigate %s: %w", adURL, err)
	}
	if err := r.WaitVisible(`[data-testid="textWrapper"]`, e.waitTimeout); err != nil {
		return detail, fmt.Errorf("autovit: description never appeared on %s: %w", adURL, err)
	}

	detail.Description = utils.OrDefault(func() (string, error) {
		return r.Text(`[data-testid="textWrapper"]`)
	}, "")

	e.readSellerType(r, detail.Parameters)
	e.expandFeatureGroups(r)

	html, err := r.HTML()
	if err != nil {
		e.logger.Warn("[autovit] Could not read page source of %s: %v", adURL, err)
		return detail, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail, nil
	}

	e.readSpecTable(doc, `[data-testid="basic_information"]`, detail.Parameters)
	e.readSpecTable(doc, `[data-testid="collapsible-groups-wrapper"]`, detail.Parameters)
	e.readFeatureGroups(doc, detail.Parameters)

	return detail, nil
}

// readSellerType retries a few times; the seller badge renders late on
// some ads. Failing all attempts yields the "Unknown" placeholder.
func (e *Extractor) readSellerType(r renderer.Renderer, params map[string]any) {
	var seller string
	err := e.retry.Do("autovit-seller-type", func() error {
		text, err := r.Text(`.ooa-70qvj9 .ooa-1hl3hwd`)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("seller badge empty")
		}
		seller = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		seller = "Unknown"
	}
	params["seller_type"] = seller
}

// expandFeatureGroups clicks every collapsed equipment section so the
// item lists exist in the DOM, then lets the expand animation settle.
func (e *Extractor) expandFeatureGroups(r renderer.Renderer) {
	n, err := r.ExpandAll(`.ooa-xve46n button[aria-expanded="false"]`)
	if err != nil {
		e.logger.Debug("[autovit] Could not expand feature groups: %v", err)
		return
	}
	if n > 0 {
		e.logger.Debug("[autovit] Expanded %d feature groups", n)
		time.Sleep(e.settleDelay)
	}
}

// readSpecTable collects the label/value rows of a spec container.
func (e *Extractor) readSpecTable(doc *goquery.Document, containerSel string, params map[string]any) {
	doc.Find(containerSel).Find(`[data-testid]`).Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find(".eur4qwl8").First().Text())
		value := strings.TrimSpace(row.Find(".eur4qwl9").First().Text())
		if label != "" && value != "" {
			params[label] = value
		}
	})
}

// readFeatureGroups collects the per-section equipment lists under the
// "Dotari" key, matching the shape of the OLX feature groups.
func (e *Extractor) readFeatureGroups(doc *goquery.Document, params map[string]any) {
	features := make(map[string][]string)

	doc.Find(`.ooa-xve46n`).Each(func(_ int, section *goquery.Selection) {
		name := strings.TrimSpace(section.Find("button h3, button p").First().Text())
		if name == "" {
			return
		}
		var items []string
		section.Find("li, p.e1jq34to3").Each(func(_ int, item *goquery.Selection) {
			text := strings.TrimSpace(item.Text())
			if text != "" && text != name {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			features[name] = items
		}
	})

	if len(features) > 0 {
		params["Dotari"] = features
	}
}
