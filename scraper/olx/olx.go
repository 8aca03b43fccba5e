package olx

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"carscout/models"
	"carscout/renderer"
	"carscout/services"
	"carscout/utils"
)

const listingType = "car"

// CardSelectors are tried in order when locating ad cards on a results
// page; the first one that matches anything wins, which tolerates the
// periodic markup drift of the obfuscated class names.
var CardSelectors = []string{
	`div[data-cy="l-card"]`,
	`div[data-testid="l-card"]`,
	`div.css-l9drzq`,
}

var titleSelectors = []string{`h4.css-1g61gc2`, `h4`, `h6`}

// Extractor handles olx.ro search-results grids and ad detail pages.
type Extractor struct {
	logger      *utils.Logger
	waitTimeout time.Duration
	now         func() time.Time
}

// New creates an olx.ro Extractor.
func New(logger *utils.Logger) *Extractor {
	return &Extractor{
		logger:      logger,
		waitTimeout: 10 * time.Second,
		now:         time.Now,
	}
}

// Matches reports whether the URL belongs to olx.ro.
func (e *Extractor) Matches(u string) bool {
	return strings.Contains(u, "olx.ro")
}

// ExtractSummaries parses a rendered results page into listing records.
// A card missing a title, price, or URL is skipped and logged; one bad
// card never aborts the batch.
func (e *Extractor) ExtractSummaries(html, pageURL string) []*models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Error("[olx] Could not parse page HTML: %v", err)
		return nil
	}

	var cards *goquery.Selection
	for _, sel := range CardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			e.logger.Debug("[olx] Found %d cards with selector %s", found.Length(), sel)
			cards = found
			break
		}
	}
	if cards == nil {
		e.logger.Warn("[olx] No ad cards found — blocked, or page structure changed")
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var listings []*models.Listing
	cards.Each(func(_ int, card *goquery.Selection) {
		if l := e.extractCard(card, base); l != nil {
			listings = append(listings, l)
		}
	})

	return listings
}

func (e *Extractor) extractCard(card *goquery.Selection, base *url.URL) *models.Listing {
	var title string
	for _, sel := range titleSelectors {
		if title = strings.TrimSpace(card.Find(sel).First().Text()); title != "" {
			break
		}
	}
	if title == "" {
		e.logger.Debug("[olx] Card without title, skipping")
		return nil
	}

	rawPrice := strings.TrimSpace(card.Find(`p[data-testid="ad-price"]`).First().Text())
	if rawPrice == "" {
		e.logger.Debug("[olx] Card %q without price, skipping", title)
		return nil
	}
	price, negotiable, err := services.ParsePrice(rawPrice)
	if err != nil {
		e.logger.Debug("[olx] Card %q with unreadable price %q, skipping", title, rawPrice)
		return nil
	}

	href, ok := card.Find(`a.css-1tqlkj0`).First().Attr("href")
	if !ok {
		href, ok = card.Find("a[href]").First().Attr("href")
	}
	if !ok || href == "" {
		e.logger.Debug("[olx] Card %q without URL, skipping", title)
		return nil
	}
	adURL := resolveURL(href, base)

	location, postedAt := e.splitLocationDate(card)
	age, kilometers := services.ParseAgeKilometers(
		strings.Fields(card.Find("span.css-6as4g5").First().Text()))

	return &models.Listing{
		Title:       title,
		URL:         adURL,
		Price:       price,
		Negotiable:  negotiable,
		Location:    location,
		PostedAt:    postedAt,
		Age:         age,
		Kilometers:  kilometers,
		ListingType: listingType,
	}
}

// splitLocationDate splits the combined "Cluj-Napoca - Azi la 14:30"
// block. Missing or unparseable fragments fall back to "N/A" and the
// current date rather than failing the card.
func (e *Extractor) splitLocationDate(card *goquery.Selection) (string, string) {
	now := e.now()
	location := "N/A"
	postedAt := now.Format("02-01-2006") + " 00:00"

	text := strings.TrimSpace(card.Find(`p[data-testid="location-date"]`).First().Text())
	if text == "" {
		return location, postedAt
	}

	parts := strings.SplitN(text, " - ", 2)
	location = strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return location, postedAt
	}

	if parsed, err := services.ParseRomanianDate(parts[1], now); err == nil {
		postedAt = parsed
	} else {
		e.logger.Debug("[olx] Unreadable date %q, using current date", parts[1])
	}
	return location, postedAt
}

// ExtractDetail visits an ad page and reads the description plus the
// best-effort parameter blocks. Each block sits in its own failure
// boundary: an unreadable block yields a placeholder, not an error.
func (e *Extractor) ExtractDetail(adURL string, r renderer.Renderer) (models.ListingDetail, error) {
	detail := models.EmptyDetail()

	if err := r.Navigate(adURL); err != nil {
		return detail, fmt.Errorf("olx: navigate %s: %w", adURL, err)
	}
	if err := r.WaitVisible(`[data-cy="ad_description"]`, e.waitTimeout); err != nil {
		return detail, fmt.Errorf("olx: description never appeared on %s: %w", adURL, err)
	}

	detail.Description = utils.OrDefault(func() (string, error) {
		return r.Text(`[data-cy="ad_description"] div`)
	}, "")

	html, err := r.HTML()
	if err != nil {
		// Parameters are best-effort; the description alone is usable.
		e.logger.Warn("[olx] Could not read page source of %s: %v", adURL, err)
		return detail, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail, nil
	}

	e.readParameters(doc, detail.Parameters)
	e.readFeatures(doc, detail.Parameters)

	return detail, nil
}

func (e *Extractor) readParameters(doc *goquery.Document, params map[string]any) {
	container := doc.Find(`[data-testid="ad-parameters-container"]`)

	seller := strings.TrimSpace(container.Find("p").First().Text())
	if seller == "" {
		seller = "Unknown"
	}
	params["seller_type"] = seller

	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		if key, value, found := strings.Cut(text, ":"); found {
			params[strings.TrimSpace(key)] = strings.TrimSpace(value)
		} else {
			// Bare flags like "Persoana fizica"
			params[text] = true
		}
	})
}

func (e *Extractor) readFeatures(doc *goquery.Document, params map[string]any) {
	features := make(map[string][]string)

	doc.Find(`[data-testid="ad-features"]`).Each(func(_ int, section *goquery.Selection) {
		name := strings.TrimSpace(section.Find("h3").First().Text())
		if name == "" {
			return
		}
		var items []string
		section.Find("li").Each(func(_ int, li *goquery.Selection) {
			if item := strings.TrimSpace(li.Text()); item != "" {
				items = append(items, item)
			}
		})
		if len(items) > 0 {
			features[name] = items
		}
	})

	if len(features) > 0 {
		params["Features"] = features
	}
}

func resolveURL(href string, base *url.URL) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if base != nil {
		if ref, err := url.Parse(href); err == nil {
			return base.ResolveReference(ref).String()
		}
	}
	return "https://www.olx.ro" + href
}
