// Package pipeline sequences the whole run: scrape every results page,
// then fetch and rate every unscored, in-budget advertisement.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"carscout/config"
	"carscout/models"
	"carscout/renderer"
	"carscout/scraper"
	"carscout/scraper/olx"
	"carscout/services"
	"carscout/storage"
	"carscout/utils"
)

// listingRater scores one listing; satisfied by services.Rater and by
// test stubs.
type listingRater interface {
	Rate(ctx context.Context, listing *models.Listing, detail models.ListingDetail, prefs models.Preferences) (float64, string, string)
}

// Pipeline drives the Scraping → Rating → Done run. Strictly
// sequential: one renderer session alive at a time, acquired per page
// or per detail visit and always released before the next one.
type Pipeline struct {
	cfg    *config.Config
	store  storage.Store
	logger *utils.Logger

	rater listingRater
	sites *scraper.Registry
	grid  *olx.Extractor
	seen  *utils.URLSet

	openSession func() (renderer.Renderer, error)
	pageDelay   time.Duration
}

// New wires a Pipeline from the config.
func New(cfg *config.Config, store storage.Store, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		logger: logger,
		rater:  services.NewRater(cfg, logger),
		sites:  scraper.NewRegistry(logger),
		grid:   olx.New(logger),
		seen:   utils.NewURLSet(),
		openSession: func() (renderer.Renderer, error) {
			return renderer.New(cfg)
		},
		pageDelay: time.Duration(cfg.PageDelayMs) * time.Millisecond,
	}
}

// Run executes both phases and prints the summary. Nothing inside the
// listing loops is fatal; errors surface in the logs.
func (p *Pipeline) Run(ctx context.Context) error {
	p.Scrape(ctx)

	if err := p.RateAll(ctx); err != nil {
		return err
	}

	p.report()
	return nil
}

// Scrape walks the results pages. A bad page is logged and the loop
// moves on; a politeness delay separates page loads.
func (p *Pipeline) Scrape(ctx context.Context) {
	p.logger.Info("[pipeline] Scraping %d pages from %s", p.cfg.MaxPages, p.cfg.BaseURL)

	for page := 1; page <= p.cfg.MaxPages; page++ {
		stored, err := p.scrapePage(ctx, page)
		if err != nil {
			p.logger.Error("[pipeline] Page %d failed: %v", page, err)
		} else {
			p.logger.Info("[pipeline] Page %d done — %d new advertisements", page, stored)
		}

		if page < p.cfg.MaxPages {
			time.Sleep(p.pageDelay)
		}
	}

	p.logger.Info("[pipeline] Scraping done — %d unique listings seen", p.seen.Size())
}

func (p *Pipeline) scrapePage(ctx context.Context, page int) (int, error) {
	pageURL := p.cfg.BaseURL + strconv.Itoa(page)

	sess, err := p.openSession()
	if err != nil {
		return 0, fmt.Errorf("open renderer: %w", err)
	}
	defer sess.Close()

	// One refresh retry when no recognizable content appears in time.
	retry := &utils.RetryConfig{MaxAttempts: 2, BaseDelay: 2 * time.Second, Logger: p.logger}
	navigated := false
	err = retry.Do(fmt.Sprintf("load-page-%d", page), func() error {
		if !navigated {
			navigated = true
			if err := sess.Navigate(pageURL); err != nil {
				return err
			}
		} else if err := sess.Reload(); err != nil {
			return err
		}
		return p.waitForCards(sess)
	})
	if err != nil {
		return 0, err
	}

	html, err := sess.HTML()
	if err != nil {
		return 0, fmt.Errorf("read page source: %w", err)
	}

	listings := p.grid.ExtractSummaries(html, pageURL)
	if len(listings) == 0 {
		p.logger.Warn("[pipeline] Page %d yielded no listings", page)
		return 0, nil
	}

	stored := 0
	for _, l := range listings {
		if !p.seen.Add(l.URL) {
			continue
		}

		exists, err := p.store.HasAd(l.URL)
		if err != nil {
			p.logger.Error("[pipeline] Duplicate check failed for %s: %v", l.URL, err)
			continue
		}
		if exists {
			p.logger.Debug("[pipeline] Already stored, skipping %s", l.URL)
			continue
		}

		if err := p.store.InsertAd(l); err != nil {
			p.logger.Error("[pipeline] Insert failed for %s: %v", l.URL, err)
			continue
		}
		stored++
	}

	return stored, nil
}

func (p *Pipeline) waitForCards(sess renderer.Renderer) error {
	timeout := time.Duration(p.cfg.WaitTimeoutS) * time.Second
	for _, sel := range olx.CardSelectors {
		if err := sess.WaitVisible(sel, timeout); err == nil {
			p.logger.Debug("[pipeline] Found content with selector %s", sel)
			return nil
		}
	}
	return fmt.Errorf("no ad cards appeared within %v", timeout)
}

// RateAll scores every stored advertisement that has no rating yet and
// sits inside the [MinPrice, MaxPrice] budget (inclusive). Per-listing
// failures are logged and skipped.
func (p *Pipeline) RateAll(ctx context.Context) error {
	ads, err := p.store.ListAds()
	if err != nil {
		return fmt.Errorf("pipeline: load advertisements: %w", err)
	}

	prefs := models.Preferences{Description: p.cfg.Preferences}
	p.logger.Info("[pipeline] Rating phase — %d advertisements stored", len(ads))

	processed, skipped := 0, 0
	for _, ad := range ads {
		existing, err := p.store.GetRating(ad.ID)
		if err != nil {
			p.logger.Error("[pipeline] Rating lookup failed for %s: %v", ad.URL, err)
			continue
		}
		if existing != nil {
			p.logger.Debug("[pipeline] Already rated %.2f, skipping %s", existing.Score, ad.URL)
			continue
		}

		if ad.Price < p.cfg.MinPrice || ad.Price > p.cfg.MaxPrice {
			skipped++
			continue
		}

		detail, err := p.fetchDetail(ad.URL)
		if err != nil {
			p.logger.Warn("[pipeline] Skipping %s due to scraping issues: %v", ad.URL, err)
			continue
		}

		score, low, high := p.rater.Rate(ctx, ad, detail, prefs)
		if err := p.store.SaveRating(&models.Rating{
			AdID:          ad.ID,
			Score:         score,
			ReasoningLow:  low,
			ReasoningHigh: high,
		}); err != nil {
			p.logger.Error("[pipeline] Saving rating failed for %s: %v", ad.URL, err)
			continue
		}

		processed++
		p.logger.Info("[pipeline] %s — %.2f/10", ad.URL, score)
	}

	p.logger.Info("[pipeline] Rating done — %d rated, %d outside budget", processed, skipped)
	return nil
}

// fetchDetail visits a listing's own page through a fresh renderer
// session, released on every exit path. Unsupported domains never open
// a session; they rate on the summary alone.
func (p *Pipeline) fetchDetail(url string) (models.ListingDetail, error) {
	ext, ok := p.sites.ExtractorFor(url)
	if !ok {
		p.logger.Warn("[pipeline] Unsupported website: %s", url)
		return models.EmptyDetail(), nil
	}

	sess, err := p.openSession()
	if err != nil {
		return models.EmptyDetail(), fmt.Errorf("open renderer: %w", err)
	}
	defer sess.Close()

	return ext.ExtractDetail(url, sess)
}

// report prints the run summary and writes the CSV ratings export.
func (p *Pipeline) report() {
	ads, err := p.store.ListAds()
	if err != nil {
		p.logger.Error("[pipeline] Could not load advertisements for report: %v", err)
		return
	}

	ratings := make(map[string]*models.Rating, len(ads))
	for _, ad := range ads {
		r, err := p.store.GetRating(ad.ID)
		if err != nil || r == nil {
			continue
		}
		ratings[ad.ID] = r
	}

	reporter := services.NewReportService(p.logger)
	reporter.Print(reporter.Generate(ads, ratings))

	csvWriter, err := storage.NewRatingsCSVWriter(p.cfg.CSVOutputPath)
	if err != nil {
		p.logger.Error("[pipeline] CSV report unavailable: %v", err)
		return
	}
	if err := csvWriter.WriteReport(ads, ratings); err != nil {
		p.logger.Error("[pipeline] CSV report failed: %v", err)
		return
	}
	p.logger.Info("[pipeline] Ratings report written to %s", p.cfg.CSVOutputPath)
}
