package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carscout/config"
	"carscout/models"
	"carscout/renderer"
	"carscout/storage"
	"carscout/utils"
)

type fakeSession struct {
	html string
}

func (f *fakeSession) Navigate(string) error                     { return nil }
func (f *fakeSession) Reload() error                             { return nil }
func (f *fakeSession) WaitVisible(string, time.Duration) error   { return nil }
func (f *fakeSession) Text(string) (string, error)               { return "", errors.New("no element") }
func (f *fakeSession) Attribute(string, string) (string, error)  { return "", errors.New("no element") }
func (f *fakeSession) Click(string) error                        { return nil }
func (f *fakeSession) ExpandAll(string) (int, error)             { return 0, nil }
func (f *fakeSession) HTML() (string, error)                     { return f.html, nil }
func (f *fakeSession) Close()                                    {}

type stubRater struct {
	calls int
	score float64
}

func (s *stubRater) Rate(context.Context, *models.Listing, models.ListingDetail, models.Preferences) (float64, string, string) {
	s.calls++
	return s.score, "low", "high"
}

const gridHTML = `<html><body>
<div data-cy="l-card">
  <h4 class="css-1g61gc2">Dacia Logan</h4>
  <p data-testid="ad-price">3.000 €</p>
  <a class="css-1tqlkj0" href="https://www.olx.ro/d/oferta/logan.html">link</a>
</div>
<div data-cy="l-card">
  <h4 class="css-1g61gc2">BMW 320d</h4>
  <p data-testid="ad-price">8.000 €</p>
  <a class="css-1tqlkj0" href="https://www.olx.ro/d/oferta/bmw.html">link</a>
</div>
</body></html>`

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		BaseURL:       "https://www.olx.ro/autoturisme/?page=",
		MaxPages:      1,
		MinPrice:      0,
		MaxPrice:      100000,
		WaitTimeoutS:  1,
		CSVOutputPath: filepath.Join(t.TempDir(), "ratings.csv"),
	}
}

func testPipeline(t *testing.T, cfg *config.Config, store storage.Store) (*Pipeline, *stubRater) {
	p := New(cfg, store, utils.NewLogger())
	rater := &stubRater{score: 6.5}
	p.rater = rater
	p.pageDelay = 0
	p.openSession = func() (renderer.Renderer, error) {
		return &fakeSession{html: gridHTML}, nil
	}
	return p, rater
}

func TestScrapeStoresListings(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(t)
	p, _ := testPipeline(t, cfg, store)

	p.Scrape(context.Background())

	ads, err := store.ListAds()
	require.NoError(t, err)
	assert.Len(t, ads, 2)
	assert.Equal(t, 2, p.seen.Size())
}

func TestScrapeIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(t)

	p1, _ := testPipeline(t, cfg, store)
	p1.Scrape(context.Background())

	// A fresh run over the same page must not duplicate rows.
	p2, _ := testPipeline(t, cfg, store)
	p2.Scrape(context.Background())

	ads, err := store.ListAds()
	require.NoError(t, err)
	assert.Len(t, ads, 2)
}

func TestRateAllPriceBandIsInclusive(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(t)
	cfg.MinPrice = 1000
	cfg.MaxPrice = 5000

	// Unsupported domain: rating proceeds on the summary alone, no
	// renderer session needed.
	ads := []*models.Listing{
		{Title: "at min", URL: "https://www.example.com/1", Price: 1000},
		{Title: "at max", URL: "https://www.example.com/2", Price: 5000},
		{Title: "below", URL: "https://www.example.com/3", Price: 999.99},
		{Title: "above", URL: "https://www.example.com/4", Price: 5000.01},
	}
	for _, ad := range ads {
		require.NoError(t, store.InsertAd(ad))
	}

	p, rater := testPipeline(t, cfg, store)
	p.openSession = func() (renderer.Renderer, error) {
		t.Fatal("no renderer session expected for unsupported domains")
		return nil, nil
	}

	require.NoError(t, p.RateAll(context.Background()))

	assert.Equal(t, 2, rater.calls)
	for i, wantRated := range []bool{true, true, false, false} {
		r, err := store.GetRating(ads[i].ID)
		require.NoError(t, err)
		assert.Equal(t, wantRated, r != nil, "ad %q", ads[i].Title)
	}
}

func TestRateAllSkipsAlreadyRated(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(t)

	ad := &models.Listing{Title: "rated before", URL: "https://www.example.com/1", Price: 2000}
	require.NoError(t, store.InsertAd(ad))
	require.NoError(t, store.SaveRating(&models.Rating{AdID: ad.ID, Score: 9.0, ReasoningLow: "keep me"}))

	p, rater := testPipeline(t, cfg, store)
	require.NoError(t, p.RateAll(context.Background()))

	assert.Equal(t, 0, rater.calls)
	r, err := store.GetRating(ad.ID)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 9.0, r.Score)
	assert.Equal(t, "keep me", r.ReasoningLow)
}

func TestRunWritesReport(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(t)
	p, rater := testPipeline(t, cfg, store)

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 2, rater.calls)
	assert.FileExists(t, cfg.CSVOutputPath)
}
