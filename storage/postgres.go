package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"carscout/models"
)

// PostgresStore persists advertisements and ratings in PostgreSQL. Same
// schema shape as the SQLite backend, selected via DB_DRIVER.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, waits for the server to come up, and runs
// the schema migration.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS advertisements (
			id           TEXT PRIMARY KEY,
			title        TEXT,
			url          TEXT,
			price        NUMERIC(12,2),
			negotiable   TEXT,
			location     TEXT,
			date         TEXT,
			size         NUMERIC(12,2),
			age          INTEGER,
			kilometers   INTEGER,
			listing_type TEXT
		);

		CREATE TABLE IF NOT EXISTS ai_ratings (
			id             TEXT PRIMARY KEY,
			ad_id          TEXT UNIQUE REFERENCES advertisements(id),
			rating         NUMERIC(4,2),
			reasoning_low  TEXT,
			reasoning_high TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_advertisements_url   ON advertisements(url);
		CREATE INDEX IF NOT EXISTS idx_advertisements_price ON advertisements(price);
	`)
	return err
}

// InsertAd writes one advertisement row.
func (s *PostgresStore) InsertAd(ad *models.Listing) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO advertisements (id, title, url, price, negotiable, location, date, size, age, kilometers, listing_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ad.ID, ad.Title, ad.URL, ad.Price, ad.Negotiable, ad.Location, ad.PostedAt,
		nullFloat(ad.Size), nullInt(ad.Age), nullInt(ad.Kilometers), ad.ListingType)
	if err != nil {
		return fmt.Errorf("postgres: insert ad: %w", err)
	}
	return nil
}

// HasAd reports whether an advertisement with this URL already exists.
func (s *PostgresStore) HasAd(url string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM advertisements WHERE url = $1", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: has ad: %w", err)
	}
	return true, nil
}

// ListAds returns every stored advertisement.
func (s *PostgresStore) ListAds() ([]*models.Listing, error) {
	rows, err := s.db.Query(`
		SELECT id, title, url, price, negotiable, location, date, size, age, kilometers, listing_type
		FROM advertisements`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ads: %w", err)
	}
	defer rows.Close()

	return scanAds(rows)
}

// GetRating returns the rating for an ad, or nil if it has none.
func (s *PostgresStore) GetRating(adID string) (*models.Rating, error) {
	r := &models.Rating{AdID: adID}
	err := s.db.QueryRow(`
		SELECT id, rating, reasoning_low, reasoning_high, created_at
		FROM ai_ratings WHERE ad_id = $1`, adID).
		Scan(&r.ID, &r.Score, &r.ReasoningLow, &r.ReasoningHigh, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get rating: %w", err)
	}
	return r, nil
}

// SaveRating upserts the rating keyed on ad_id.
func (s *PostgresStore) SaveRating(r *models.Rating) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO ai_ratings (id, ad_id, rating, reasoning_low, reasoning_high)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ad_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			reasoning_low = EXCLUDED.reasoning_low,
			reasoning_high = EXCLUDED.reasoning_high,
			created_at = NOW()`,
		r.ID, r.AdID, r.Score, r.ReasoningLow, r.ReasoningHigh)
	if err != nil {
		return fmt.Errorf("postgres: save rating: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
