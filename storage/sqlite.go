package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"carscout/models"
)

// SQLiteStore persists advertisements and ratings in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and runs the
// schema migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS advertisements (
			id           TEXT PRIMARY KEY,
			title        TEXT,
			url          TEXT,
			price        REAL,
			negotiable   TEXT,
			location     TEXT,
			date         TEXT,
			size         REAL,
			age          INTEGER,
			kilometers   INTEGER,
			listing_type TEXT
		);

		CREATE TABLE IF NOT EXISTS ai_ratings (
			id             TEXT PRIMARY KEY,
			ad_id          TEXT UNIQUE,
			rating         REAL,
			reasoning_low  TEXT,
			reasoning_high TEXT,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (ad_id) REFERENCES advertisements(id)
		);
	`)
	return err
}

// InsertAd writes one advertisement row, committing immediately so a
// crash mid-page keeps earlier rows.
func (s *SQLiteStore) InsertAd(ad *models.Listing) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO advertisements (id, title, url, price, negotiable, location, date, size, age, kilometers, listing_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.ID, ad.Title, ad.URL, ad.Price, ad.Negotiable, ad.Location, ad.PostedAt,
		nullFloat(ad.Size), nullInt(ad.Age), nullInt(ad.Kilometers), ad.ListingType)
	if err != nil {
		return fmt.Errorf("sqlite: insert ad: %w", err)
	}
	return nil
}

// HasAd reports whether an advertisement with this URL already exists.
func (s *SQLiteStore) HasAd(url string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM advertisements WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: has ad: %w", err)
	}
	return true, nil
}

// ListAds returns every stored advertisement.
func (s *SQLiteStore) ListAds() ([]*models.Listing, error) {
	rows, err := s.db.Query(`
		SELECT id, title, url, price, negotiable, location, date, size, age, kilometers, listing_type
		FROM advertisements`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list ads: %w", err)
	}
	defer rows.Close()

	return scanAds(rows)
}

// GetRating returns the rating for an ad, or nil if it has none.
func (s *SQLiteStore) GetRating(adID string) (*models.Rating, error) {
	r := &models.Rating{AdID: adID}
	var created string
	err := s.db.QueryRow(`
		SELECT id, rating, reasoning_low, reasoning_high, created_at
		FROM ai_ratings WHERE ad_id = ?`, adID).
		Scan(&r.ID, &r.Score, &r.ReasoningLow, &r.ReasoningHigh, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get rating: %w", err)
	}
	if t, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
		r.CreatedAt = t
	}
	return r, nil
}

// SaveRating upserts the rating keyed on ad_id: a later scoring run
// replaces the prior result.
func (s *SQLiteStore) SaveRating(r *models.Rating) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO ai_ratings (id, ad_id, rating, reasoning_low, reasoning_high)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ad_id) DO UPDATE SET
			rating = excluded.rating,
			reasoning_low = excluded.reasoning_low,
			reasoning_high = excluded.reasoning_high,
			created_at = datetime('now')`,
		r.ID, r.AdID, r.Score, r.ReasoningLow, r.ReasoningHigh)
	if err != nil {
		return fmt.Errorf("sqlite: save rating: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
