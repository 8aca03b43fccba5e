package storage

import (
	"time"

	"github.com/google/uuid"

	"carscout/models"
)

// MemoryStore is an in-memory Store used by tests. Behaviour matches
// the SQL backends: app-level URL dedupe, rating upsert on ad id.
type MemoryStore struct {
	ads     []*models.Listing
	byURL   map[string]*models.Listing
	ratings map[string]*models.Rating
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byURL:   make(map[string]*models.Listing),
		ratings: make(map[string]*models.Rating),
	}
}

func (s *MemoryStore) InsertAd(ad *models.Listing) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	s.ads = append(s.ads, ad)
	s.byURL[ad.URL] = ad
	return nil
}

func (s *MemoryStore) HasAd(url string) (bool, error) {
	_, ok := s.byURL[url]
	return ok, nil
}

func (s *MemoryStore) ListAds() ([]*models.Listing, error) {
	out := make([]*models.Listing, len(s.ads))
	copy(out, s.ads)
	return out, nil
}

func (s *MemoryStore) GetRating(adID string) (*models.Rating, error) {
	return s.ratings[adID], nil
}

func (s *MemoryStore) SaveRating(r *models.Rating) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now()
	s.ratings[r.AdID] = r
	return nil
}

func (s *MemoryStore) Close() error { return nil }
