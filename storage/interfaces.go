package storage

import (
	"fmt"

	"carscout/config"
	"carscout/models"
)

// Store is the persistence surface the pipeline drives. URL uniqueness
// of advertisements is enforced by the HasAd check before insert;
// ratings upsert on their ad id.
type Store interface {
	InsertAd(ad *models.Listing) error
	HasAd(url string) (bool, error)
	ListAds() ([]*models.Listing, error)
	GetRating(adID string) (*models.Rating, error)
	SaveRating(r *models.Rating) error
	Close() error
}

// Open returns the store backend selected by DB_DRIVER.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return NewSQLiteStore(cfg.DBName)
	case "postgres":
		return NewPostgresStore(cfg.DSN())
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.DBDriver)
	}
}
