package storage

import (
	"database/sql"

	"carscout/models"
)

func scanAds(rows *sql.Rows) ([]*models.Listing, error) {
	var ads []*models.Listing
	for rows.Next() {
		ad := &models.Listing{}
		var size sql.NullFloat64
		var age, km sql.NullInt64
		if err := rows.Scan(
			&ad.ID, &ad.Title, &ad.URL, &ad.Price, &ad.Negotiable,
			&ad.Location, &ad.PostedAt, &size, &age, &km, &ad.ListingType,
		); err != nil {
			return nil, err
		}
		if size.Valid {
			v := size.Float64
			ad.Size = &v
		}
		if age.Valid {
			v := int(age.Int64)
			ad.Age = &v
		}
		if km.Valid {
			v := int(km.Int64)
			ad.Kilometers = &v
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
