package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carscout/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw            string
		wantPrice      float64
		wantNegotiable string
		wantErr        bool
	}{
		{"1.234,56 € Prețul e negociabil", 1234.56, models.PriceNegotiable, false},
		{"12 500 €", 12500, models.PriceFixed, false},
		{"8.000 €", 8000, models.PriceFixed, false},
		{"950 eur", 950, models.PriceFixed, false},
		{"", 0, models.PriceFixed, true},
		{"Schimb", 0, models.PriceFixed, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			price, negotiable, err := ParsePrice(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPrice, price)
			assert.Equal(t, tt.wantNegotiable, negotiable)
		})
	}
}

func TestParseRomanianDate(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"absolute", "15 martie 2024", "15-03-2024 00:00", false},
		{"absolute with time", "15 martie 2024 la 10:00", "15-03-2024 00:00", false},
		{"single digit day", "5 mai 2023", "05-05-2023 00:00", false},
		{"case insensitive month", "1 Ianuarie 2024", "01-01-2024 00:00", false},
		{"refreshed prefix", "Reactualizat 15 martie 2024", "15-03-2024 00:00", false},
		{"relative today", "Azi la 14:30", "10-06-2024 14:30", false},
		{"unknown month", "15 whenever 2024", "", true},
		{"garbage", "ieri", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRomanianDate(tt.raw, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAgeKilometers(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		wantAge int
		wantKm  int
		wantNil bool
	}{
		{"typical", []string{"2019", "120.000", "km"}, 2019, 120000, false},
		{"spaced mileage", []string{"2015", "89", "500", "km"}, 2015, 89500, false},
		{"km alone", []string{"km"}, 0, 0, true},
		{"no marker", []string{"2019", "120.000"}, 0, 0, true},
		{"year and marker only", []string{"2019", "km"}, 0, 0, true},
		{"bad year", []string{"219", "120.000", "km"}, 0, 0, true},
		{"bad mileage", []string{"2019", "multe", "km"}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, km := ParseAgeKilometers(tt.tokens)
			if tt.wantNil {
				assert.Nil(t, age)
				assert.Nil(t, km)
				return
			}
			if assert.NotNil(t, age) {
				assert.Equal(t, tt.wantAge, *age)
			}
			if assert.NotNil(t, km) {
				assert.Equal(t, tt.wantKm, *km)
			}
		})
	}
}
