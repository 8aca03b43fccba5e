package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"carscout/models"
)

// negotiableMarker is the text OLX appends to negotiable prices.
const negotiableMarker = "Prețul e negociabil"

var romanianMonths = map[string]string{
	"ianuarie": "01", "februarie": "02", "martie": "03", "aprilie": "04",
	"mai": "05", "iunie": "06", "iulie": "07", "august": "08",
	"septembrie": "09", "octombrie": "10", "noiembrie": "11", "decembrie": "12",
}

var priceScrubber = strings.NewReplacer(
	" ", "", " ", "", "€", "", "eur", "", "EUR", "", ".", "",
)

// ParsePrice turns a raw price block into a numeric value plus the
// negotiable marker. "1.234,56 € Prețul e negociabil" → 1234.56, Negotiable.
func ParsePrice(raw string) (float64, string, error) {
	negotiable := models.PriceFixed
	if strings.Contains(raw, negotiableMarker) {
		raw = strings.ReplaceAll(raw, negotiableMarker, "")
		negotiable = models.PriceNegotiable
	}

	cleaned := priceScrubber.Replace(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, negotiable, fmt.Errorf("price: empty after cleanup: %q", raw)
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, negotiable, fmt.Errorf("price: parse %q: %w", raw, err)
	}
	return price, negotiable, nil
}

// ParseRomanianDate converts a posted-at fragment to "DD-MM-YYYY HH:MM".
// Two shapes are accepted: the relative "Azi la HH:MM" (today) and the
// absolute "<day> <month-name> <year>". Anything else is an error the
// caller substitutes a default for.
func ParseRomanianDate(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Reactualizat "))

	if rest, ok := strings.CutPrefix(raw, "Azi la "); ok {
		return now.Format("02-01-2006") + " " + strings.TrimSpace(rest), nil
	}

	// Some cards render the absolute form as "15 martie 2024 la 10:00";
	// the time part is dropped, matching the midnight convention below.
	raw = strings.ReplaceAll(raw, " la ", " ")

	parts := strings.Fields(raw)
	if len(parts) < 3 {
		return "", fmt.Errorf("date: want 'dd month yyyy', got %q", raw)
	}

	day, monthName, year := parts[0], parts[1], parts[2]
	month, ok := romanianMonths[strings.ToLower(monthName)]
	if !ok {
		return "", fmt.Errorf("date: unknown month %q", monthName)
	}
	if len(day) == 1 {
		day = "0" + day
	}

	return day + "-" + month + "-" + year + " 00:00", nil
}

// ParseAgeKilometers reads the compound "2019 120.000 km" detail token
// sequence: first token a 4-digit year, last token the km marker, the
// joined middle the mileage. Any shape mismatch yields both fields
// absent rather than an error.
func ParseAgeKilometers(tokens []string) (age *int, kilometers *int) {
	if len(tokens) < 3 {
		return nil, nil
	}
	if !strings.EqualFold(tokens[len(tokens)-1], "km") {
		return nil, nil
	}

	year := tokens[0]
	if len(year) != 4 {
		return nil, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, nil
	}

	kmText := strings.Join(tokens[1:len(tokens)-1], "")
	kmText = strings.NewReplacer(".", "", " ", "", ",", "").Replace(kmText)
	km, err := strconv.Atoi(kmText)
	if err != nil {
		return nil, nil
	}

	return &y, &km
}
