package services

import (
	"fmt"
	"sort"
	"strings"

	"carscout/models"
	"carscout/utils"
)

// ReportService computes and prints the end-of-run summary over the
// stored advertisements and their AI ratings.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(ads []*models.Listing, ratings map[string]*models.Rating) *models.RunReport {
	report := &models.RunReport{
		AdsByLocation: make(map[string]int),
	}

	if len(ads) == 0 {
		return report
	}

	report.TotalAds = len(ads)

	var priceTotal float64
	var scoreTotal float64
	first := true

	for _, ad := range ads {
		priceTotal += ad.Price
		if ad.Location != "" && ad.Location != "N/A" {
			report.AdsByLocation[ad.Location]++
		}

		r, ok := ratings[ad.ID]
		if !ok {
			continue
		}
		report.RatedAds++
		scoreTotal += r.Score

		if first || r.Score < report.MinScore {
			report.MinScore = r.Score
		}
		if first || r.Score > report.MaxScore {
			report.MaxScore = r.Score
			report.BestAd = ad
			report.BestScore = r.Score
		}
		first = false
	}

	report.AveragePrice = round2(priceTotal / float64(len(ads)))
	if report.RatedAds > 0 {
		report.AverageScore = round2(scoreTotal / float64(report.RatedAds))
	}

	return report
}

func (s *ReportService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  SCRAPE & RATING SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Advertisements stored : \033[1m%d\033[0m\n", r.TotalAds)
	fmt.Printf("  With AI rating        : \033[1m%d\033[0m\n", r.RatedAds)
	if r.TotalAds > 0 {
		fmt.Printf("  Average price         : \033[1;32m%.2f EUR\033[0m\n", r.AveragePrice)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  AI Scores\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.RatedAds == 0 {
		fmt.Printf("  No rated advertisements\n")
	} else {
		fmt.Printf("  Average score : \033[1;32m%.2f/10\033[0m\n", r.AverageScore)
		fmt.Printf("  Lowest score  : \033[1;32m%.2f/10\033[0m\n", r.MinScore)
		fmt.Printf("  Highest score : \033[1;32m%.2f/10\033[0m\n", r.MaxScore)
	}
	fmt.Println()

	if r.BestAd != nil {
		fmt.Printf("\033[1;33m  Best Match\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.BestAd.Title, 50))
		fmt.Printf("  Location : %s\n", r.BestAd.Location)
		fmt.Printf("  Price    : \033[1;31m%.2f EUR\033[0m\n", r.BestAd.Price)
		fmt.Printf("  Score    : \033[1;32m%.2f/10\033[0m\n", r.BestScore)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Advertisements by Location\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.AdsByLocation) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.AdsByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			return locs[i].count > locs[j].count
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
