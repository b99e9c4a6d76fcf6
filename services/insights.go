package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"listing-parser/models"
	"listing-parser/parser"
	"listing-parser/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(records []*models.ListingRecord) *models.InsightReport {
	report := &models.InsightReport{
		FieldCoverage:      make(map[string]int),
		ListingsByLocation: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalListings = len(records)

	var (
		askingTotal, revenueTotal, multipleTotal float64
		askingCount, revenueCount, multipleCount int
	)

	for _, r := range records {
		f := r.Fields
		for _, name := range f.Present() {
			if name == parser.FieldRealEstate && !f.RealEstate {
				continue
			}
			report.FieldCoverage[name]++
		}
		if f.RealEstate {
			report.RealEstateListings++
		}
		if f.Location != nil && *f.Location != "" {
			report.ListingsByLocation[*f.Location]++
		}

		if f.AskingPrice != nil && *f.AskingPrice > 0 {
			price := *f.AskingPrice
			if askingCount == 0 || price < report.MinAsking {
				report.MinAsking = price
			}
			if askingCount == 0 || price > report.MaxAsking {
				report.MaxAsking = price
				report.MostExpensive = r
			}
			askingTotal += float64(price)
			askingCount++

			// Price-to-earnings multiple, the usual small-business valuation yardstick.
			if f.SDE != nil && *f.SDE > 0 {
				multipleTotal += float64(price) / float64(*f.SDE)
				multipleCount++
			}
		}
		if f.Revenue != nil && *f.Revenue > 0 {
			revenueTotal += float64(*f.Revenue)
			revenueCount++
		}
	}

	if askingCount > 0 {
		report.AverageAsking = round2(askingTotal / float64(askingCount))
	}
	if revenueCount > 0 {
		report.AverageRevenue = round2(revenueTotal / float64(revenueCount))
	}
	if multipleCount > 0 {
		report.AverageMultiple = round2(multipleTotal / float64(multipleCount))
	}

	s.logger.Debug("[insights] Report over %d listings: %d priced, %d with multiple",
		report.TotalListings, askingCount, multipleCount)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 BUSINESS LISTING INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Listings parsed        : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Real estate included   : \033[1m%d\033[0m\n", r.RealEstateListings)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Field Coverage\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, name := range []string{
		parser.FieldBusinessName, parser.FieldAskingPrice, parser.FieldRevenue,
		parser.FieldSDE, parser.FieldRealEstate, parser.FieldLocation,
	} {
		fmt.Fprintf(w, "  %-22s : %d/%d\n", name, r.FieldCoverage[name], r.TotalListings)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AverageAsking > 0 {
		fmt.Fprintf(w, "  Average asking price : \033[1;32m$%s\033[0m\n", formatMoney(r.AverageAsking))
		fmt.Fprintf(w, "  Minimum asking price : \033[1;32m$%s\033[0m\n", formatMoney(float64(r.MinAsking)))
		fmt.Fprintf(w, "  Maximum asking price : \033[1;32m$%s\033[0m\n", formatMoney(float64(r.MaxAsking)))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	if r.AverageRevenue > 0 {
		fmt.Fprintf(w, "  Average revenue      : \033[1;32m$%s\033[0m\n", formatMoney(r.AverageRevenue))
	}
	if r.AverageMultiple > 0 {
		fmt.Fprintf(w, "  Average SDE multiple : \033[1m%.2fx\033[0m\n", r.AverageMultiple)
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		f := r.MostExpensive.Fields
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		if f.BusinessName != nil {
			fmt.Fprintf(w, "  %s\n", truncate(*f.BusinessName, 50))
		}
		if f.Location != nil && *f.Location != "" {
			fmt.Fprintf(w, "  Location : %s\n", *f.Location)
		}
		fmt.Fprintf(w, "  Asking   : \033[1;31m$%s\033[0m\n", formatMoney(float64(*f.AskingPrice)))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Listings by Location\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByLocation) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.ListingsByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// formatMoney renders 1234567.5 as "1,234,567.50".
func formatMoney(f float64) string {
	whole := int64(f)
	cents := int64((f-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("%s.%02d", b.String(), cents)
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
