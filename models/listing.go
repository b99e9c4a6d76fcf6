package models

import (
	"time"

	"listing-parser/parser"
)

// ListingRecord pairs the raw listing text with what was extracted from it.
// Records are written once and never updated.
type ListingRecord struct {
	ID         int64         `json:"id"`
	RawText    string        `json:"raw_text"`
	ParsedJSON string        `json:"-"`
	Fields     parser.Fields `json:"parsed"`
	SourceURL  string        `json:"source_url,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// InsightReport holds aggregate statistics over stored listings.
type InsightReport struct {
	TotalListings      int            `json:"total_listings"`
	FieldCoverage      map[string]int `json:"field_coverage"`
	AverageAsking      float64        `json:"average_asking_price"`
	MinAsking          int64          `json:"min_asking_price"`
	MaxAsking          int64          `json:"max_asking_price"`
	AverageRevenue     float64        `json:"average_revenue"`
	AverageMultiple    float64        `json:"average_sde_multiple"`
	RealEstateListings int            `json:"real_estate_listings"`
	MostExpensive      *ListingRecord `json:"most_expensive,omitempty"`
	ListingsByLocation map[string]int `json:"listings_by_location"`
}
