package services

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zaptest"

	"listing-parser/models"
	"listing-parser/parser"
	"listing-parser/utils"
)

func newTestLogger(t *testing.T) *utils.Logger { return utils.WrapZap(zaptest.NewLogger(t)) }

func sampleRecords() []*models.ListingRecord {
	texts := []string{
		"Gas Station\nAsking Price: $2,000,000\nCash Flow: $400,000\nReal Estate: Included\nLocation: Portland, OR",
		"Bakery\nAsking Price: $500,000\nGross Revenue: $900,000\nSDE: $100,000\nPortland, OR",
		"Car Wash\nAsking Price: $1,000,000\nGross Revenue: $1,100,000\nLocation: Austin, TX",
		"Mystery Business",
		"",
	}
	records := make([]*models.ListingRecord, 0, len(texts))
	for i, text := range texts {
		records = append(records, &models.ListingRecord{ID: int64(i + 1), RawText: text, Fields: parser.Parse(text)})
	}
	return records
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleRecords())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.RealEstateListings != 1 {
		t.Errorf("RealEstateListings: got %d, want 1", r.RealEstateListings)
	}
}

func TestInsightFieldCoverage(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleRecords())

	want := map[string]int{
		parser.FieldBusinessName: 4,
		parser.FieldAskingPrice:  3,
		parser.FieldRevenue:      2,
		parser.FieldSDE:          2,
		parser.FieldRealEstate:   1,
		parser.FieldLocation:     3,
	}
	for field, n := range want {
		if r.FieldCoverage[field] != n {
			t.Errorf("FieldCoverage[%s]: got %d, want %d", field, r.FieldCoverage[field], n)
		}
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleRecords())

	if r.AverageAsking != 1166666.67 {
		t.Errorf("AverageAsking: got %.2f, want 1166666.67", r.AverageAsking)
	}
	if r.MinAsking != 500000 {
		t.Errorf("MinAsking: got %d, want 500000", r.MinAsking)
	}
	if r.MaxAsking != 2000000 {
		t.Errorf("MaxAsking: got %d, want 2000000", r.MaxAsking)
	}
	if r.AverageRevenue != 1000000 {
		t.Errorf("AverageRevenue: got %.2f, want 1000000", r.AverageRevenue)
	}
	// (2,000,000/400,000 + 500,000/100,000) / 2
	if r.AverageMultiple != 5 {
		t.Errorf("AverageMultiple: got %.2f, want 5", r.AverageMultiple)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleRecords())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.ID != 1 {
		t.Errorf("MostExpensive: got id %d, want 1", r.MostExpensive.ID)
	}
}

func TestInsightLocationGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleRecords())
	if r.ListingsByLocation["Portland, OR"] != 2 {
		t.Errorf("Portland count: got %d, want 2", r.ListingsByLocation["Portland, OR"])
	}
	if r.ListingsByLocation["Austin, TX"] != 1 {
		t.Errorf("Austin count: got %d, want 1", r.ListingsByLocation["Austin, TX"])
	}
}

func TestInsightSkipsEmptyLocation(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	text := "Diner\nSpringfield, IL\nLocation:"
	r := svc.Generate([]*models.ListingRecord{{ID: 1, RawText: text, Fields: parser.Parse(text)}})
	if r.FieldCoverage[parser.FieldLocation] != 1 {
		t.Errorf("location coverage: got %d, want 1", r.FieldCoverage[parser.FieldLocation])
	}
	if len(r.ListingsByLocation) != 0 {
		t.Errorf("ListingsByLocation: got %v, want empty", r.ListingsByLocation)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
	if r.FieldCoverage == nil || r.ListingsByLocation == nil {
		t.Errorf("maps should be initialised for empty input")
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleRecords()))

	out := buf.String()
	for _, want := range []string{"Listings parsed", "$2,000,000.00", "Portland, OR", "5.00x"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("Print output missing %q", want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{1234567.5, "1,234,567.50"},
		{1166666.67, "1,166,666.67"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Diner", 10, "Diner"},
		{"Boulangerie Pâtisserie", 22, "Boulangerie Pâtisserie"},
		{"Boulangerie Pâtisserie Française", 20, "Boulangerie Pâtis..."},
		{"東京ラーメン屋さん本店", 8, "東京ラーメ..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}
