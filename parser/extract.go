// Package parser turns free-form business-for-sale listing copy into structured fields.
//
// Extraction is heuristic: each field is decided by the first rule in its
// ordered rule list whose pattern matches. Fields nothing matched, or whose
// winning capture does not coerce, are left nil.
// The package holds no mutable state and performs no I/O, so every function is
// safe for concurrent use.
package parser

// Field names as they appear in the serialized result.
const (
	FieldBusinessName = "business_name"
	FieldAskingPrice  = "asking_price"
	FieldRevenue      = "revenue"
	FieldSDE          = "sde"
	FieldRealEstate   = "real_estate"
	FieldLocation     = "location"
)

// Fields is the extraction result. A nil pointer means the field was not found
// and is omitted from JSON; RealEstate is always present.
type Fields struct {
	BusinessName *string `json:"business_name,omitempty"`
	AskingPrice  *int64  `json:"asking_price,omitempty"`
	Revenue      *int64  `json:"revenue,omitempty"`
	SDE          *int64  `json:"sde,omitempty"`
	RealEstate   bool    `json:"real_estate"`
	Location     *string `json:"location,omitempty"`
}

// Match records which rule produced a field value.
type Match struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Parse normalizes raw text and extracts fields from it with DefaultRules.
func Parse(raw string) Fields {
	return Extract(Normalize(raw))
}

// Extract applies DefaultRules to already normalized text.
func Extract(text string) Fields {
	return DefaultRules.Extract(text)
}

// Explain reports, in field order, the rule behind every field DefaultRules finds.
func Explain(text string) []Match {
	return DefaultRules.Explain(text)
}

// Analyze is Extract and Explain in a single pass over DefaultRules.
func Analyze(text string) (Fields, []Match) {
	return DefaultRules.Analyze(text)
}

// Extract applies the rule table to normalized text.
func (rs Ruleset) Extract(text string) Fields {
	f, _ := rs.Analyze(text)
	return f
}

// Explain returns the rule attribution for each field found in text.
// real_estate is listed only when a rule flipped it to true.
func (rs Ruleset) Explain(text string) []Match {
	_, matches := rs.Analyze(text)
	return matches
}

// Analyze returns both the extracted fields and their rule attribution.
func (rs Ruleset) Analyze(text string) (Fields, []Match) {
	var (
		f       Fields
		matches []Match
	)
	note := func(field, rule string) {
		matches = append(matches, Match{Field: field, Rule: rule})
	}

	if v, rule, ok := firstOf(rs.BusinessName, text); ok {
		f.BusinessName = &v
		note(FieldBusinessName, rule)
	}
	if v, rule, ok := firstOf(rs.AskingPrice, text); ok {
		f.AskingPrice = &v
		note(FieldAskingPrice, rule)
	}
	if v, rule, ok := firstOf(rs.Revenue, text); ok {
		f.Revenue = &v
		note(FieldRevenue, rule)
	}
	if v, rule, ok := firstOf(rs.SDE, text); ok {
		f.SDE = &v
		note(FieldSDE, rule)
	}
	if v, rule, ok := firstOf(rs.RealEstate, text); ok && v {
		f.RealEstate = true
		note(FieldRealEstate, rule)
	}
	if v, rule, ok := firstOf(rs.Location, text); ok {
		f.Location = &v
		note(FieldLocation, rule)
	}

	return f, matches
}

// Present lists the names of the fields that carry a value, in declaration order.
// real_estate is always included.
func (f Fields) Present() []string {
	names := make([]string, 0, 6)
	if f.BusinessName != nil {
		names = append(names, FieldBusinessName)
	}
	if f.AskingPrice != nil {
		names = append(names, FieldAskingPrice)
	}
	if f.Revenue != nil {
		names = append(names, FieldRevenue)
	}
	if f.SDE != nil {
		names = append(names, FieldSDE)
	}
	names = append(names, FieldRealEstate)
	if f.Location != nil {
		names = append(names, FieldLocation)
	}
	return names
}
