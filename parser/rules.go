package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Matcher finds the raw text of a field candidate. ok is false when the
// matcher does not apply to the input at all.
type Matcher func(text string) (raw string, ok bool)

// Rule is one named strategy for a field: a matcher plus the coercion that turns
// its raw capture into the field value.
type Rule[T any] struct {
	Name   string
	Match  Matcher
	Coerce func(raw string) (T, bool)
}

// Apply runs the rule against text. matched reports whether the matcher
// applied; ok whether the capture also coerced.
func (r Rule[T]) Apply(text string) (value T, matched, ok bool) {
	raw, matched := r.Match(text)
	if !matched {
		return value, false, false
	}
	value, ok = r.Coerce(raw)
	return value, true, ok
}

// firstOf evaluates rules in order and stops at the first one whose matcher
// applies. If that rule's capture does not coerce, the field is not found;
// later rules are not consulted.
func firstOf[T any](rules []Rule[T], text string) (value T, rule string, ok bool) {
	for _, r := range rules {
		v, matched, ok := r.Apply(text)
		if !matched {
			continue
		}
		if !ok {
			return value, "", false
		}
		return v, r.Name, true
	}
	return value, "", false
}

// Ruleset is the ordered rule table for every field Extract knows about.
type Ruleset struct {
	BusinessName []Rule[string]
	AskingPrice  []Rule[int64]
	Revenue      []Rule[int64]
	SDE          []Rule[int64]
	RealEstate   []Rule[bool]
	Location     []Rule[string]
}

var (
	askingPriceRe  = regexp.MustCompile(`(?i)Asking Price[:\s]*\$?([\d,]+)`)
	grossRevenueRe = regexp.MustCompile(`(?i)Gross Revenue[:\s]*\$?([\d,]+)`)

	cashFlowRe = regexp.MustCompile(`(?i)Cash Flow.*?\$([\d,]+)`)
	sdeRe      = regexp.MustCompile(`(?i)SDE.*?\$([\d,]+)`)
	ebitdaRe   = regexp.MustCompile(`(?i)EBITDA.*?\$([\d,]+)`)

	realEstateIncludedRe = regexp.MustCompile(`(?i)real estate[:\s\-]*included`)
	propertyIncludedRe   = regexp.MustCompile(`(?i)property[:\s\-]*included`)
	includesRealEstateRe = regexp.MustCompile(`(?i)includes real estate`)
	includesPropertyRe   = regexp.MustCompile(`(?i)includes property`)

	locationLabelRe = regexp.MustCompile(`(?i)Location[:\s]*(.*)`)
	cityStateRe     = regexp.MustCompile(`^.*, [A-Z]{2}$`)
)

// DefaultRules is the rule table used by Extract and Parse.
var DefaultRules = Ruleset{
	BusinessName: []Rule[string]{
		{Name: "first_line", Match: firstNonEmptyLine, Coerce: nonEmpty},
	},
	AskingPrice: []Rule[int64]{
		{Name: "asking_price", Match: capture(askingPriceRe), Coerce: parseAmount},
	},
	Revenue: []Rule[int64]{
		{Name: "gross_revenue", Match: capture(grossRevenueRe), Coerce: parseAmount},
	},
	// EBITDA is the last resort for sde.
	SDE: []Rule[int64]{
		{Name: "cash_flow", Match: capture(cashFlowRe), Coerce: parseAmount},
		{Name: "sde", Match: capture(sdeRe), Coerce: parseAmount},
		{Name: "ebitda", Match: capture(ebitdaRe), Coerce: parseAmount},
	},
	RealEstate: []Rule[bool]{
		{Name: "real_estate_included", Match: present(realEstateIncludedRe), Coerce: flag},
		{Name: "property_included", Match: present(propertyIncludedRe), Coerce: flag},
		{Name: "includes_real_estate", Match: present(includesRealEstateRe), Coerce: flag},
		{Name: "includes_property", Match: present(includesPropertyRe), Coerce: flag},
	},
	Location: []Rule[string]{
		{Name: "location_label", Match: capture(locationLabelRe), Coerce: trimmed},
		{Name: "city_state_line", Match: lastLineMatching(cityStateRe), Coerce: nonEmpty},
	},
}

// capture returns the first submatch of the leftmost match of re.
func capture(re *regexp.Regexp) Matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		return m[1], true
	}
}

// present matches when re occurs anywhere in the text.
func present(re *regexp.Regexp) Matcher {
	return func(text string) (string, bool) {
		loc := re.FindStringIndex(text)
		if loc == nil {
			return "", false
		}
		return text[loc[0]:loc[1]], true
	}
}

func firstNonEmptyLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

// lastLineMatching scans lines bottom-up and returns the first trimmed line re accepts.
func lastLineMatching(re *regexp.Regexp) Matcher {
	return func(text string) (string, bool) {
		lines := strings.Split(text, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			trimmed := strings.TrimSpace(lines[i])
			if re.MatchString(trimmed) {
				return trimmed, true
			}
		}
		return "", false
	}
}

// parseAmount strips thousands separators and parses a non-negative integer.
func parseAmount(raw string) (int64, bool) {
	digits := strings.ReplaceAll(raw, ",", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func nonEmpty(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

// trimmed accepts any capture, including an empty one.
func trimmed(raw string) (string, bool) {
	return strings.TrimSpace(raw), true
}

func flag(string) (bool, bool) { return true, true }
