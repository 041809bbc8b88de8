package edgar

import (
	"fmt"
	"strconv"
	"strings"
)

// Taxonomy is an XBRL taxonomy namespace as used in API paths.
type Taxonomy string

const (
	TaxonomyUSGAAP   Taxonomy = "us-gaap"
	TaxonomyIFRSFull Taxonomy = "ifrs-full"
	TaxonomyDEI      Taxonomy = "dei"
	TaxonomySRT      Taxonomy = "srt"
)

// ParseTaxonomy matches s case-insensitively against the taxonomies the
// API serves.
func ParseTaxonomy(s string) (Taxonomy, bool) {
	switch t := Taxonomy(strings.ToLower(s)); t {
	case TaxonomyUSGAAP, TaxonomyIFRSFull, TaxonomyDEI, TaxonomySRT:
		return t, true
	}
	return "", false
}

// PeriodKind distinguishes the frame period code variants.
type PeriodKind int

const (
	// Annual periods span a calendar year: CY2024.
	Annual PeriodKind = iota
	// Duration periods span one calendar quarter: CY2024Q1.
	Duration
	// Instantaneous periods are a point in time at quarter end: CY2024Q1I.
	Instantaneous
)

// Period identifies the calendar period of a frame.
type Period struct {
	Kind    PeriodKind
	Year    int
	Quarter int
}

func AnnualPeriod(year int) Period {
	return Period{Kind: Annual, Year: year}
}

func DurationPeriod(year, quarter int) Period {
	return Period{Kind: Duration, Year: year, Quarter: quarter}
}

func InstantPeriod(year, quarter int) Period {
	return Period{Kind: Instantaneous, Year: year, Quarter: quarter}
}

// String renders the period in the API's frame period code format.
func (p Period) String() string {
	switch p.Kind {
	case Duration:
		return fmt.Sprintf("CY%dQ%d", p.Year, p.Quarter)
	case Instantaneous:
		return fmt.Sprintf("CY%dQ%dI", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("CY%d", p.Year)
	}
}

// ParsePeriod parses a frame period code such as CY2024, CY2024Q1 or CY2024Q1I.
func ParsePeriod(s string) (Period, error) {
	rest, ok := strings.CutPrefix(s, "CY")
	if !ok {
		return Period{}, fmt.Errorf("%w: %q lacks CY prefix", ErrInvalidPeriod, s)
	}
	yearPart, quarterPart, hasQuarter := strings.Cut(rest, "Q")
	year, err := strconv.Atoi(yearPart)
	if err != nil || len(yearPart) != 4 {
		return Period{}, fmt.Errorf("%w: %q has a bad year", ErrInvalidPeriod, s)
	}
	if !hasQuarter {
		return AnnualPeriod(year), nil
	}

	kind := Duration
	if q, ok := strings.CutSuffix(quarterPart, "I"); ok {
		kind = Instantaneous
		quarterPart = q
	}
	quarter, err := strconv.Atoi(quarterPart)
	if err != nil || quarter < 1 || quarter > 4 {
		return Period{}, fmt.Errorf("%w: %q has a bad quarter", ErrInvalidPeriod, s)
	}
	return Period{Kind: kind, Year: year, Quarter: quarter}, nil
}

// Unit is a unit of measure. A zero Denominator means a simple unit.
type Unit struct {
	Numerator   string
	Denominator string
}

func SimpleUnit(label string) Unit {
	return Unit{Numerator: label}
}

func PerShareUnit(numerator, denominator string) Unit {
	return Unit{Numerator: numerator, Denominator: denominator}
}

// String renders the unit as the API's unit path segment.
func (u Unit) String() string {
	if u.Denominator == "" {
		return u.Numerator
	}
	return u.Numerator + "-per-" + u.Denominator
}

// ParseUnit splits s on its first "-per-" into a compound unit.
func ParseUnit(s string) Unit {
	if num, den, ok := strings.Cut(s, "-per-"); ok {
		return PerShareUnit(num, den)
	}
	return SimpleUnit(s)
}
