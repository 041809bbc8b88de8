// Package facts answers questions over company facts and company concept
// responses. Every function builds a fresh result and leaves its input
// untouched.
package facts

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
)

// Observation is one reported value with the taxonomy, tag and unit it was
// filed under.
type Observation struct {
	Taxonomy string             `json:"taxonomy"`
	Tag      string             `json:"tag"`
	Unit     string             `json:"unit"`
	Value    edgar.ConceptValue `json:"value"`
}

// Taxonomies lists the taxonomy names present in f, sorted.
func Taxonomies(f *edgar.CompanyFacts) []string {
	return slices.Sorted(maps.Keys(f.Facts))
}

// TagsForTaxonomy returns the tags filed under a taxonomy. An unknown
// taxonomy yields an empty map.
func TagsForTaxonomy(f *edgar.CompanyFacts, taxonomy string) map[string]edgar.Fact {
	tags, ok := f.Facts[taxonomy]
	if !ok {
		return map[string]edgar.Fact{}
	}
	return maps.Clone(tags)
}

// Lookup returns the fact for a taxonomy and tag.
func Lookup(f *edgar.CompanyFacts, taxonomy, tag string) (edgar.Fact, bool) {
	fact, ok := f.Facts[taxonomy][tag]
	return fact, ok
}

// scan visits every value in taxonomy, tag, unit order. Values within a
// unit keep source order.
func scan(f *edgar.CompanyFacts, keep func(edgar.ConceptValue) bool) []Observation {
	var out []Observation
	for _, taxonomy := range Taxonomies(f) {
		tags := f.Facts[taxonomy]
		for _, tag := range slices.Sorted(maps.Keys(tags)) {
			units := tags[tag].Units
			for _, unit := range slices.Sorted(maps.Keys(units)) {
				for _, v := range units[unit] {
					if keep(v) {
						out = append(out, Observation{Taxonomy: taxonomy, Tag: tag, Unit: unit, Value: v})
					}
				}
			}
		}
	}
	return out
}

// Flatten lists every value in f.
func Flatten(f *edgar.CompanyFacts) []Observation {
	return scan(f, func(edgar.ConceptValue) bool { return true })
}

// FactsForForm lists every value reported on the given form type. The
// match is exact, so "10-K" does not match "10-K/A" or "10-k".
func FactsForForm(f *edgar.CompanyFacts, form string) []Observation {
	return scan(f, func(v edgar.ConceptValue) bool { return v.Form == form })
}

// FactsForFiscalPeriod lists every value tagged with fiscal year fy and
// fiscal period fp (FY, Q1..Q4).
func FactsForFiscalPeriod(f *edgar.CompanyFacts, fy int, fp string) []Observation {
	return scan(f, func(v edgar.ConceptValue) bool { return v.FY != nil && *v.FY == fy && v.FP == fp })
}

// MostRecent returns the value with the latest end date for a taxonomy,
// tag and unit. The first of several values sharing that date wins.
func MostRecent(f *edgar.CompanyFacts, taxonomy, tag, unit string) (edgar.ConceptValue, bool) {
	fact, ok := Lookup(f, taxonomy, tag)
	if !ok {
		return edgar.ConceptValue{}, false
	}
	return latest(fact.Units[unit])
}

// TagIndex maps each tag to the taxonomies that define it, sorted.
func TagIndex(f *edgar.CompanyFacts) map[string][]string {
	index := make(map[string][]string)
	for _, taxonomy := range Taxonomies(f) {
		for tag := range f.Facts[taxonomy] {
			index[tag] = append(index[tag], taxonomy)
		}
	}
	return index
}

// Units lists the units a concept was reported in, sorted.
func Units(c *edgar.ConceptResponse) []string {
	return slices.Sorted(maps.Keys(c.Units))
}

// ValuesForUnit returns a copy of the values reported in unit, in source
// order. Amendments are kept alongside the originals.
func ValuesForUnit(c *edgar.ConceptResponse, unit string) []edgar.ConceptValue {
	return slices.Clone(c.Units[unit])
}

// ConceptMostRecent is MostRecent over a single concept response.
func ConceptMostRecent(c *edgar.ConceptResponse, unit string) (edgar.ConceptValue, bool) {
	return latest(c.Units[unit])
}

// ValuesForFiscalPeriod lists a concept's values for fiscal year fy and
// period fp across all units.
func ValuesForFiscalPeriod(c *edgar.ConceptResponse, fy int, fp string) []Observation {
	var out []Observation
	for _, unit := range Units(c) {
		for _, v := range c.Units[unit] {
			if v.FY != nil && *v.FY == fy && v.FP == fp {
				out = append(out, Observation{Taxonomy: c.Taxonomy, Tag: c.Tag, Unit: unit, Value: v})
			}
		}
	}
	return out
}

const layout = "2006-01-02"

func latest(values []edgar.ConceptValue) (edgar.ConceptValue, bool) {
	if len(values) == 0 {
		return edgar.ConceptValue{}, false
	}
	best := 0
	bestDate := endDate(values[0])
	for i := 1; i < len(values); i++ {
		if d := endDate(values[i]); d.After(bestDate) {
			best, bestDate = i, d
		}
	}
	return values[best], true
}

// endDate parses a value's end date; an unparseable date sorts first.
func endDate(v edgar.ConceptValue) time.Time {
	date, err := time.Parse(layout, v.End)
	if err != nil {
		return time.Time{}
	}
	return date
}

// SortByEnd orders observations newest first, keeping the relative order
// of observations that end on the same day.
func SortByEnd(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return endDate(obs[i].Value).After(endDate(obs[j].Value))
	})
}
