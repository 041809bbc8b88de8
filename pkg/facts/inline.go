package facts

import (
	"time"

	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/ixbrl"
)

// FromInlineXBRL shapes the facts of one filing's primary document like a
// company facts response, so the same queries run over it. Dimensional
// facts are left out, as they are from the API, and a fact repeated
// within the document is kept once.
func FromInlineXBRL(cik edgar.CIK, entityName string, filing edgar.Filing, parsed []ixbrl.Fact) *edgar.CompanyFacts {
	out := &edgar.CompanyFacts{
		CIK:        cik,
		EntityName: entityName,
		Facts:      map[string]map[string]edgar.Fact{},
	}
	fy, fp := fiscalPeriod(filing)

	type key struct{ concept, unit, start, end string }
	seen := make(map[key]bool)
	for _, f := range parsed {
		if f.Dimensional() {
			continue
		}
		k := key{f.Concept, f.Unit, f.Period.StartDate, f.Period.End()}
		if seen[k] {
			continue
		}
		seen[k] = true

		taxonomy, tag := f.Taxonomy(), f.Tag()
		tags, ok := out.Facts[taxonomy]
		if !ok {
			tags = map[string]edgar.Fact{}
			out.Facts[taxonomy] = tags
		}
		fact := tags[tag]
		if fact.Units == nil {
			fact.Units = map[string][]edgar.ConceptValue{}
		}
		fact.Units[f.Unit] = append(fact.Units[f.Unit], edgar.ConceptValue{
			Start: f.Period.StartDate,
			End:   f.Period.End(),
			Val:   f.Value,
			Accn:  filing.AccessionNumber,
			FY:    fy,
			FP:    fp,
			Form:  filing.Form,
			Filed: filing.FilingDate,
		})
		tags[tag] = fact
	}
	return out
}

// fiscalPeriod approximates fy and fp from the report date: annual forms
// are FY of the report year and anything else is left unset.
func fiscalPeriod(filing edgar.Filing) (*int, string) {
	switch filing.Form {
	case "10-K", "10-K/A", "20-F", "20-F/A", "40-F", "40-F/A":
	default:
		return nil, ""
	}
	t, err := time.Parse(layout, filing.ReportDate)
	if err != nil {
		return nil, ""
	}
	year := t.Year()
	return &year, "FY"
}
