package ixbrl

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
)

// Fact is a numeric fact from an inline XBRL document with its context and
// unit resolved.
type Fact struct {
	ID         string
	Concept    string
	Value      float64
	Unit       string
	Decimals   string
	Period     Period
	Dimensions []ExplicitMember
	// Entity is the context's identifier, a CIK for SEC filers.
	Entity string
	// Typed is set when the context has typed members, which are not
	// carried in Dimensions.
	Typed bool
}

// Taxonomy is the concept's namespace prefix, e.g. us-gaap.
func (f Fact) Taxonomy() string {
	prefix, _, ok := strings.Cut(f.Concept, ":")
	if !ok {
		return ""
	}
	return prefix
}

// Tag is the concept's local name, e.g. NetIncomeLoss.
func (f Fact) Tag() string {
	_, local, ok := strings.Cut(f.Concept, ":")
	if !ok {
		return f.Concept
	}
	return local
}

// Dimensional reports whether the fact applies to a segment member.
func (f Fact) Dimensional() bool {
	return len(f.Dimensions) > 0 || f.Typed
}

// Facts collects the numeric facts in document order. Facts whose context
// is missing or whose value can't be read are skipped.
func Facts(nodes []*ParsedNode) []Fact {
	units := make(map[string]string)
	for _, u := range FilterByType(nodes, func(*Unit) bool { return true }) {
		units[u.ID] = u.Label()
	}

	var facts []Fact
	for _, nf := range FilterByType(nodes, func(*NonFraction) bool { return true }) {
		if nf.Context == nil {
			slog.Debug("skipping fact without context", "name", nf.Name, "contextref", nf.ContextRef)
			continue
		}
		value, err := nf.Value()
		if err != nil {
			slog.Debug("skipping fact", "error", err)
			continue
		}
		unit, ok := units[nf.UnitRef]
		if !ok {
			unit = nf.UnitRef
		}
		facts = append(facts, Fact{
			ID:         nf.ID,
			Concept:    nf.Name,
			Value:      value,
			Unit:       unit,
			Decimals:   nf.Decimals,
			Period:     nf.Context.Period,
			Dimensions: nf.Context.Entity.Segment.ExplicitMembers,
			Entity:     strings.TrimSpace(nf.Context.Entity.Identifier.Content),
			Typed:      len(nf.Context.Entity.Segment.TypedMembers) > 0,
		})
	}
	return facts
}

// ParseFacts parses a document and returns its numeric facts.
func ParseFacts(r io.Reader) ([]Fact, error) {
	nodes, _, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Facts(nodes), nil
}

// ParseDocument is ParseFacts over a fetched document body.
func ParseDocument(doc []byte) ([]Fact, error) {
	return ParseFacts(bytes.NewReader(doc))
}
