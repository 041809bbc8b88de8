package edgar

import (
	"encoding/json"
	"fmt"
)

// ConceptValue is one reported observation of an XBRL concept.
type ConceptValue struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    *int    `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
}

// ConceptResponse mirrors the companyconcept endpoint: every disclosure of
// one concept by one company, grouped by unit exactly as delivered.
type ConceptResponse struct {
	CIK         CIK                       `json:"cik"`
	Taxonomy    string                    `json:"taxonomy"`
	Tag         string                    `json:"tag"`
	Label       string                    `json:"label"`
	Description string                    `json:"description"`
	EntityName  string                    `json:"entityName"`
	Units       map[string][]ConceptValue `json:"units"`
}

// Fact is one tag of a company facts response.
type Fact struct {
	Label       string                    `json:"label"`
	Description string                    `json:"description"`
	Units       map[string][]ConceptValue `json:"units"`
}

// CompanyFacts mirrors the companyfacts endpoint. Facts is keyed by
// taxonomy, then tag, using the source's exact strings.
type CompanyFacts struct {
	CIK        CIK                        `json:"cik"`
	EntityName string                     `json:"entityName"`
	Facts      map[string]map[string]Fact `json:"facts"`
}

// FrameEntry is one company's value within a frame.
type FrameEntry struct {
	Accn       string  `json:"accn"`
	CIK        CIK     `json:"cik"`
	EntityName string  `json:"entityName"`
	Loc        string  `json:"loc"`
	End        string  `json:"end"`
	Val        float64 `json:"val"`
}

// Frame mirrors the frames endpoint: one concept, unit and period across
// every filer. Data is in source order.
type Frame struct {
	Taxonomy    string       `json:"taxonomy"`
	Tag         string       `json:"tag"`
	CCP         string       `json:"ccp"`
	UOM         string       `json:"uom"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Pts         int          `json:"pts"`
	Data        []FrameEntry `json:"data"`
}

func decode[T any](endpoint string, data []byte, validate func(*T) error) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &DeserializationError{Endpoint: endpoint, Err: err}
	}
	if err := validate(&v); err != nil {
		return nil, &DeserializationError{Endpoint: endpoint, Err: err}
	}
	return &v, nil
}

// DecodeCompanyConcept parses a companyconcept response.
func DecodeCompanyConcept(data []byte) (*ConceptResponse, error) {
	return decode(EndpointCompanyConcept, data, func(c *ConceptResponse) error {
		if c.Tag == "" {
			return fmt.Errorf("missing tag")
		}
		if c.Units == nil {
			c.Units = map[string][]ConceptValue{}
		}
		return nil
	})
}

// DecodeCompanyFacts parses a companyfacts response.
func DecodeCompanyFacts(data []byte) (*CompanyFacts, error) {
	return decode(EndpointCompanyFacts, data, func(f *CompanyFacts) error {
		if f.CIK == "" {
			return fmt.Errorf("missing cik")
		}
		if f.Facts == nil {
			f.Facts = map[string]map[string]Fact{}
		}
		return nil
	})
}

// DecodeFrame parses a frames response.
func DecodeFrame(data []byte) (*Frame, error) {
	return decode(EndpointFrames, data, func(f *Frame) error {
		if f.Tag == "" {
			return fmt.Errorf("missing tag")
		}
		return nil
	})
}
