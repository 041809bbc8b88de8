package edgar

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Filing is one row of a company's filing history.
type Filing struct {
	CIK                   CIK    `json:"cik,omitempty"`
	AccessionNumber       string `json:"accessionNumber,omitempty"`
	FilingDate            string `json:"filingDate"`
	ReportDate            string `json:"reportDate"`
	AcceptanceDateTime    string `json:"acceptanceDateTime,omitempty"`
	Form                  string `json:"form"`
	FileNumber            string `json:"fileNumber,omitempty"`
	FilmNumber            string `json:"filmNumber,omitempty"`
	Items                 string `json:"items,omitempty"`
	Size                  int64  `json:"size,omitempty"`
	IsXBRL                bool   `json:"isXBRL,omitempty"`
	IsInlineXBRL          bool   `json:"isInlineXBRL,omitempty"`
	PrimaryDocument       string `json:"primaryDocument,omitempty"`
	PrimaryDocDescription string `json:"primaryDocDescription,omitempty"`
}

// URL points at the filing's primary document in the EDGAR archives.
func (f Filing) URL() string {
	return "https://www.sec.gov/" + f.ArchivePath()
}

// ArchivePath is the path of the primary document below the www host.
func (f Filing) ArchivePath() string {
	accessionNumber := strings.ReplaceAll(f.AccessionNumber, "-", "")
	return fmt.Sprintf("Archives/edgar/data/%s/%s/%s",
		f.CIK.Unpadded(), accessionNumber, f.PrimaryDocument)
}

// FilingsPage mirrors the columnar "recent" object of a submissions
// response. Continuation files have exactly this shape at the top level.
type FilingsPage struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	AcceptanceDateTime    []string `json:"acceptanceDateTime"`
	Act                   []string `json:"act"`
	Form                  []string `json:"form"`
	FileNumber            []string `json:"fileNumber"`
	FilmNumber            []string `json:"filmNumber"`
	Items                 []string `json:"items"`
	Size                  []int64  `json:"size"`
	IsXBRL                []int    `json:"isXBRL"`
	IsInlineXBRL          []int    `json:"isInlineXBRL"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// Len is the number of filings in the page.
func (p FilingsPage) Len() int {
	return len(p.Form)
}

func (p FilingsPage) check() error {
	n := p.Len()
	if len(p.FilingDate) != n {
		return fmt.Errorf("%w: %d forms but %d filing dates", ErrColumnMismatch, n, len(p.FilingDate))
	}
	optional := map[string]int{
		"accessionNumber":       len(p.AccessionNumber),
		"reportDate":            len(p.ReportDate),
		"acceptanceDateTime":    len(p.AcceptanceDateTime),
		"fileNumber":            len(p.FileNumber),
		"filmNumber":            len(p.FilmNumber),
		"items":                 len(p.Items),
		"size":                  len(p.Size),
		"isXBRL":                len(p.IsXBRL),
		"isInlineXBRL":          len(p.IsInlineXBRL),
		"primaryDocument":       len(p.PrimaryDocument),
		"primaryDocDescription": len(p.PrimaryDocDescription),
	}
	for column, l := range optional {
		if l != 0 && l != n {
			return fmt.Errorf("%w: %d forms but %d values in %s", ErrColumnMismatch, n, l, column)
		}
	}
	return nil
}

func at[T any](col []T, i int) T {
	var zero T
	if i < len(col) {
		return col[i]
	}
	return zero
}

// Index returns row i of the page as a Filing.
func (p FilingsPage) Index(i int) Filing {
	return Filing{
		AccessionNumber:       at(p.AccessionNumber, i),
		FilingDate:            p.FilingDate[i],
		ReportDate:            at(p.ReportDate, i),
		AcceptanceDateTime:    at(p.AcceptanceDateTime, i),
		Form:                  p.Form[i],
		FileNumber:            at(p.FileNumber, i),
		FilmNumber:            at(p.FilmNumber, i),
		Items:                 at(p.Items, i),
		Size:                  at(p.Size, i),
		IsXBRL:                at(p.IsXBRL, i) == 1,
		IsInlineXBRL:          at(p.IsInlineXBRL, i) == 1,
		PrimaryDocument:       at(p.PrimaryDocument, i),
		PrimaryDocDescription: at(p.PrimaryDocDescription, i),
	}
}

// Filings zips the page's columns into rows, preserving source order.
func (p FilingsPage) Filings(cik CIK) ([]Filing, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	filings := make([]Filing, p.Len())
	for i := range filings {
		filings[i] = p.Index(i)
		filings[i].CIK = cik
	}
	return filings, nil
}

// FileInfo describes one continuation file of a company's filing history.
type FileInfo struct {
	Name        string `json:"name"`
	FilingCount int    `json:"filingCount"`
	FilingFrom  string `json:"filingFrom"`
	FilingTo    string `json:"filingTo"`
}

type FormerName struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Submissions mirrors the submissions endpoint response.
type Submissions struct {
	CIK            CIK          `json:"cik"`
	EntityType     string       `json:"entityType"`
	SIC            string       `json:"sic"`
	SICDescription string       `json:"sicDescription"`
	Name           string       `json:"name"`
	Tickers        []string     `json:"tickers"`
	Exchanges      []string     `json:"exchanges"`
	FormerNames    []FormerName `json:"formerNames"`
	Filings        struct {
		Recent FilingsPage `json:"recent"`
		Files  []FileInfo  `json:"files"`
	} `json:"filings"`
}

// Listing is a ticker symbol and the exchange it trades on.
type Listing struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange"`
}

// SubmissionData is a company's identity plus the first page of its
// filing history and the names of the pages that continue it.
type SubmissionData struct {
	CIK               CIK          `json:"cik"`
	Name              string       `json:"name"`
	EntityType        string       `json:"entityType,omitempty"`
	SIC               string       `json:"sic,omitempty"`
	SICDescription    string       `json:"sicDescription,omitempty"`
	Tickers           []Listing    `json:"tickers"`
	FormerNames       []FormerName `json:"formerNames,omitempty"`
	Recent            []Filing     `json:"recent"`
	ContinuationFiles []FileInfo   `json:"continuationFiles,omitempty"`
}

// ContinuationNames lists continuation file names in source order.
func (s *SubmissionData) ContinuationNames() []string {
	names := make([]string, len(s.ContinuationFiles))
	for i, f := range s.ContinuationFiles {
		names[i] = f.Name
	}
	return names
}

// Normalize pairs tickers with exchanges and zips the recent filings.
func (s *Submissions) Normalize() (*SubmissionData, error) {
	if len(s.Tickers) != len(s.Exchanges) {
		return nil, fmt.Errorf("%w: %d tickers, %d exchanges", ErrTickerMismatch, len(s.Tickers), len(s.Exchanges))
	}
	listings := make([]Listing, len(s.Tickers))
	for i, ticker := range s.Tickers {
		listings[i] = Listing{Ticker: ticker, Exchange: s.Exchanges[i]}
	}

	recent, err := s.Filings.Recent.Filings(s.CIK)
	if err != nil {
		return nil, err
	}

	return &SubmissionData{
		CIK:               s.CIK,
		Name:              s.Name,
		EntityType:        s.EntityType,
		SIC:               s.SIC,
		SICDescription:    s.SICDescription,
		Tickers:           listings,
		FormerNames:       s.FormerNames,
		Recent:            recent,
		ContinuationFiles: s.Filings.Files,
	}, nil
}

// DecodeSubmissions parses a submissions response.
func DecodeSubmissions(data []byte) (*SubmissionData, error) {
	var raw Submissions
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DeserializationError{Endpoint: EndpointSubmissions, Err: err}
	}
	if raw.CIK == "" {
		return nil, &DeserializationError{Endpoint: EndpointSubmissions, Err: fmt.Errorf("missing cik")}
	}
	submission, err := raw.Normalize()
	if err != nil {
		return nil, &DeserializationError{Endpoint: EndpointSubmissions, Err: err}
	}
	return submission, nil
}

// DecodeFilingsPage parses a continuation file. The file carries no
// company metadata, so the owning CIK is passed in.
func DecodeFilingsPage(data []byte, cik CIK) ([]Filing, error) {
	var page FilingsPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, &DeserializationError{Endpoint: EndpointFilingsPage, Err: err}
	}
	filings, err := page.Filings(cik)
	if err != nil {
		return nil, &DeserializationError{Endpoint: EndpointFilingsPage, Err: err}
	}
	return filings, nil
}
