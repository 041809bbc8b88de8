package edgar

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TickerEntry is one row of company_tickers_exchange.json.
type TickerEntry struct {
	CIK      CIK
	Name     string
	Ticker   string
	Exchange string
}

// MutualFundEntry is one row of company_tickers_mf.json.
type MutualFundEntry struct {
	CIK      CIK
	SeriesID string
	ClassID  string
	Symbol   string
}

// tabular is the {"fields": [...], "data": [[...], ...]} shape both ticker
// files share.
type tabular struct {
	Fields []string            `json:"fields"`
	Data   [][]json.RawMessage `json:"data"`
}

func (t tabular) rows(endpoint string, fields []string) ([][]json.RawMessage, error) {
	if len(t.Fields) != len(fields) {
		return nil, &DeserializationError{Endpoint: endpoint, Err: fmt.Errorf("unexpected fields %v", t.Fields)}
	}
	for i, row := range t.Data {
		if len(row) != len(fields) {
			return nil, &DeserializationError{Endpoint: endpoint, Err: fmt.Errorf("row %d has %d values, want %d", i, len(row), len(fields))}
		}
	}
	return t.Data, nil
}

// optionalString decodes a string cell, treating null as empty.
func optionalString(raw json.RawMessage) (string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}

// DecodeCompanyTickers parses company_tickers_exchange.json.
func DecodeCompanyTickers(data []byte) ([]TickerEntry, error) {
	var t tabular
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &DeserializationError{Endpoint: EndpointCompanyTickers, Err: err}
	}
	rows, err := t.rows(EndpointCompanyTickers, []string{"cik", "name", "ticker", "exchange"})
	if err != nil {
		return nil, err
	}

	entries := make([]TickerEntry, 0, len(rows))
	for i, row := range rows {
		var e TickerEntry
		if err := json.Unmarshal(row[0], &e.CIK); err != nil {
			return nil, &DeserializationError{Endpoint: EndpointCompanyTickers, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		if err := json.Unmarshal(row[1], &e.Name); err != nil {
			return nil, &DeserializationError{Endpoint: EndpointCompanyTickers, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		if err := json.Unmarshal(row[2], &e.Ticker); err != nil {
			return nil, &DeserializationError{Endpoint: EndpointCompanyTickers, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		// Some listings have no exchange.
		if e.Exchange, err = optionalString(row[3]); err != nil {
			return nil, &DeserializationError{Endpoint: EndpointCompanyTickers, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DecodeMutualFundTickers parses company_tickers_mf.json.
func DecodeMutualFundTickers(data []byte) ([]MutualFundEntry, error) {
	var t tabular
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &DeserializationError{Endpoint: EndpointMutualFundTicks, Err: err}
	}
	rows, err := t.rows(EndpointMutualFundTicks, []string{"cik", "seriesId", "classId", "symbol"})
	if err != nil {
		return nil, err
	}

	entries := make([]MutualFundEntry, 0, len(rows))
	for i, row := range rows {
		var e MutualFundEntry
		for j, dst := range []any{&e.CIK, &e.SeriesID, &e.ClassID, &e.Symbol} {
			if err := json.Unmarshal(row[j], dst); err != nil {
				return nil, &DeserializationError{Endpoint: EndpointMutualFundTicks, Err: fmt.Errorf("row %d: %w", i, err)}
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Ticker2CIK returns the CIK listed for a ticker symbol, ignoring case.
func Ticker2CIK(entries []TickerEntry, ticker string) (CIK, error) {
	for _, e := range entries {
		if strings.EqualFold(e.Ticker, ticker) {
			return e.CIK, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
}

// CIK2Ticker returns the first ticker listed for a CIK.
func CIK2Ticker(entries []TickerEntry, cik CIK) (string, error) {
	for _, e := range entries {
		if e.CIK == cik {
			return e.Ticker, nil
		}
	}
	return "", fmt.Errorf("%w: no ticker for CIK %s", ErrTickerNotFound, cik)
}
