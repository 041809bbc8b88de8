package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saranrapjs/edgar-xbrl/pkg/config"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const submissionsJSON = `{
	"cik": "320193",
	"name": "Apple Inc.",
	"tickers": ["AAPL"],
	"exchanges": ["Nasdaq"],
	"filings": {
		"recent": {
			"accessionNumber": ["0000320193-24-000123", "0000320193-24-000081"],
			"filingDate": ["2024-11-01", "2024-08-02"],
			"reportDate": ["2024-09-28", "2024-06-29"],
			"form": ["10-K", "10-Q"],
			"size": [9614849, 6102431],
			"isInlineXBRL": [1, 1],
			"primaryDocument": ["aapl-20240928.htm", "aapl-20240629.htm"]
		},
		"files": [{"name": "CIK0000320193-submissions-001.json", "filingCount": 1}]
	}
}`

const continuationJSON = `{
	"accessionNumber": ["0000320193-15-000001"],
	"filingDate": ["2015-01-28"],
	"reportDate": ["2014-12-27"],
	"form": ["10-K"],
	"primaryDocument": ["aapl-20141227.htm"]
}`

const companyFactsJSON = `{
	"cik": 320193,
	"entityName": "Apple Inc.",
	"facts": {
		"us-gaap": {
			"Revenues": {
				"label": "Revenues",
				"units": {
					"USD": [
						{"start": "2022-09-25", "end": "2023-09-30", "val": 383285000000, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K", "filed": "2023-11-03"},
						{"start": "2023-07-02", "end": "2023-09-30", "val": 89498000000, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K", "filed": "2023-11-03"},
						{"start": "2024-03-31", "end": "2024-06-29", "val": 85777000000, "accn": "0000320193-24-000081", "fy": 2024, "fp": "Q3", "form": "10-Q", "filed": "2024-08-02"}
					]
				}
			}
		}
	}
}`

const frameJSON = `{
	"taxonomy": "us-gaap",
	"tag": "Revenues",
	"ccp": "CY2023",
	"uom": "USD",
	"label": "Revenues",
	"pts": 3,
	"data": [
		{"accn": "a", "cik": 1, "entityName": "Small Co", "loc": "US-NY", "end": "2023-12-31", "val": 10},
		{"accn": "b", "cik": 320193, "entityName": "Apple Inc.", "loc": "US-CA", "end": "2023-09-30", "val": 30},
		{"accn": "c", "cik": 2, "entityName": "Mid Co", "loc": "US-TX", "end": "2023-12-31", "val": 20}
	]
}`

const tickersJSON = `{"fields": ["cik", "name", "ticker", "exchange"], "data": [[320193, "Apple Inc.", "AAPL", "Nasdaq"]]}`

// newTestServer wires a Server to a fake SEC API.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	sec := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}
	}
	sec.HandleFunc("/submissions/CIK0000320193.json", serve(submissionsJSON))
	sec.HandleFunc("/submissions/CIK0000320193-submissions-001.json", serve(continuationJSON))
	sec.HandleFunc("/api/xbrl/companyfacts/CIK0000320193.json", serve(companyFactsJSON))
	sec.HandleFunc("/api/xbrl/frames/us-gaap/Revenues/USD/CY2023.json", serve(frameJSON))
	sec.HandleFunc("/api/xbrl/frames/us-gaap/Revenues/USD/CY2022.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	sec.HandleFunc("/www/files/company_tickers_exchange.json", serve(tickersJSON))

	upstream := httptest.NewServer(sec)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{History: config.HistoryConfig{Concurrency: 2}}
	client := edgar.NewEdgarClient("edgar-xbrl tests test@example.com", 100,
		edgar.WithBaseURLs(upstream.URL, upstream.URL+"/www"))
	return NewServer(cfg, client).Routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "healthy", decodeBody[map[string]string](t, rec)["status"])
}

func TestFilingsMergesContinuationFiles(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/cik/320193/filings")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[filingsResponse](t, rec)
	assert.Equal(t, edgar.CIK("0000320193"), resp.CIK)
	assert.Equal(t, "Apple Inc.", resp.Name)
	assert.Equal(t, []edgar.Listing{{Ticker: "AAPL", Exchange: "Nasdaq"}}, resp.Tickers)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "2024-11-01", resp.Filings[0].FilingDate)
	assert.Equal(t, "2015-01-28", resp.Filings[2].FilingDate)

	rec = get(t, h, "/cik/320193/filings?form=10-K&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[filingsResponse](t, rec)
	require.Len(t, resp.Filings, 1)
	assert.Equal(t, "0000320193-24-000123", resp.Filings[0].AccessionNumber)
}

func TestFilingsByTicker(t *testing.T) {
	rec := get(t, newTestServer(t), "/cik/aapl/filings?form=10-Q")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[filingsResponse](t, rec)
	require.Len(t, resp.Filings, 1)
	assert.Equal(t, "10-Q", resp.Filings[0].Form)
}

func TestFilingsEmptyFilterIsArray(t *testing.T) {
	rec := get(t, newTestServer(t), "/cik/CIK0000320193/filings?form=8-K")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filings":[]`)
}

func TestFacts(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/cik/320193/facts?form=10-K")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[factsResponse](t, rec)
	assert.Equal(t, "Apple Inc.", resp.EntityName)
	require.Equal(t, 2, resp.Count)
	for _, o := range resp.Observations {
		assert.Equal(t, "10-K", o.Value.Form)
		assert.Equal(t, "USD", o.Unit)
	}

	rec = get(t, h, "/cik/320193/facts?fy=2024&fp=Q3")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[factsResponse](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 85777000000.0, resp.Observations[0].Value.Val)

	rec = get(t, h, "/cik/320193/facts?fy=next")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFrame(t *testing.T) {
	rec := get(t, newTestServer(t), "/frames/us-gaap/Revenues/USD/CY2023?top=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[frameResponse](t, rec)
	assert.Equal(t, "CY2023", resp.CCP)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Apple Inc.", resp.Entries[0].EntityName)
	assert.Equal(t, "Mid Co", resp.Entries[1].EntityName)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 3, resp.Stats.Count)
	assert.InDelta(t, 20.0, resp.Stats.Mean, 1e-9)
	assert.InDelta(t, 20.0, resp.Stats.Median, 1e-9)
}

func TestFrameForCompany(t *testing.T) {
	rec := get(t, newTestServer(t), "/frames/us-gaap/Revenues/USD/CY2023?cik=320193")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[frameResponse](t, rec)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, 30.0, resp.Entries[0].Val)
}

func TestErrorResponses(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name       string
		path       string
		want       int
		retryAfter string
	}{
		{name: "cik too long", path: "/cik/12345678901/filings", want: http.StatusBadRequest},
		{name: "unknown ticker", path: "/cik/nope/filings", want: http.StatusNotFound},
		{name: "unknown company", path: "/cik/42/facts", want: http.StatusNotFound},
		{name: "bad period", path: "/frames/us-gaap/Revenues/USD/2023", want: http.StatusBadRequest},
		{name: "bad taxonomy", path: "/frames/made-up/Revenues/USD/CY2023", want: http.StatusBadRequest},
		{name: "rate limited", path: "/frames/us-gaap/Revenues/USD/CY2022", want: http.StatusServiceUnavailable, retryAfter: "30"},
		{name: "bad top", path: "/frames/us-gaap/Revenues/USD/CY2023?top=many", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid cik", fmt.Errorf("wrapped: %w", edgar.ErrInvalidCIK), http.StatusBadRequest},
		{"invalid period", edgar.ErrInvalidPeriod, http.StatusBadRequest},
		{"empty frame", frames.ErrEmptyFrame, http.StatusNotFound},
		{"upstream 404", &edgar.TransportError{Status: http.StatusNotFound}, http.StatusNotFound},
		{"upstream 429", &edgar.TransportError{Status: http.StatusTooManyRequests}, http.StatusServiceUnavailable},
		{"upstream 500", &edgar.TransportError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{"network", &edgar.TransportError{Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"decode", &edgar.DeserializationError{Endpoint: edgar.EndpointFrames, Err: errors.New("eof")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
