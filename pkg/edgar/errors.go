package edgar

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCIK is returned when a CIK has no digits or more than ten.
	ErrInvalidCIK = errors.New("invalid CIK")

	// ErrInvalidPeriod is returned by ParsePeriod for malformed frame period codes.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrTickerNotFound is returned by ticker lookups with no match.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrTickerMismatch means the tickers and exchanges arrays of a submissions
	// response have different lengths, so they can't be paired safely.
	ErrTickerMismatch = errors.New("tickers and exchanges differ in length")

	// ErrColumnMismatch means the columnar filings arrays are ragged.
	ErrColumnMismatch = errors.New("filing columns differ in length")
)

// Endpoint names used to identify where a DeserializationError came from.
const (
	EndpointSubmissions     = "submissions"
	EndpointFilingsPage     = "submissions-file"
	EndpointCompanyConcept  = "companyconcept"
	EndpointCompanyFacts    = "companyfacts"
	EndpointFrames          = "frames"
	EndpointCompanyTickers  = "company_tickers_exchange"
	EndpointMutualFundTicks = "company_tickers_mf"
)

// TransportError is any failure to get a successful response from the API:
// a network error (Status is 0) or a non-2xx status.
type TransportError struct {
	Status  int
	URL     string
	Message string
	// RetryAfter is the raw Retry-After header of a 429 response, if any.
	RetryAfter string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("SEC API returned status %d for %s: %s", e.Status, e.URL, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the API rejected the request with 429.
func (e *TransportError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// Transient reports whether retrying the same request could succeed.
// The client itself never retries.
func (e *TransportError) Transient() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// DeserializationError means the response bytes did not match the shape
// expected for Endpoint. No partially populated value accompanies it.
type DeserializationError struct {
	Endpoint string
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Endpoint, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
