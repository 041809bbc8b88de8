package edgar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultDataURL = "https://data.sec.gov"
	DefaultWWWURL  = "https://www.sec.gov"
)

// EdgarClient handles communications with Edgar APIs with rate limiting
type EdgarClient struct {
	userAgent  string
	httpClient *http.Client
	dataURL    string
	wwwURL     string
}

// rateLimitedTransport wraps an HTTP transport with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface with rate limiting
func (r *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return r.transport.RoundTrip(req)
}

// ClientOption customizes an EdgarClient.
type ClientOption func(*EdgarClient)

// WithBaseURLs points the client at other hosts, e.g. a proxy or a test
// server, in place of data.sec.gov and www.sec.gov.
func WithBaseURLs(dataURL, wwwURL string) ClientOption {
	return func(c *EdgarClient) {
		if dataURL != "" {
			c.dataURL = strings.TrimRight(dataURL, "/")
		}
		if wwwURL != "" {
			c.wwwURL = strings.TrimRight(wwwURL, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *EdgarClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewEdgarClient creates a new Edgar API client with rate limiting
func NewEdgarClient(userAgent string, rateLimit int, opts ...ClientOption) *EdgarClient {
	if rateLimit <= 0 {
		rateLimit = 10 // SEC fair access limit
	}

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}

	c := &EdgarClient{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		dataURL: DefaultDataURL,
		wwwURL:  DefaultWWWURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches path below the data host and returns the raw body. Any
// failure, including a non-2xx status, is a *TransportError.
func (c *EdgarClient) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.get(ctx, c.dataURL, path, query)
}

func (c *EdgarClient) get(ctx context.Context, base, path string, query url.Values) ([]byte, error) {
	u := base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{URL: u, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	slog.DebugContext(ctx, "edgar request", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{
			Status:     resp.StatusCode,
			URL:        u,
			Message:    strings.TrimSpace(string(body)),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, URL: u, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return content, nil
}

// LoadSubmissions fetches a company's identity and first page of filings.
func (c *EdgarClient) LoadSubmissions(ctx context.Context, cik string) (*SubmissionData, error) {
	formattedCIK, err := FormatCIK(cik)
	if err != nil {
		return nil, err
	}
	body, err := c.Get(ctx, fmt.Sprintf("submissions/CIK%s.json", formattedCIK), nil)
	if err != nil {
		return nil, err
	}
	return DecodeSubmissions(body)
}

// LoadFilingsPage fetches one continuation file named in a submissions
// response.
func (c *EdgarClient) LoadFilingsPage(ctx context.Context, cik CIK, filename string) ([]Filing, error) {
	body, err := c.Get(ctx, "submissions/"+url.PathEscape(filename), nil)
	if err != nil {
		return nil, err
	}
	return DecodeFilingsPage(body, cik)
}

// LoadCompanyConcept fetches every disclosure of one concept for a company.
func (c *EdgarClient) LoadCompanyConcept(ctx context.Context, cik string, taxonomy Taxonomy, tag string) (*ConceptResponse, error) {
	formattedCIK, err := FormatCIK(cik)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("api/xbrl/companyconcept/CIK%s/%s/%s.json",
		formattedCIK, url.PathEscape(string(taxonomy)), url.PathEscape(tag))
	body, err := c.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeCompanyConcept(body)
}

// LoadCompanyFacts fetches every fact a company has reported.
func (c *EdgarClient) LoadCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	formattedCIK, err := FormatCIK(cik)
	if err != nil {
		return nil, err
	}
	body, err := c.Get(ctx, fmt.Sprintf("api/xbrl/companyfacts/CIK%s.json", formattedCIK), nil)
	if err != nil {
		return nil, err
	}
	return DecodeCompanyFacts(body)
}

// LoadFrame fetches one concept, unit and period across all filers.
func (c *EdgarClient) LoadFrame(ctx context.Context, taxonomy Taxonomy, tag string, unit Unit, period Period) (*Frame, error) {
	path := fmt.Sprintf("api/xbrl/frames/%s/%s/%s/%s.json",
		url.PathEscape(string(taxonomy)), url.PathEscape(tag), url.PathEscape(unit.String()), period)
	body, err := c.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeFrame(body)
}

// LoadCompanyTickers fetches the ticker to CIK and exchange listing.
func (c *EdgarClient) LoadCompanyTickers(ctx context.Context) ([]TickerEntry, error) {
	body, err := c.get(ctx, c.wwwURL, "files/company_tickers_exchange.json", nil)
	if err != nil {
		return nil, err
	}
	return DecodeCompanyTickers(body)
}

// LoadMutualFundTickers fetches the mutual fund symbol listing.
func (c *EdgarClient) LoadMutualFundTickers(ctx context.Context) ([]MutualFundEntry, error) {
	body, err := c.get(ctx, c.wwwURL, "files/company_tickers_mf.json", nil)
	if err != nil {
		return nil, err
	}
	return DecodeMutualFundTickers(body)
}

// LoadDocument fetches a filing's primary document.
func (c *EdgarClient) LoadDocument(ctx context.Context, filing Filing) ([]byte, error) {
	if filing.PrimaryDocument == "" || filing.AccessionNumber == "" {
		return nil, fmt.Errorf("filing %s on %s has no primary document", filing.Form, filing.FilingDate)
	}
	return c.get(ctx, c.wwwURL, filing.ArchivePath(), nil)
}
