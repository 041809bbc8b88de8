package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/saranrapjs/edgar-xbrl/pkg/config"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/facts"
	"github.com/saranrapjs/edgar-xbrl/pkg/frames"
	"github.com/saranrapjs/edgar-xbrl/pkg/history"
	"github.com/saranrapjs/edgar-xbrl/pkg/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve filings, facts and frames as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           NewServer(cfg, newClient(cfg)).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info(ctx, "starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default from server.port)")
}

// Server answers JSON queries against the EDGAR API.
type Server struct {
	cfg    *config.Config
	client *edgar.EdgarClient
}

func NewServer(cfg *config.Config, client *edgar.EdgarClient) *Server {
	return &Server{cfg: cfg, client: client}
}

// Routes sets up the handlers using pattern syntax.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cik/{cik}/filings", s.handleFilings)
	mux.HandleFunc("GET /cik/{cik}/facts", s.handleFacts)
	mux.HandleFunc("GET /cik/{cik}/concept/{taxonomy}/{tag}", s.handleConcept)
	mux.HandleFunc("GET /ticker/{ticker}", s.handleTicker)
	mux.HandleFunc("GET /frames/{taxonomy}/{tag}/{unit}/{period}", s.handleFrame)
	mux.HandleFunc("GET /health", s.handleHealth)
	return withRequestID(mux)
}

// withRequestID tags each request's log lines with a fresh ID.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), logger.RequestIDKey, id)
		logger.Debug(ctx, "request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// errorStatus maps library errors onto HTTP statuses.
func errorStatus(err error) int {
	var te *edgar.TransportError
	switch {
	case errors.Is(err, edgar.ErrInvalidCIK), errors.Is(err, edgar.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, edgar.ErrTickerNotFound), errors.Is(err, frames.ErrEmptyFrame):
		return http.StatusNotFound
	case errors.As(err, &te):
		switch {
		case te.Status == http.StatusNotFound:
			return http.StatusNotFound
		case te.RateLimited():
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	var te *edgar.TransportError
	if errors.As(err, &te) && te.RateLimited() && te.RetryAfter != "" {
		w.Header().Set("Retry-After", te.RetryAfter)
	}
	if status >= 500 {
		logger.Warn(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeResponse(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(r.Context(), "failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// cik resolves the {cik} path value, which may also be a ticker.
func (s *Server) cik(r *http.Request) (edgar.CIK, context.Context, error) {
	cik, err := resolveCIK(r.Context(), s.client, strings.ToUpper(r.PathValue("cik")))
	if err != nil {
		return "", nil, err
	}
	return cik, logger.WithCIK(r.Context(), string(cik)), nil
}

type filingsResponse struct {
	CIK     edgar.CIK       `json:"cik"`
	Name    string          `json:"name"`
	Tickers []edgar.Listing `json:"tickers"`
	Count   int             `json:"count"`
	Filings []edgar.Filing  `json:"filings"`
}

// handleFilings handles GET /cik/{cik}/filings?form=&limit=
func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	cik, ctx, err := s.cik(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	submission, filings, err := history.Load(ctx, s.client, string(cik), historyOptions(s.cfg)...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if form := r.URL.Query().Get("form"); form != "" {
		filings = history.FilterByForm(filings, form)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		if limit > 0 && len(filings) > limit {
			filings = filings[:limit]
		}
	}
	if filings == nil {
		filings = []edgar.Filing{}
	}
	writeResponse(w, r, filingsResponse{
		CIK:     submission.CIK,
		Name:    submission.Name,
		Tickers: submission.Tickers,
		Count:   len(filings),
		Filings: filings,
	})
}

type factsResponse struct {
	CIK          edgar.CIK           `json:"cik"`
	EntityName   string              `json:"entityName"`
	Count        int                 `json:"count"`
	Observations []facts.Observation `json:"observations"`
}

// handleFacts handles GET /cik/{cik}/facts?form=&fy=&fp=
func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	cik, ctx, err := s.cik(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	companyFacts, err := s.client.LoadCompanyFacts(ctx, string(cik))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	var obs []facts.Observation
	switch {
	case q.Get("form") != "":
		obs = facts.FactsForForm(companyFacts, q.Get("form"))
	case q.Get("fy") != "":
		fy, err := strconv.Atoi(q.Get("fy"))
		if err != nil {
			badRequest(w, "fy must be a year")
			return
		}
		fp := q.Get("fp")
		if fp == "" {
			fp = "FY"
		}
		obs = facts.FactsForFiscalPeriod(companyFacts, fy, fp)
	default:
		obs = facts.Flatten(companyFacts)
	}
	facts.SortByEnd(obs)
	if obs == nil {
		obs = []facts.Observation{}
	}
	writeResponse(w, r, factsResponse{
		CIK:          companyFacts.CIK,
		EntityName:   companyFacts.EntityName,
		Count:        len(obs),
		Observations: obs,
	})
}

// handleConcept handles GET /cik/{cik}/concept/{taxonomy}/{tag}
func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	cik, ctx, err := s.cik(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	taxonomy, ok := edgar.ParseTaxonomy(r.PathValue("taxonomy"))
	if !ok {
		badRequest(w, fmt.Sprintf("unknown taxonomy %q", r.PathValue("taxonomy")))
		return
	}
	concept, err := s.client.LoadCompanyConcept(ctx, string(cik), taxonomy, r.PathValue("tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, r, concept)
}

// handleTicker handles GET /ticker/{ticker}
func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	tickers, err := s.client.LoadCompanyTickers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cik, err := edgar.Ticker2CIK(tickers, ticker)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, r, map[string]string{"ticker": ticker, "cik": string(cik)})
}

type frameResponse struct {
	Taxonomy string             `json:"taxonomy"`
	Tag      string             `json:"tag"`
	CCP      string             `json:"ccp"`
	UOM      string             `json:"uom"`
	Label    string             `json:"label"`
	Stats    *frames.Stats      `json:"stats"`
	Entries  []edgar.FrameEntry `json:"entries"`
}

// handleFrame handles GET /frames/{taxonomy}/{tag}/{unit}/{period}?top=&ascending=&cik=
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	args := []string{r.PathValue("taxonomy"), r.PathValue("tag"), r.PathValue("unit"), r.PathValue("period")}
	if _, ok := edgar.ParseTaxonomy(args[0]); !ok {
		badRequest(w, fmt.Sprintf("unknown taxonomy %q", args[0]))
		return
	}
	frame, err := loadFrameArgs(r.Context(), s.client, args)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	entries := frame.Data
	if company := q.Get("cik"); company != "" {
		entries, err = frames.ValuesForCompany(entries, company)
		if err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		n := 10
		if raw := q.Get("top"); raw != "" {
			if n, err = strconv.Atoi(raw); err != nil {
				badRequest(w, "top must be an integer")
				return
			}
		}
		entries = frames.TopCompanies(entries, n, q.Get("ascending") == "true")
	}

	resp := frameResponse{
		Taxonomy: frame.Taxonomy,
		Tag:      frame.Tag,
		CCP:      frame.CCP,
		UOM:      frame.UOM,
		Label:    frame.Label,
		Entries:  entries,
	}
	if stats, err := frames.Statistics(frame.Data); err == nil {
		resp.Stats = &stats
	}
	writeResponse(w, r, resp)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, map[string]string{"status": "healthy"})
}
