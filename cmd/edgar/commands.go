package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/saranrapjs/edgar-xbrl/pkg/bulk"
	"github.com/saranrapjs/edgar-xbrl/pkg/config"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/facts"
	"github.com/saranrapjs/edgar-xbrl/pkg/frames"
	"github.com/saranrapjs/edgar-xbrl/pkg/history"
	"github.com/saranrapjs/edgar-xbrl/pkg/ixbrl"
	"github.com/saranrapjs/edgar-xbrl/pkg/logger"
	"github.com/spf13/cobra"
)

var filingsCmd = &cobra.Command{
	Use:   "filings <cik|ticker>",
	Short: "List a company's complete filing history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		cik, err := resolveCIK(ctx, client, args[0])
		if err != nil {
			return err
		}
		ctx = logger.WithCIK(ctx, string(cik))

		useBulk, _ := cmd.Flags().GetBool("bulk")
		submission, filings, err := loadFilings(ctx, cfg, client, cik, useBulk)
		if err != nil {
			return err
		}
		if form, _ := cmd.Flags().GetString("form"); form != "" {
			filings = history.FilterByForm(filings, form)
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(filings) > limit {
			filings = filings[:limit]
		}
		logger.Info(ctx, "loaded filings", "company", submission.Name, "count", len(filings))

		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), filings)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "%s (CIK %s)\n", submission.Name, submission.CIK)
		fmt.Fprintln(w, "FILED\tFORM\tREPORT\tSIZE\tURL")
		for _, f := range filings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.FilingDate, f.Form, f.ReportDate, humanize.Bytes(uint64(f.Size)), f.URL())
		}
		return w.Flush()
	},
}

// loadFilings reads a full filing history either from the API or from the
// nightly submissions archive.
func loadFilings(ctx context.Context, c *config.Config, client *edgar.EdgarClient, cik edgar.CIK, useBulk bool) (*edgar.SubmissionData, []edgar.Filing, error) {
	if !useBulk {
		return history.Load(ctx, client, string(cik), historyOptions(c)...)
	}
	archive, err := bulk.Open(ctx, c.Bulk.SubmissionsURL)
	if err != nil {
		return nil, nil, err
	}
	submission, err := archive.Submissions(ctx, string(cik))
	if err != nil {
		return nil, nil, err
	}
	filings, err := history.MergeAllFilings(ctx, submission, archive.PageFetcher(submission.CIK), historyOptions(c)...)
	if err != nil {
		return nil, nil, err
	}
	return submission, filings, nil
}

// loadCompanyFacts reads companyfacts from the API or the nightly archive.
func loadCompanyFacts(ctx context.Context, c *config.Config, client *edgar.EdgarClient, cik edgar.CIK, useBulk bool) (*edgar.CompanyFacts, error) {
	if !useBulk {
		return client.LoadCompanyFacts(ctx, string(cik))
	}
	archive, err := bulk.Open(ctx, c.Bulk.CompanyFactsURL)
	if err != nil {
		return nil, err
	}
	return archive.CompanyFacts(ctx, string(cik))
}

var conceptCmd = &cobra.Command{
	Use:   "concept <cik|ticker> <taxonomy> <tag>",
	Short: "Show every reported value of one concept",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		cik, err := resolveCIK(ctx, client, args[0])
		if err != nil {
			return err
		}
		taxonomy, ok := edgar.ParseTaxonomy(args[1])
		if !ok {
			return fmt.Errorf("unknown taxonomy %q", args[1])
		}
		concept, err := client.LoadCompanyConcept(ctx, string(cik), taxonomy, args[2])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), concept)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", concept.EntityName, concept.Label)
		units := facts.Units(concept)
		if unit, _ := cmd.Flags().GetString("unit"); unit != "" {
			units = []string{unit}
			if v, ok := facts.ConceptMostRecent(concept, unit); ok {
				printer.Fprintf(out, "most recent: %.2f %s (%s, %s)\n", v.Val, unit, v.End, v.Form)
			}
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UNIT\tSTART\tEND\tVALUE\tFY\tFP\tFORM\tFILED")
		for _, unit := range units {
			for _, v := range facts.ValuesForUnit(concept, unit) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					unit, v.Start, v.End, printer.Sprintf("%.2f", v.Val), fiscalYear(v), v.FP, v.Form, v.Filed)
			}
		}
		return w.Flush()
	},
}

var factsCmd = &cobra.Command{
	Use:   "facts <cik|ticker>",
	Short: "List a company's XBRL facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		cik, err := resolveCIK(ctx, client, args[0])
		if err != nil {
			return err
		}
		ctx = logger.WithCIK(ctx, string(cik))

		useBulk, _ := cmd.Flags().GetBool("bulk")
		companyFacts, err := loadCompanyFacts(ctx, cfg, client, cik, useBulk)
		if err != nil {
			return err
		}

		if tags, _ := cmd.Flags().GetBool("tags"); tags {
			if wantJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), tagsByTaxonomy(companyFacts))
			}
			printTags(cmd.OutOrStdout(), companyFacts)
			return nil
		}

		obs, err := selectObservations(cmd, companyFacts)
		if err != nil {
			return err
		}
		logger.Info(ctx, "selected facts", "company", companyFacts.EntityName, "count", len(obs))
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), obs)
		}
		return printObservations(cmd.OutOrStdout(), companyFacts.EntityName, obs)
	},
}

// selectObservations applies the --form, --fy and --fp flags.
func selectObservations(cmd *cobra.Command, f *edgar.CompanyFacts) ([]facts.Observation, error) {
	form, _ := cmd.Flags().GetString("form")
	fy, _ := cmd.Flags().GetInt("fy")
	fp, _ := cmd.Flags().GetString("fp")

	var obs []facts.Observation
	switch {
	case form != "" && fy != 0:
		return nil, fmt.Errorf("--form and --fy cannot be combined")
	case form != "":
		obs = facts.FactsForForm(f, form)
	case fy != 0:
		if fp == "" {
			fp = "FY"
		}
		obs = facts.FactsForFiscalPeriod(f, fy, fp)
	default:
		obs = facts.Flatten(f)
	}
	facts.SortByEnd(obs)
	return obs, nil
}

func printObservations(out io.Writer, entity string, obs []facts.Observation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s: %d facts\n", entity, len(obs))
	fmt.Fprintln(w, "TAXONOMY\tTAG\tUNIT\tEND\tVALUE\tFORM")
	for _, o := range obs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Taxonomy, o.Tag, o.Unit, o.Value.End, printer.Sprintf("%.2f", o.Value.Val), o.Value.Form)
	}
	return w.Flush()
}

// tagsByTaxonomy lists each taxonomy's tag names, sorted.
func tagsByTaxonomy(f *edgar.CompanyFacts) map[string][]string {
	out := make(map[string][]string)
	for _, taxonomy := range facts.Taxonomies(f) {
		out[taxonomy] = slices.Sorted(maps.Keys(facts.TagsForTaxonomy(f, taxonomy)))
	}
	return out
}

func printTags(out io.Writer, f *edgar.CompanyFacts) {
	tags := tagsByTaxonomy(f)
	for _, taxonomy := range facts.Taxonomies(f) {
		names := tags[taxonomy]
		fmt.Fprintf(out, "%s (%d tags)\n  %s\n", taxonomy, len(names), strings.Join(names, "\n  "))
	}
}

func fiscalYear(v edgar.ConceptValue) string {
	if v.FY == nil {
		return ""
	}
	return fmt.Sprint(*v.FY)
}

var frameCmd = &cobra.Command{
	Use:   "frame <taxonomy> <tag> <unit> <period>",
	Short: "Rank companies within a frame and summarize it",
	Long: `Loads one concept for one calendar period across every filer.

Units are either a single label (USD, shares, pure) or a ratio such as
USD-per-shares. Periods are CY2024, CY2024Q1 or CY2024Q1I.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		frame, err := loadFrameArgs(ctx, client, args)
		if err != nil {
			return err
		}

		entries := frame.Data
		if company, _ := cmd.Flags().GetString("cik"); company != "" {
			entries, err = frames.ValuesForCompany(entries, company)
			if err != nil {
				return err
			}
		} else {
			n, _ := cmd.Flags().GetInt("top")
			ascending, _ := cmd.Flags().GetBool("ascending")
			entries = frames.TopCompanies(entries, n, ascending)
		}
		stats, err := frames.Statistics(frame.Data)
		if err != nil {
			return err
		}

		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"frame":   frame.CCP,
				"entries": entries,
				"stats":   stats,
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s (%s, %s)\n", frame.Tag, frame.CCP, frame.UOM, frame.Label)
		printer.Fprintf(out, "%d companies  mean %.2f  median %.2f  stddev %.2f  min %.2f  max %.2f\n",
			stats.Count, stats.Mean, stats.Median, stats.StdDev, stats.Min, stats.Max)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CIK\tENTITY\tLOC\tEND\tVALUE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CIK, e.EntityName, e.Loc, e.End, printer.Sprintf("%.2f", e.Val))
		}
		return w.Flush()
	},
}

// loadFrameArgs validates taxonomy, unit and period arguments before any
// request is made.
func loadFrameArgs(ctx context.Context, client *edgar.EdgarClient, args []string) (*edgar.Frame, error) {
	taxonomy, ok := edgar.ParseTaxonomy(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown taxonomy %q", args[0])
	}
	period, err := edgar.ParsePeriod(args[3])
	if err != nil {
		return nil, err
	}
	return client.LoadFrame(ctx, taxonomy, args[1], edgar.ParseUnit(args[2]), period)
}

var inlineCmd = &cobra.Command{
	Use:   "inline <cik|ticker>",
	Short: "Read facts from the inline XBRL of the latest filing of a form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		cik, err := resolveCIK(ctx, client, args[0])
		if err != nil {
			return err
		}
		ctx = logger.WithCIK(ctx, string(cik))

		form, _ := cmd.Flags().GetString("form")
		companyFacts, filing, err := loadInlineFacts(ctx, cfg, client, cik, form)
		if err != nil {
			return err
		}
		obs := facts.Flatten(companyFacts)
		facts.SortByEnd(obs)
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), obs)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s filed %s\n%s\n", filing.Form, filing.AccessionNumber, filing.FilingDate, filing.URL())
		return printObservations(cmd.OutOrStdout(), companyFacts.EntityName, obs)
	},
}

// loadInlineFacts parses the primary document of the latest filing of form.
func loadInlineFacts(ctx context.Context, c *config.Config, client *edgar.EdgarClient, cik edgar.CIK, form string) (*edgar.CompanyFacts, edgar.Filing, error) {
	submission, filings, err := history.Load(ctx, client, string(cik), historyOptions(c)...)
	if err != nil {
		return nil, edgar.Filing{}, err
	}
	filing, ok := history.Latest(filings, form)
	if !ok {
		return nil, edgar.Filing{}, fmt.Errorf("%s has no %s filings", submission.Name, form)
	}
	if !filing.IsInlineXBRL {
		logger.Warn(ctx, "filing is not flagged as inline XBRL", "accession", filing.AccessionNumber)
	}
	doc, err := client.LoadDocument(ctx, filing)
	if err != nil {
		return nil, filing, err
	}
	parsed, err := ixbrl.ParseDocument(doc)
	if err != nil {
		return nil, filing, fmt.Errorf("failed to parse %s: %w", filing.URL(), err)
	}
	logger.Debug(ctx, "parsed inline XBRL", "accession", filing.AccessionNumber, "facts", len(parsed))
	return facts.FromInlineXBRL(submission.CIK, submission.Name, filing, parsed), filing, nil
}

var tickerCmd = &cobra.Command{
	Use:   "ticker <symbol|cik>",
	Short: "Map between ticker symbols and CIKs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient(cfg)
		if fund, _ := cmd.Flags().GetBool("fund"); fund {
			funds, err := client.LoadMutualFundTickers(ctx)
			if err != nil {
				return err
			}
			for _, f := range funds {
				if strings.EqualFold(f.Symbol, args[0]) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s CIK %s series %s class %s\n", f.Symbol, f.CIK, f.SeriesID, f.ClassID)
					return nil
				}
			}
			return fmt.Errorf("no fund with symbol %q", args[0])
		}

		tickers, err := client.LoadCompanyTickers(ctx)
		if err != nil {
			return err
		}
		if padded, err := edgar.FormatCIK(args[0]); err == nil {
			symbol, err := edgar.CIK2Ticker(tickers, edgar.CIK(padded))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), symbol)
			return nil
		}
		cik, err := edgar.Ticker2CIK(tickers, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cik)
		return nil
	},
}

func init() {
	filingsCmd.Flags().String("form", "", "only list filings of this form, e.g. 10-K")
	filingsCmd.Flags().Int("limit", 0, "maximum number of filings to list")
	filingsCmd.Flags().Bool("bulk", false, "read from the nightly submissions archive instead of the API")

	conceptCmd.Flags().String("unit", "", "only show values in this unit, e.g. USD")

	factsCmd.Flags().String("form", "", "only facts reported on this form, e.g. 10-K")
	factsCmd.Flags().Int("fy", 0, "only facts for this fiscal year")
	factsCmd.Flags().String("fp", "", "fiscal period for --fy: FY, Q1, Q2 or Q3 (default FY)")
	factsCmd.Flags().Bool("tags", false, "list taxonomies and tags instead of values")
	factsCmd.Flags().Bool("bulk", false, "read from the nightly companyfacts archive instead of the API")

	frameCmd.Flags().Int("top", 10, "number of companies to list")
	frameCmd.Flags().Bool("ascending", false, "list the lowest values first")
	frameCmd.Flags().String("cik", "", "list one company's entries instead of the top companies")

	inlineCmd.Flags().String("form", "10-K", "form of the filing to read")

	tickerCmd.Flags().Bool("fund", false, "look up a mutual fund share class symbol")
}
