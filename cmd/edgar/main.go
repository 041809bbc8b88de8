package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/saranrapjs/edgar-xbrl/pkg/config"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/history"
	"github.com/saranrapjs/edgar-xbrl/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(message.MatchLanguage("en"))

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edgar",
	Short: "Query SEC EDGAR filings and XBRL financial data",
	Long: `edgar reads company filing histories, XBRL facts and cross-company
frames from the SEC EDGAR API.

The SEC requires a User-Agent naming you and a contact address. Set it in
config.yaml as edgar.user_agent or with EDGAR_EDGAR_USER_AGENT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger.Init(&logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(inlineCmd)
	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

func newClient(c *config.Config) *edgar.EdgarClient {
	return edgar.NewEdgarClient(c.Edgar.UserAgent, c.Edgar.RateLimit,
		edgar.WithBaseURLs(c.Edgar.BaseURL, c.Edgar.WWWURL),
		edgar.WithTimeout(c.Edgar.Timeout))
}

func historyOptions(c *config.Config) []history.Option {
	return []history.Option{history.WithConcurrency(c.History.Concurrency)}
}

// resolveCIK accepts a CIK, optionally prefixed with "CIK", or a ticker
// symbol when arg otherwise contains letters.
func resolveCIK(ctx context.Context, client *edgar.EdgarClient, arg string) (edgar.CIK, error) {
	if digits := strings.TrimPrefix(strings.ToUpper(arg), "CIK"); !strings.ContainsFunc(digits, unicode.IsLetter) {
		cik, err := edgar.FormatCIK(digits)
		if err != nil {
			return "", err
		}
		return edgar.CIK(cik), nil
	}
	tickers, err := client.LoadCompanyTickers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tickers: %w", err)
	}
	return edgar.Ticker2CIK(tickers, arg)
}

func wantJSON(cmd *cobra.Command) bool {
	j, _ := cmd.Flags().GetBool("json")
	return j
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
