package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/saranrapjs/edgar-xbrl/pkg/db"
	"github.com/saranrapjs/edgar-xbrl/pkg/facts"
	"github.com/saranrapjs/edgar-xbrl/pkg/logger"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write filings, facts or frames into the SQLite export store",
}

var exportFilingsCmd = &cobra.Command{
	Use:   "filings <cik|ticker>",
	Short: "Export a company's complete filing history",
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
		_, filings, err := loadFilings(ctx, cfg, client, cik, useBulk)
		if err != nil {
			return err
		}
		store, err := db.New(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.ExportFilings(ctx, cik, filings)
		if err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "export %s: %d filings to %s\n", id, len(filings), cfg.DB.Path)
		return nil
	},
}

var exportFactsCmd = &cobra.Command{
	Use:   "facts <cik|ticker>",
	Short: "Export a company's XBRL observations",
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
		obs, err := selectObservations(cmd, companyFacts)
		if err != nil {
			return err
		}
		store, err := db.New(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.ExportObservations(ctx, cik, obs)
		if err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "export %s: %d observations to %s\n", id, len(obs), cfg.DB.Path)
		return nil
	},
}

var exportInlineCmd = &cobra.Command{
	Use:   "inline <cik|ticker>",
	Short: "Export facts read from the latest filing's inline XBRL",
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
		companyFacts, _, err := loadInlineFacts(ctx, cfg, client, cik, form)
		if err != nil {
			return err
		}
		obs := facts.Flatten(companyFacts)
		store, err := db.New(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.ExportObservations(ctx, cik, obs)
		if err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "export %s: %d observations to %s\n", id, len(obs), cfg.DB.Path)
		return nil
	},
}

var exportFrameCmd = &cobra.Command{
	Use:   "frame <taxonomy> <tag> <unit> <period>",
	Short: "Export every entry of a frame",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		frame, err := loadFrameArgs(ctx, newClient(cfg), args)
		if err != nil {
			return err
		}
		store, err := db.New(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.ExportFrame(ctx, frame)
		if err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "export %s: %d entries to %s\n", id, len(frame.Data), cfg.DB.Path)
		return nil
	},
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List previous export runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.New(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		exports, err := store.ListExports(cmd.Context())
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), exports)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tSUBJECT\tROWS\tCREATED")
		for _, e := range exports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Kind, e.Subject, printer.Sprintf("%d", e.Rows), e.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	exportFilingsCmd.Flags().Bool("bulk", false, "read from the nightly submissions archive instead of the API")

	exportFactsCmd.Flags().String("form", "", "only facts reported on this form, e.g. 10-K")
	exportFactsCmd.Flags().Int("fy", 0, "only facts for this fiscal year")
	exportFactsCmd.Flags().String("fp", "", "fiscal period for --fy (default FY)")
	exportFactsCmd.Flags().Bool("bulk", false, "read from the nightly companyfacts archive instead of the API")

	exportInlineCmd.Flags().String("form", "10-K", "form of the filing to read")

	exportCmd.AddCommand(exportFilingsCmd)
	exportCmd.AddCommand(exportFactsCmd)
	exportCmd.AddCommand(exportInlineCmd)
	exportCmd.AddCommand(exportFrameCmd)
	exportCmd.AddCommand(exportListCmd)
}
