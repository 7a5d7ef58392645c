package cli

import (
	"fmt"
	"os"
	"strconv"

	"bda_portal_backend/internal/analytics"

	"github.com/spf13/cobra"
)

func newAnalysisCommand(app *App) *cobra.Command {
	var (
		from    string
		to      string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Show per-BDA performance (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			report, err := app.Client.BDAAnalysis(ctx, from, to, refresh)
			if err != nil {
				return err
			}
			return app.done(report, func() { app.printReport(report) })
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "to date, inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the server-side cached report")
	cmd.AddCommand(newAnalysisExportCommand(app))
	return cmd
}

func (a *App) printReport(r analytics.Report) {
	rows := make([][]string, 0, len(r.BDAs))
	for _, b := range r.BDAs {
		rows = append(rows, []string{
			b.Name,
			b.Email,
			strconv.Itoa(b.Claimed),
			strconv.Itoa(b.PaidCount),
			strconv.FormatFloat(b.ConversionRate, 'f', 1, 64) + "%",
			b.RevenueDisplay,
			b.IncentiveDisplay,
		})
	}
	a.table([]string{"BDA", "Email", "Claimed", "Paid", "Conversion", "Revenue", "Incentive"}, rows)
	t := r.Totals
	a.heading("%d leads, %d claimed, %d paid, revenue %s, incentives %s",
		t.Leads, t.Claimed, t.PaidCount, t.RevenueDisplay, t.IncentiveDisplay)
	if r.Cached {
		fmt.Fprintf(a.Out, "cached report from %s\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	}
}

func newAnalysisExportCommand(app *App) *cobra.Command {
	var (
		from string
		to   string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the analysis as an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			export, err := app.Client.ExportBDAAnalysis(ctx, from, to)
			if err != nil {
				return err
			}
			if export.Archived != nil {
				return app.done(export.Archived, func() {
					app.success("Stored %s", export.Archived.FileName)
					if export.Archived.Download != nil {
						fmt.Fprintln(app.Out, export.Archived.Download.URL)
					}
				})
			}
			if err := os.WriteFile(out, export.Workbook, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			app.success("Wrote %s (%d bytes)", out, len(export.Workbook))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "to date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "bda-analysis.xlsx", "output file")
	return cmd
}
