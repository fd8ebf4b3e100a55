package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	trendDays   int
	parquetPath string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Push history reports over a DuckDB mirror",
	Long: `Mirrors the document tables into DuckDB and reports on publish activity.

Run "consoleblue analytics export" to refresh the mirror before reading stats.`,
}

var analyticsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Rebuild the DuckDB mirror from SQLite",
	RunE:  runAnalyticsExport,
}

var analyticsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-project publish counts",
	RunE:  runAnalyticsStats,
}

var analyticsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Daily publish successes and failures",
	RunE:  runAnalyticsTrend,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsExportCmd, analyticsStatsCmd, analyticsTrendCmd)

	analyticsExportCmd.Flags().StringVar(&parquetPath, "parquet", "", "also write the push history to this parquet file")
	analyticsTrendCmd.Flags().IntVar(&trendDays, "days", 30, "days to include")
}

func runAnalyticsExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.analytics.Export(cmd.Context())
	if err != nil {
		return err
	}
	if parquetPath != "" {
		if err := a.analytics.ExportParquet(cmd.Context(), parquetPath); err != nil {
			return err
		}
	}
	if jsonOut {
		return printJSON(result)
	}

	printOK("Mirrored %d tables to %s", result.TablesProcessed, a.analytics.Path())
	for table, n := range result.RowsMigrated {
		fmt.Printf("  %-14s %d rows\n", table, n)
	}
	for _, e := range result.Errors {
		printFail("%s", e)
	}
	if result.BackupPath != "" {
		fmt.Printf("  previous mirror kept at %s\n", result.BackupPath)
	}
	if parquetPath != "" {
		fmt.Printf("  parquet:       %s\n", parquetPath)
	}
	return nil
}

func runAnalyticsStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.analytics.ProjectStats(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(stats)
	}

	fmt.Println(titleStyle.Render("Publish activity"))
	fmt.Printf("  %-24s %6s %6s %6s %6s %8s  %s\n", "PROJECT", "TOTAL", "OK", "ERR", "AUTO", "SUCCESS", "LAST PUSH")
	for _, s := range stats {
		last := "-"
		if s.LastPushedAt != nil {
			last = s.LastPushedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("  %-24s %6d %6d %6d %6d %7.1f%%  %s\n", s.Slug, s.Total, s.Succeeded, s.Failed, s.AutoPushes, s.SuccessRate(), last)
	}
	return nil
}

func runAnalyticsTrend(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	points, err := a.analytics.Trend(cmd.Context(), trendDays)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(points)
	}
	if len(points) == 0 {
		fmt.Println("No pushes in range.")
		return nil
	}
	for _, p := range points {
		fmt.Printf("  %s  %s %s\n", p.Day, successStyle.Render(fmt.Sprintf("%4d ok", p.Succeeded)), errorStyle.Render(fmt.Sprintf("%4d err", p.Failed)))
	}
	return nil
}
