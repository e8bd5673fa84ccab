package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"netnuke/internal/reporting"
)

var reportsCmd = &cobra.Command{
	Use:   "reports [файл отчёта]",
	Short: "Показать сохранённые отчёты",
	Example: `  netnuke reports
  netnuke reports ./reports/netnuke_report_20240101_120000_1a2b3c4d.json.zst
  netnuke reports --dir /var/lib/netnuke --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().String("dir", "", "Каталог отчётов (по умолчанию reporting.local_path)")
	reportsCmd.Flags().Bool("save", false, "Сохранить агрегированный отчёт")
}

func runReports(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		report, err := reporting.LoadReport(args[0])
		if err != nil {
			return err
		}

		return reporting.WriteSummary(out, report)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := setup(cfg)
	if err != nil {
		return err
	}
	defer deps.logger.Close() //nolint:errcheck

	dir, _ := cmd.Flags().GetString("dir")

	agg, err := deps.app.Reports(dir)
	if err != nil {
		return err
	}

	if err := reporting.WriteAggregatedSummary(out, agg); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		path, err := reporting.SaveAggregatedReport(agg, cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Агрегированный отчёт сохранён: %s\n", path)
	}

	return nil
}
