package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/apiprobe/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/apiprobe/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with saved scan reports",
}

var reportRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render a saved scan_report.json as json, md or pdf",
	Example: `  apiprobe report render --input ./report/scan_report.json --format pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		input, _ := cmd.Flags().GetString("input")
		formatValues, _ := cmd.Flags().GetStringSlice("format")

		if input == "" {
			return fmt.Errorf("--input is required")
		}
		formats, err := report.ParseFormats(splitList(formatValues))
		if err != nil {
			return err
		}

		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("resolve input: %w", err)
		}
		repo, err := json.NewReportRepository(filepath.Dir(abs))
		if err != nil {
			return err
		}
		run, assessment, err := repo.Load(cmd.Context(), filepath.Base(abs))
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}

		writer := report.NewWriter(repo, Version, appCtx.Logger)
		paths, err := writer.WriteAll(cmd.Context(), run, assessment, formats)
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Report generated: %s\n", colorSuccess("✓"), p)
		}
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (Grade: %s)\n", run.ID(), assessment.ConfidenceLabel(), assessment.Grade)
		return nil
	},
}

func init() {
	reportRenderCmd.Flags().String("input", "", "path to a saved scan_report.json")
	reportRenderCmd.Flags().StringSlice("format", []string{"md"}, "output formats: json, md, pdf")
	reportCmd.AddCommand(reportRenderCmd)
}
