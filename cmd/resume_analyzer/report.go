package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-analyzer/internal/schemas"
	"github.com/jonathan/resume-analyzer/internal/types"
	schemafiles "github.com/jonathan/resume-analyzer/schemas"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a PDF report from a saved analysis result",
	Long:  "Validate an AnalysisResult JSON file against the analysis_result schema and render it as a PDF report.",
	RunE:  runReport,
}

var (
	reportInputFile  string
	reportOutputFile string
	reportName       string
	reportSource     string
)

func init() {
	reportCmd.Flags().StringVarP(&reportInputFile, "in", "i", "", "Path to an AnalysisResult JSON file")
	reportCmd.Flags().StringVarP(&reportOutputFile, "out", "o", "", "Path to the output PDF")
	reportCmd.Flags().StringVar(&reportName, "name", "", "Candidate name shown on the report")
	reportCmd.Flags().StringVar(&reportSource, "filename", "", "Source file name shown on the report")

	_ = reportCmd.MarkFlagRequired("in")
	_ = reportCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(reportInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if err := schemas.Validate(schemafiles.AnalysisResult, content); err != nil {
		return fmt.Errorf("invalid analysis result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(content, &result); err != nil {
		return fmt.Errorf("failed to parse analysis result: %w", err)
	}

	meta := types.ReportMeta{Name: reportName, Filename: reportSource}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(reportInputFile)
	}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("invalid report metadata: %w", err)
	}

	analyzer, err := buildAnalyzer(appConfig, appLogger, nil)
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}
	pdf, _, err := analyzer.GenerateReport(&result, meta)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(reportOutputFile, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (%d bytes)\n", reportOutputFile, len(pdf))
	return nil
}
