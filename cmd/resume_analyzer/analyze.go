package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/observability"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Score a resume file or URL",
	Long:  "Extract text from a local resume (or one downloaded with --url), score it against the rule set and optionally write a PDF report.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeURL        string
	analyzeReportFile string
	analyzeName       string
	analyzeUserID     string
	analyzeJSON       bool
	analyzeVerbose    bool
	analyzeSave       bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "Download the resume from this URL instead of reading a file")
	analyzeCmd.Flags().StringVarP(&analyzeReportFile, "report", "r", "", "Write a PDF report to this path")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "Candidate name shown on the report")
	analyzeCmd.Flags().StringVar(&analyzeUserID, "uid", "", "User ID attached to published diagnostics")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print matched rules, warnings and diagnostics")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store the analysis in the database (requires database_url)")

	rootCmd.AddCommand(analyzeCmd)
}

// AnalyzeOutput is the --json form of an analysis
type AnalyzeOutput struct {
	Filename     string                `json:"filename"`
	Family       ingestion.Family      `json:"family"`
	ContentHash  string                `json:"content_hash"`
	RulesVersion string                `json:"rules_version"`
	ID           string                `json:"id,omitempty"`
	Result       *types.AnalysisResult `json:"result"`
	Warnings     []string              `json:"warnings,omitempty"`
	Diagnostics  *types.Diagnostics    `json:"diagnostics,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" && analyzeURL == "" {
		return fmt.Errorf("must provide either a file argument or --url")
	}
	if path != "" && analyzeURL != "" {
		return fmt.Errorf("cannot use a file argument with --url")
	}

	reportMeta := types.ReportMeta{Name: analyzeName}
	diagMeta := types.DiagnosticsMeta{UserID: analyzeUserID}
	if err := reportMeta.Validate(); err != nil {
		return fmt.Errorf("invalid --name: %w", err)
	}
	if err := diagMeta.Validate(); err != nil {
		return fmt.Errorf("invalid --uid: %w", err)
	}
	if analyzeSave && appConfig.DatabaseURL == "" {
		return fmt.Errorf("--save requires database_url to be configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := openInput(ctx, appConfig, appLogger, path, analyzeURL)
	if err != nil {
		return fmt.Errorf("failed to load resume: %w", err)
	}
	diagMeta.Filename = file.Name

	b := connectBackends(ctx, appConfig, appLogger, false)
	defer b.Close()
	if analyzeSave && b.db == nil {
		return fmt.Errorf("--save requested but the database is unavailable")
	}

	analyzer, err := buildAnalyzer(appConfig, appLogger, b.diagnosticsStore())
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}
	defer analyzer.Wait()

	out, diag, err := analyzer.Run(ctx, file, pipeline.RunOptions{
		Report:          analyzeReportFile != "",
		ReportMeta:      reportMeta,
		DiagnosticsMeta: diagMeta,
	})
	w := cmd.OutOrStdout()
	if err != nil {
		if analyzeVerbose {
			observability.NewPrinter(cmd.ErrOrStderr()).PrintDiagnostics(diag)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	hash := ingestion.ComputeHash(file.Data)
	output := AnalyzeOutput{
		Filename:     file.Name,
		Family:       out.Extraction.Family,
		ContentHash:  hash,
		RulesVersion: analyzer.RulesVersion(),
		Result:       out.Result,
		Warnings:     out.Extraction.Warnings,
	}
	if analyzeVerbose {
		output.Diagnostics = diag
	}

	if analyzeSave {
		id, err := b.db.SaveAnalysis(ctx, db.AnalysisInput{
			Filename:     file.Name,
			Family:       string(out.Extraction.Family),
			ContentHash:  hash,
			RulesVersion: output.RulesVersion,
			Result:       out.Result,
			Diagnostics:  diag,
		})
		if err != nil {
			return fmt.Errorf("failed to save analysis: %w", err)
		}
		output.ID = id.String()
		appLogger.Info("analysis saved", zap.String("id", output.ID))
	}

	if analyzeReportFile != "" {
		if err := os.WriteFile(analyzeReportFile, out.Report, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if analyzeJSON {
		return writeJSON(w, output)
	}

	printer := observability.NewPrinter(w)
	printer.PrintAnalysis(out.Result)
	if analyzeVerbose {
		printer.PrintMatchedRules(out.Result.MatchedRules)
		printer.PrintExtractionWarnings(out.Extraction.Warnings)
		printer.PrintDiagnostics(diag)
	}
	if output.ID != "" {
		_, _ = fmt.Fprintf(w, "Saved analysis %s\n", output.ID)
	}
	if analyzeReportFile != "" {
		_, _ = fmt.Fprintf(w, "Report written to %s\n", analyzeReportFile)
	}
	return nil
}

// writeJSON pretty prints v
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
