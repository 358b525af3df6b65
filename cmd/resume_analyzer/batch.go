package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Score many resumes concurrently",
	Long:  "Analyze every file argument with a bounded worker pool. A failing file is reported and does not stop the others.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var (
	batchConcurrency int
	batchReportDir   string
	batchJSON        bool
)

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "Number of files analyzed in parallel")
	batchCmd.Flags().StringVar(&batchReportDir, "report-dir", "", "Write a <name>-report.pdf for each file into this directory")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Print results as a JSON array")

	rootCmd.AddCommand(batchCmd)
}

// BatchItem is the outcome for one file of a batch
type BatchItem struct {
	Path   string                `json:"path"`
	Family ingestion.Family      `json:"family,omitempty"`
	Result *types.AnalysisResult `json:"result,omitempty"`
	Report string                `json:"report,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchConcurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}
	if batchReportDir != "" {
		if err := os.MkdirAll(batchReportDir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b := connectBackends(ctx, appConfig, appLogger, false)
	defer b.Close()

	analyzer, err := buildAnalyzer(appConfig, appLogger, b.diagnosticsStore())
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}
	defer analyzer.Wait()

	items := make([]BatchItem, len(args))
	var (
		mu     sync.Mutex
		failed int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, path := range args {
		g.Go(func() error {
			item := analyzeOne(ctx, analyzer, path)
			items[i] = item
			if item.Error != "" {
				mu.Lock()
				failed++
				mu.Unlock()
				appLogger.Warn("batch item failed", zap.String("path", path), zap.String("error", item.Error))
			}
			// Per-file failures are recorded, only cancellation stops the batch
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	w := cmd.OutOrStdout()
	if batchJSON {
		if err := writeJSON(w, items); err != nil {
			return err
		}
	} else {
		for _, item := range items {
			if item.Error != "" {
				_, _ = fmt.Fprintf(w, "FAIL  %s: %s\n", item.Path, item.Error)
				continue
			}
			_, _ = fmt.Fprintf(w, "%3d   %s\n", item.Result.Score, item.Path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// analyzeOne runs a single batch file, writing its report when requested
func analyzeOne(ctx context.Context, analyzer *pipeline.Analyzer, path string) BatchItem {
	item := BatchItem{Path: path}

	file, err := ingestion.OpenFile(path)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	out, _, err := analyzer.Run(ctx, file, pipeline.RunOptions{
		Report:          batchReportDir != "",
		DiagnosticsMeta: types.DiagnosticsMeta{Filename: file.Name},
	})
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Family = out.Extraction.Family
	item.Result = out.Result

	if batchReportDir != "" {
		base := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
		item.Report = filepath.Join(batchReportDir, base+"-report.pdf")
		if err := os.WriteFile(item.Report, out.Report, 0644); err != nil {
			item.Error = fmt.Sprintf("failed to write report: %v", err)
			item.Report = ""
		}
	}
	return item
}
