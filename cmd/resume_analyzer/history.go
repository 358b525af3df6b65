package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List stored analyses or print one by ID",
	Long:  "Read analyses saved with analyze --save or through the API. Requires database_url.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of analyses to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if appConfig.DatabaseURL == "" {
		return fmt.Errorf("history requires database_url to be configured")
	}

	var id uuid.UUID
	if len(args) == 1 {
		parsed, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid analysis ID %q: %w", args[0], err)
		}
		id = parsed
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b := connectBackends(ctx, appConfig, appLogger, false)
	defer b.Close()
	if b.db == nil {
		return fmt.Errorf("database is unavailable")
	}

	w := cmd.OutOrStdout()
	if len(args) == 1 {
		analysis, err := b.db.GetAnalysis(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load analysis: %w", err)
		}
		if analysis == nil {
			return fmt.Errorf("analysis %s not found", id)
		}
		return writeJSON(w, analysis)
	}

	analyses, err := b.db.ListAnalyses(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSCORE\tRULES\tFILE\tCREATED")
	for _, a := range analyses {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			a.ID, a.Score, a.RulesVersion, a.Filename, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
