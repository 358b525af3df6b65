package main

import (
	"fmt"

	"github.com/jonathan/resume-analyzer/internal/ranking"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate scoring rule sets",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active rule set as JSON",
	Long:  "Print the rule set from rules_path, or the built-in rules when none is configured.",
	Args:  cobra.NoArgs,
	RunE:  runRulesShow,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a rule set file against the rule_set schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

func init() {
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesShow(cmd *cobra.Command, _ []string) error {
	rules, err := loadRules(appConfig)
	if err != nil {
		return err
	}
	data, err := rules.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	rules, err := ranking.LoadRules(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s, %d skill keywords)\n",
		args[0], rules.Version, len(rules.Buckets.Skills))
	return nil
}
