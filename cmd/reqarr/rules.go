package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage auto-approval rules (admin)",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRulesListCmd,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a rule",
	Long: `Add an auto-approval rule. Conditions are JSON and depend on the type:

  user_trust      {"minApprovedRequests": 5}
  popularity      {"minVoteAverage": 7.5, "minPopularity": 20}
  time_based      {"allowedHours": [22, 23, 0, 1]}
  genre           {"allowedGenres": [16, 10751]}
  content_rating  {"allowedRatings": ["G", "PG"]}

Example:
  reqarr rules add trusted --type user_trust --conditions '{"minApprovedRequests":5}'`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesAddCmd,
}

var rulesRemoveCmd = &cobra.Command{
	Use:     "rm <rule-id>",
	Aliases: []string{"remove"},
	Short:   "Delete a rule",
	Args:    cobra.ExactArgs(1),
	RunE:    runRulesRemoveCmd,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRemoveCmd)
	rulesAddCmd.Flags().String("type", "", "Rule type")
	rulesAddCmd.Flags().String("conditions", "{}", "Conditions as JSON")
	rulesAddCmd.Flags().Int("priority", 0, "Priority (higher runs first)")
	rulesAddCmd.Flags().String("description", "", "Description")
	rulesAddCmd.Flags().Bool("disabled", false, "Create the rule disabled")
	_ = rulesAddCmd.MarkFlagRequired("type")
}

func runRulesListCmd(cmd *cobra.Command, args []string) error {
	resp, err := newClient().Rules()
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printRules(out, resp.Items)
	return nil
}

func runRulesAddCmd(cmd *cobra.Command, args []string) error {
	ruleType, _ := cmd.Flags().GetString("type")
	conditions, _ := cmd.Flags().GetString("conditions")
	priority, _ := cmd.Flags().GetInt("priority")
	description, _ := cmd.Flags().GetString("description")
	disabled, _ := cmd.Flags().GetBool("disabled")

	if !json.Valid([]byte(conditions)) {
		return fmt.Errorf("conditions must be valid JSON")
	}
	enabled := !disabled
	rule, err := newClient().AddRule(RuleRequest{
		Name:        args[0],
		Description: description,
		Enabled:     &enabled,
		Priority:    priority,
		Type:        ruleType,
		Conditions:  json.RawMessage(conditions),
	})
	if err != nil {
		return fmt.Errorf("failed to add rule: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, rule)
	}
	_, _ = fmt.Fprintf(out, "Rule %d (%s) created.\n", rule.ID, rule.Name)
	return nil
}

func runRulesRemoveCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule ID: %s", args[0])
	}
	if err := newClient().DeleteRule(id); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if !jsonOutput {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Rule %d deleted.\n", id)
	}
	return nil
}

func printRules(w io.Writer, items []RuleResponse) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "No rules. Every request needs manual approval.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPRIORITY\tTYPE\tNAME\tENABLED\tCONDITIONS")
	for _, r := range items {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%t\t%s\n", r.ID, r.Priority, r.Type, r.Name, r.Enabled, string(r.Conditions))
	}
	_ = tw.Flush()
}
