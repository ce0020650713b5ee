package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, "approve", func(c *Client) (*RequestResponse, error) { return c.Approve(args[0]) })
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <request-id>",
	Short: "Deny a pending request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return runDecision(cmd, "deny", func(c *Client) (*RequestResponse, error) { return c.Deny(args[0], reason) })
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <request-id>",
	Short: "Resubmit a failed request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, "retry", func(c *Client) (*RequestResponse, error) { return c.Retry(args[0]) })
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <request-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a request",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, "remove", func(c *Client) (*RequestResponse, error) { return c.Remove(args[0]) })
	},
}

func init() {
	rootCmd.AddCommand(approveCmd, denyCmd, retryCmd, removeCmd)
	denyCmd.Flags().String("reason", "", "Reason recorded with the denial")
}

func runDecision(cmd *cobra.Command, action string, call func(*Client) (*RequestResponse, error)) error {
	req, err := call(newClient())
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, req)
	}
	_, _ = fmt.Fprintf(out, "Request %s is now %s.\n", req.ID, req.Status)
	return nil
}
