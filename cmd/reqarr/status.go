package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	status, err := newClient().Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, status)
	}
	printStatus(out, serverURL, status)
	return nil
}

func printStatus(w io.Writer, server string, s *StatusResponse) {
	_, _ = fmt.Fprintf(w, "Server:  %s (%s)\n", server, s.Status)
	_, _ = fmt.Fprintf(w, "Version: %s\n", s.Version)
	_, _ = fmt.Fprintf(w, "Radarr:  %s\n", configured(s.Radarr))
	_, _ = fmt.Fprintf(w, "Sonarr:  %s\n", configured(s.Sonarr))
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
