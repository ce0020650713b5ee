package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons <tmdb-id>",
	Short: "Show which seasons of a series are requested or available",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeasonsCmd,
}

func init() {
	rootCmd.AddCommand(seasonsCmd)
}

func runSeasonsCmd(cmd *cobra.Command, args []string) error {
	tmdbID, err := parseTMDBID(args[0])
	if err != nil {
		return err
	}
	resp, err := newClient().Seasons(tmdbID)
	if err != nil {
		return fmt.Errorf("failed to fetch seasons: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printSeasons(out, resp)
	return nil
}

func printSeasons(w io.Writer, s *SeasonSummaryResponse) {
	if s.Warning != "" {
		_, _ = fmt.Fprintf(w, "Warning: %s\n\n", s.Warning)
	}
	if len(s.Seasons) == 0 {
		_, _ = fmt.Fprintln(w, "No seasons.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SEASON\tSTATUS\tREQUEST")
	for _, row := range s.Seasons {
		req := "-"
		if row.Requested {
			req = row.RequestID
			if row.RequestStatus != "" {
				req += " (" + row.RequestStatus + ")"
			}
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Season, row.Status, req)
	}
	_ = tw.Flush()
}
