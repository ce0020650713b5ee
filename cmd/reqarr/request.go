package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a movie or series",
}

var requestMovieCmd = &cobra.Command{
	Use:   "movie <tmdb-id>",
	Short: "Request a movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestCmd("movie"),
}

var requestTVCmd = &cobra.Command{
	Use:   "tv <tmdb-id>",
	Short: "Request a series",
	Long: `Request a series by TMDB ID.

Without --seasons every regular season that is not already requested or
available is requested. Specials (season 0) are never requested.

Examples:
  reqarr request tv 1396              # All seasons
  reqarr request tv 1396 --seasons 1,2`,
	Args: cobra.ExactArgs(1),
	RunE: runRequestCmd("tv"),
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.AddCommand(requestMovieCmd, requestTVCmd)
	requestTVCmd.Flags().IntSlice("seasons", nil, "Season numbers to request")
	for _, c := range []*cobra.Command{requestMovieCmd, requestTVCmd} {
		c.Flags().Int64("profile", 0, "Quality profile ID")
	}
}

func runRequestCmd(mediaType string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		tmdbID, err := parseTMDBID(args[0])
		if err != nil {
			return err
		}
		body := CreateRequest{MediaType: mediaType, TMDBID: tmdbID}
		if mediaType == "tv" {
			body.Seasons, _ = cmd.Flags().GetIntSlice("seasons")
		}
		if profile, _ := cmd.Flags().GetInt64("profile"); profile > 0 {
			body.QualityProfileID = &profile
		}

		resp, err := newClient().CreateRequest(body)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, resp)
		}
		printCreateResult(out, resp)
		return nil
	}
}

func parseTMDBID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid TMDB ID: %s", raw)
	}
	return id, nil
}

func printCreateResult(w io.Writer, r *CreateResponse) {
	switch r.Outcome {
	case "conflict":
		if r.Reason == "already_exists" {
			_, _ = fmt.Fprintln(w, "Already in the library.")
		} else {
			_, _ = fmt.Fprintln(w, "Already requested.")
		}
		if len(r.Seasons) > 0 {
			_, _ = fmt.Fprintf(w, "  Seasons: %s\n", joinInts(r.Seasons))
		}
	case "failed":
		_, _ = fmt.Fprintf(w, "Request recorded but could not be submitted: %s\n", r.Error)
	default:
		_, _ = fmt.Fprintln(w, "Request created.")
	}
	if r.Request != nil {
		printRequest(w, r.Request)
	}
}
