package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List requests",
	Long: `List requests. Regular users only see their own; with the admin key
--user filters by requester.

Examples:
  reqarr requests                          # Your requests
  reqarr requests -s pending,failed        # Needs attention
  reqarr requests --admin-key k --user bob`,
	Args: cobra.NoArgs,
	RunE: runRequestsCmd,
}

var requestShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Show one request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestShowCmd,
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.AddCommand(requestShowCmd)
	requestsCmd.Flags().StringP("status", "s", "", "Comma separated statuses")
	requestsCmd.Flags().String("type", "", "Media type (movie or tv)")
	requestsCmd.Flags().Int64("tmdb", 0, "TMDB ID")
	requestsCmd.Flags().String("for", "", "Requester to filter by (admin only)")
	requestsCmd.Flags().Int("limit", 0, "Page size")
	requestsCmd.Flags().Int("offset", 0, "Page offset")
}

func runRequestsCmd(cmd *cobra.Command, args []string) error {
	var f RequestFilter
	f.Statuses, _ = cmd.Flags().GetString("status")
	f.Type, _ = cmd.Flags().GetString("type")
	f.TMDBID, _ = cmd.Flags().GetInt64("tmdb")
	f.User, _ = cmd.Flags().GetString("for")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Offset, _ = cmd.Flags().GetInt("offset")

	resp, err := newClient().ListRequests(f)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printRequestTable(out, resp)
	return nil
}

func runRequestShowCmd(cmd *cobra.Command, args []string) error {
	req, err := newClient().GetRequest(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch request: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, req)
	}
	printRequest(out, req)
	return nil
}

func printRequestTable(w io.Writer, resp *ListRequestsResponse) {
	if len(resp.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No requests.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTYPE\tTMDB\tTITLE\tSTATUS\tBY\tSEASONS")
	for i := range resp.Items {
		r := &resp.Items[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.MediaType, r.TMDBID, titleWithYear(r), r.Status, r.RequestedBy, seasonList(r.Seasons))
	}
	_ = tw.Flush()
	if resp.Total > len(resp.Items) {
		_, _ = fmt.Fprintf(w, "\nShowing %d-%d of %d\n", resp.Offset+1, resp.Offset+len(resp.Items), resp.Total)
	}
}

func printRequest(w io.Writer, r *RequestResponse) {
	_, _ = fmt.Fprintf(w, "  ID:      %s\n", r.ID)
	_, _ = fmt.Fprintf(w, "  Title:   %s\n", titleWithYear(r))
	_, _ = fmt.Fprintf(w, "  Type:    %s (tmdb %d)\n", r.MediaType, r.TMDBID)
	status := r.Status
	if r.AutoApproved {
		status += " (auto-approved)"
	}
	_, _ = fmt.Fprintf(w, "  Status:  %s\n", status)
	_, _ = fmt.Fprintf(w, "  By:      %s\n", r.RequestedBy)
	if len(r.Seasons) > 0 {
		_, _ = fmt.Fprintf(w, "  Seasons: %s\n", seasonList(r.Seasons))
	}
	if r.LastError != "" {
		_, _ = fmt.Fprintf(w, "  Error:   %s\n", r.LastError)
	}
}

func titleWithYear(r *RequestResponse) string {
	if r.Title == "" {
		return "-"
	}
	if r.Year > 0 {
		return fmt.Sprintf("%s (%d)", r.Title, r.Year)
	}
	return r.Title
}

func seasonList(items []SeasonItem) string {
	if len(items) == 0 {
		return "-"
	}
	nums := make([]int, 0, len(items))
	for _, it := range items {
		if it.Active {
			nums = append(nums, it.Season)
		}
	}
	if len(nums) == 0 {
		return "-"
	}
	return joinInts(nums)
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
