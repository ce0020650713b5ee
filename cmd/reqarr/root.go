package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	apiKey     string
	adminKey   string
	userID     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "reqarr",
	Short: "Media request orchestration",
	Long: `reqarr takes movie and TV requests, auto-approves them against
configurable rules and hands approved titles to Radarr or Sonarr.`,
	SilenceUsage: true,
	Version:      version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8585", "Server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("REQARR_API_KEY"), "API key")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", os.Getenv("REQARR_ADMIN_KEY"), "Admin API key")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("REQARR_USER"), "User the request is made on behalf of")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *Client {
	return NewClient(serverURL, WithAPIKey(apiKey), WithAdminKey(adminKey), WithUser(userID))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
