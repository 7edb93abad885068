// ABOUTME: Root command for the forum BFF binary
// ABOUTME: Holds global flags shared by the serve and health subcommands

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
)

const defaultAPIURL = "http://localhost:8080"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "bff",
	Short: "Backend-for-frontend for the community forum",
	Long: `bff holds browser session cookies and forwards forum API calls to the upstream REST API.

Run "bff serve" to start the HTTP server; configuration is read from the
environment and an optional .env file.

Environment Variables:
  BFF_API_URL  BFF address used by client commands (default: http://localhost:8080)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "BFF URL for client commands (overrides BFF_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("BFF_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
