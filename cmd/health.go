// ABOUTME: Health command for the forum BFF
// ABOUTME: Checks that a running BFF answers and reports upstream configuration

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/communityforum/bff/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check BFF connectivity",
	Long:  `Check connectivity to a running BFF and report whether its upstream API address is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

func formatHealthHuman(url string, resp *client.HealthResponse) string {
	return fmt.Sprintf(`BFF:       %s
Status:    %s
Upstream:  %s`, url, resp.Status, resp.Upstream)
}

func formatHealthJSON(url string, resp *client.HealthResponse) string {
	output := map[string]string{
		"bff":      url,
		"status":   resp.Status,
		"upstream": resp.Upstream,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
