package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Shows the pull requests updated in the last days and the outside contributions among them",
	Long: `Derives the dashboard view for the last --days days (at most the lookback window)
from today's cached pull requests, syncing first when there is no valid cache, and prints it
as JSON or YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, "")
		if err != nil {
			return err
		}
		defer a.Close()

		days, _ := cmd.Flags().GetInt("days")
		if days == 0 {
			days = a.dashboard.LookbackDays()
		}
		output, _ := cmd.Flags().GetString("output")

		view, err := a.dashboard.View(ctx, days, func(status string) {
			fmt.Fprintln(os.Stderr, status)
		})
		if err != nil {
			return fmt.Errorf("failed to build dashboard view: %w", err)
		}

		var data []byte
		switch output {
		case "json":
			data, err = json.MarshalIndent(view, "", "  ")
		case "yaml":
			data, err = yaml.Marshal(view)
		default:
			return fmt.Errorf("unknown output format %q (want json or yaml)", output)
		}
		if err != nil {
			return fmt.Errorf("failed to marshal view: %w", err)
		}

		// Print the final document to standard output.
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntP("days", "d", 0, "Range in days, 1 up to the lookback window (default: the lookback window)")
	viewCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
