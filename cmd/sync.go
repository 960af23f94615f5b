package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetches open pull requests unless today's cache is still valid",
	Long: `Fetches the open pull requests updated within the lookback window from every
configured repository, one after another, and caches the merged result for the rest
of the day. With --refresh the cache is ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, "")
		if err != nil {
			return err
		}
		defer a.Close()

		refresh, _ := cmd.Flags().GetBool("refresh")
		dataset, err := a.dashboard.Sync(ctx, refresh, func(status string) {
			fmt.Fprintln(os.Stderr, status)
		})
		if err != nil {
			return fmt.Errorf("failed to sync pull requests: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d open pull requests updated since %s\n",
			len(dataset.Pulls), dataset.StartDate.Format("2006-01-02"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolP("refresh", "r", false, "Ignore today's cache and fetch again")
}
