package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Reads or changes the saved display settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Prints the saved settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, "")
		if err != nil {
			return err
		}
		defer a.Close()

		settings, err := a.dashboard.Settings(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\n", settings.Theme)
		return nil
	},
}

var settingsThemeCmd = &cobra.Command{
	Use:       "set-theme <light|dark>",
	Short:     "Saves the display theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(domain.ThemeLight), string(domain.ThemeDark)},
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, err := domain.ParseTheme(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, "")
		if err != nil {
			return err
		}
		defer a.Close()

		settings, err := a.dashboard.Settings(ctx)
		if err != nil {
			return err
		}
		settings.Theme = theme
		if err := a.dashboard.SaveSettings(ctx, settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\n", settings.Theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsThemeCmd)
}
