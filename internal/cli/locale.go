package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/schooldash/internal/locale"
)

// localeCmd represents the locale command
var localeCmd = &cobra.Command{
	Use:   "locale",
	Short: "Show or change the display language",
	Long: `The display language is stored in the preferences file and applies to
chart labels, titles and summaries. Supported: en (English), ta (Tamil).`,
}

var localeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored locale",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := openPreferences(cmd)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), prefs.Locale())
		return nil
	},
}

var localeSetCmd = &cobra.Command{
	Use:   "set <locale>",
	Short: "Store the display locale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := locale.ParseTag(args[0])
		if err != nil {
			return err
		}

		prefs, err := openPreferences(cmd)
		if err != nil {
			return err
		}
		if err := prefs.SetLocale(tag); err != nil {
			return err
		}

		green := color.New(color.FgGreen)
		_, _ = green.Fprintf(cmd.OutOrStdout(), "✓ Locale set to %s (%s)\n", tag, prefs.Path())
		return nil
	},
}

func openPreferences(cmd *cobra.Command) (*locale.Preferences, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return locale.OpenPreferences(cfg.Preferences.File)
}

func init() {
	rootCmd.AddCommand(localeCmd)
	localeCmd.AddCommand(localeGetCmd)
	localeCmd.AddCommand(localeSetCmd)
}
