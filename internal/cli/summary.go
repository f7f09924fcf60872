package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/schooldash/internal/view"
)

var summaryTimeout time.Duration

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary [category]",
	Short: "Print the statistic for one view, or for all of them",
	Long: `Summary loads the dataset and prints the one-line statistic shown next to
each view, in the stored locale.

Example:
  schooldash summary
  schooldash summary 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().DurationVar(&summaryTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runSummary(cmd *cobra.Command, args []string) error {
	selections := view.Selections()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			n = int(view.Default)
		}
		selections = []view.Selection{view.ParseSelection(n)}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), summaryTimeout)
	defer cancel()

	s, err := newSession(ctx, cfg, false, getLogger())
	if err != nil {
		return err
	}
	defer s.pipeline.Close()

	if err := s.pipeline.Load(ctx); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for _, sel := range selections {
		text, err := s.pipeline.Summary(int(sel))
		if err != nil {
			return fmt.Errorf("summary %d: %w", sel, err)
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", dim.Sprintf("%d.", sel), bold.Sprint(s.pipeline.Title(view.RecipeFor(sel).Name)))
		_, _ = fmt.Fprintf(w, "   %s\n", text)
	}
	return nil
}
