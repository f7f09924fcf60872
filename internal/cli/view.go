package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/view"
)

var (
	viewOut     string
	viewTimeout time.Duration
)

// viewCmd represents the view command
var viewCmd = &cobra.Command{
	Use:   "view <category>",
	Short: "Render one of the five dashboard views",
	Long: `View loads the dataset, renders the chart for a view category and prints
its summary. Categories outside 1-5 show the first view.

  1  students by district      4  schools by medium
  2  schools by category       5  playground by district
  3  schools without restrooms

Example:
  schooldash view 3
  schooldash view 2 --out category.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&viewOut, "out", "o", "", "chart output path (default: <view name>.<format>)")
	viewCmd.Flags().DurationVar(&viewTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runView(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		n = int(view.Default)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), viewTimeout)
	defer cancel()

	s, err := newSession(ctx, cfg, false, getLogger())
	if err != nil {
		return err
	}
	defer s.pipeline.Close()

	if err := s.pipeline.Load(ctx); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	res, err := s.pipeline.Select(ctx, n)
	if err != nil {
		return fmt.Errorf("view failed: %w", err)
	}

	path := viewOut
	if path == "" {
		path = res.View.Recipe + "." + cfg.Chart.Format
	}
	if err := writeChart(path, res.View.Chart); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	_, _ = bold.Fprintln(w, s.pipeline.Title(res.View.Recipe))
	_, _ = fmt.Fprintf(w, "  %s\n", res.Summary)
	_, _ = green.Fprintf(w, "✓ Wrote chart: %s\n", path)
	return nil
}

// writeChart saves a rendered chart to path
func writeChart(path string, c chart.Chart) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close chart file: %w", closeErr)
		}
	}()

	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
