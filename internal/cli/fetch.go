package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	fetchTimeout    time.Duration
	fetchShowFaults bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Load the dataset and report what was found",
	Long: `Fetch downloads the school dataset through the offline cache, normalizes
every record and prints a short report. Values that could not be parsed are
counted as zero and listed with --faults.

Example:
  schooldash fetch
  schooldash fetch --faults
  schooldash fetch --url https://example.com/schools.json`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "overall fetch timeout")
	fetchCmd.Flags().BoolVar(&fetchShowFaults, "faults", false, "list every unparseable value")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	s, err := newSession(ctx, cfg, false, getLogger())
	if err != nil {
		return err
	}
	defer s.pipeline.Close()

	if err := s.pipeline.Load(ctx); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	ds := s.pipeline.Dataset()
	meta := s.pipeline.Meta()
	faults := s.pipeline.Faults()

	_, _ = bold.Fprintln(w, "Dataset loaded")
	_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Source", cfg.Dataset.URL)
	_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Records", green.Sprint(ds.Len()))
	if !ds.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Updated", ds.UpdatedAt.Format(time.RFC3339))
	}
	if meta.FromCache {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Served", yellow.Sprint("from offline cache"))
	}
	if len(faults) == 0 {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Faults", green.Sprint(0))
	} else {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", "Faults", yellow.Sprint(len(faults)))
	}

	if fetchShowFaults {
		for _, f := range faults {
			_, _ = fmt.Fprintf(w, "    #%-5d %-40s %-36s %s\n",
				f.Index, f.School, f.Field, dim.Sprintf("%q", f.Raw))
		}
	}
	return nil
}
