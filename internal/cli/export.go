package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/schooldash/internal/export"
)

var (
	exportOut     string
	exportTimeout time.Duration
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dataset and its groupings to an XLSX workbook",
	Long: `Export loads the dataset and writes a workbook with every school, the
per-category, per-medium and per-district totals, and the statistic of each
view. Headers and values use the stored locale.

Example:
  schooldash export --out schools.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "schools.xlsx", "output file")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
	defer cancel()

	s, err := newSession(ctx, cfg, false, getLogger())
	if err != nil {
		return err
	}
	defer s.pipeline.Close()

	if err := s.pipeline.Load(ctx); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	if err := export.Write(f, s.pipeline.Dataset(), s.pipeline.Dictionary()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", exportOut, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d schools to %s\n",
		color.GreenString("Exported"), s.pipeline.Dataset().Len(), exportOut)
	return nil
}
