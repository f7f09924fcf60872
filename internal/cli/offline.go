package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/schooldash/internal/pipeline"
	"github.com/ppiankov/schooldash/internal/worker"
)

var (
	offlineTimeout      time.Duration
	offlineManifestFile string
)

// offlineCmd represents the offline command
var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Manage the offline cache",
	Long: `The offline cache keeps the page assets listed in offline.manifest and the
last successful response of every cross-origin request, such as the dataset.`,
}

var offlineInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch every manifest asset into the static cache",
	Long: `Install downloads the assets listed in offline.manifest, resolved against
offline.origin, into the static cache. It fails if any asset fails.

--manifest-file replaces the configured manifest with the paths listed in a
file, one per line. Blank lines and lines starting with # are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if offlineManifestFile != "" {
			manifest, err := worker.ReadManifest(offlineManifestFile)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			cfg.Offline.Manifest = manifest
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), offlineTimeout)
		defer cancel()

		w, err := newWorker(cfg, pipeline.NewTransport(cfg.HTTP), true, getLogger())
		if err != nil {
			return err
		}
		if err := w.Install(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen)
		dim := color.New(color.Faint)
		for _, u := range w.Manifest() {
			_, _ = fmt.Fprintf(out, "%s%s\n", green.Sprint("  + "), u)
		}
		_, _ = dim.Fprintf(out, "Cached in %s\n", cfg.Cache.Dir)
		return nil
	},
}

var offlineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List what the offline caches hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		w, err := newWorker(cfg, nil, false, getLogger())
		if err != nil {
			return err
		}
		status, err := w.Status()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		now := time.Now()
		for _, cs := range status {
			_, _ = bold.Fprintf(out, "%s (%d)\n", cs.Name, len(cs.Entries))
			for _, e := range cs.Entries {
				age := now.Sub(e.StoredAt).Round(time.Second)
				_, _ = fmt.Fprintf(out, "  %s %s\n", e.URL, dim.Sprintf("%d bytes, stored %s ago", len(e.Data), age))
			}
		}
		return nil
	},
}

var offlineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the static and dynamic caches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		w, err := newWorker(cfg, nil, false, getLogger())
		if err != nil {
			return err
		}
		if err := w.Clear(); err != nil {
			return fmt.Errorf("clear caches: %w", err)
		}

		green := color.New(color.FgGreen)
		_, _ = green.Fprintf(cmd.OutOrStdout(), "✓ Cleared offline caches in %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(offlineCmd)
	offlineCmd.AddCommand(offlineInstallCmd)
	offlineCmd.AddCommand(offlineStatusCmd)
	offlineCmd.AddCommand(offlineClearCmd)

	offlineInstallCmd.Flags().DurationVar(&offlineTimeout, "timeout", time.Minute, "install timeout")
	offlineInstallCmd.Flags().StringVar(&offlineManifestFile, "manifest-file", "", "file listing manifest paths, one per line")
}
