package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/schooldash/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage schooldash configuration",
	Long: `Manage schooldash configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SCHOOLDASH_*, e.g. SCHOOLDASH_DATASET_URL)
3. Config file (~/.schooldash/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after applying defaults, the config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		dim := color.New(color.Faint)

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			_, _ = dim.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", configFile)
		} else {
			_, _ = dim.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		_, _ = bold.Fprintln(w, "Current Configuration")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.schooldash/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configDir, err := homeDir()
		if err != nil {
			return err
		}
		configPath := filepath.Join(configDir, "config.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'schooldash config show' to view it, or delete it first to recreate", configPath)
		}

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		green := color.New(color.FgGreen)
		_, _ = green.Fprintf(w, "✓ Created default configuration: %s\n", configPath)
		_, _ = fmt.Fprintf(w, "\nTo view the configuration:\n")
		_, _ = fmt.Fprintf(w, "  schooldash config show\n")
		_, _ = fmt.Fprintf(w, "\nTo customize, edit the file with your preferred editor:\n")
		_, _ = fmt.Fprintf(w, "  $EDITOR %s\n\n", configPath)
		return nil
	},
}

// writeDefaultConfig writes the commented default configuration to path
func writeDefaultConfig(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# schooldash configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (SCHOOLDASH_*)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")

	yamlData, mErr := yaml.Marshal(model.DefaultConfig())
	if mErr != nil {
		return fmt.Errorf("error marshaling config: %w", mErr)
	}
	printf("%s", yamlData)

	printf("\n# cache.dir and preferences.file default to ~/.schooldash when empty.\n")
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
