package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/schooldash/internal/model"
)

// Version is the schooldash release
const Version = "0.2.0"

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "schooldash",
	Short: "Schooldash - School infrastructure dashboard for Tamil Nadu",
	Long: `Schooldash loads the published school infrastructure dataset, normalizes
it, and presents five views with a one-line statistic each:

  1. Students by district
  2. Schools by category
  3. Schools without restrooms
  4. Schools by medium of instruction
  5. Playground availability by district

Views and summaries are available in English and Tamil. Every request to the
dataset goes through an offline cache, so the last loaded dataset stays
available when the network is not.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of schooldash.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schooldash v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.schooldash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("url", model.DefaultDatasetURL, "dataset URL")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the offline cache")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("dataset.url", rootCmd.PersistentFlags().Lookup("url"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// homeDir returns the schooldash state directory
func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".schooldash"), nil
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SCHOOLDASH_*
	viper.SetEnvPrefix("SCHOOLDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so env overrides apply
func setDefaults(cfg *model.Config) {
	viper.SetDefault("dataset.url", cfg.Dataset.URL)

	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	viper.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	viper.SetDefault("http.no_proxy", cfg.HTTP.NoProxy)
	viper.SetDefault("http.respect_robots", cfg.HTTP.RespectRobots)
	viper.SetDefault("http.rate_per_second", cfg.HTTP.RatePerSecond)
	viper.SetDefault("http.rate_burst", cfg.HTTP.RateBurst)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("cache.version", cfg.Cache.Version)

	viper.SetDefault("offline.origin", cfg.Offline.Origin)
	viper.SetDefault("offline.manifest", cfg.Offline.Manifest)
	viper.SetDefault("offline.concurrency", cfg.Offline.Concurrency)

	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	viper.SetDefault("server.static_dir", cfg.Server.StaticDir)

	viper.SetDefault("chart.format", cfg.Chart.Format)
	viper.SetDefault("chart.width", cfg.Chart.Width)
	viper.SetDefault("chart.height", cfg.Chart.Height)

	viper.SetDefault("preferences.file", cfg.Preferences.File)
}

// loadConfig resolves the effective configuration from flags, env, file and defaults
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	// State files live under ~/.schooldash unless configured
	if cfg.Cache.Dir == "" || cfg.Preferences.File == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
		if cfg.Preferences.File == "" {
			cfg.Preferences.File = filepath.Join(dir, "preferences.yaml")
		}
	}
	return cfg, nil
}

// getLogger returns the command logger, or a no-op logger when none was built
func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
