// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubrank CLI. pubrank merges an
// author's publication lists from DBLP and HAL and annotates each entry
// with a venue rank from the CORE and Scimago catalogs.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubrank/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pubrank CLI.
var rootCmd = &cobra.Command{
	Use:   "pubrank",
	Short: "Merge publication lists and rank their venues",
	Long: `pubrank builds an author's publication list from DBLP and HAL, removes
duplicate entries, and annotates conference and journal entries with the
venue rank found in the CORE and Scimago catalogs.

Catalog answers are cached between runs with --cache, and a patch table
maps venue spellings the catalogs do not recognize.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubrank.yaml or ~/.config/pubrank/pubrank.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug messages")
	rootCmd.PersistentFlags().String("log-format", "text", "log format on stderr: text or json")
}

func initConfig() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if err := configure(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

// configure registers defaults, config file locations and the environment
// on v, then reads the config file if one is found.
func configure(v *viper.Viper, cfgFile string) error {
	setDefaults(v, types.DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pubrank")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pubrank"))
		}
	}

	v.SetEnvPrefix("PUBRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// setDefaults registers every key of cfg so that environment variables
// and bound flags are seen by Unmarshal.
func setDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.rate", cfg.HTTP.Rate)
	v.SetDefault("http.burst", cfg.HTTP.Burst)
	v.SetDefault("http.max_retries", cfg.HTTP.MaxRetries)

	v.SetDefault("catalog.core_url", cfg.Catalog.CoreURL)
	v.SetDefault("catalog.scimago_url", cfg.Catalog.ScimagoURL)
	v.SetDefault("catalog.lookup_timeout", cfg.Catalog.LookupTimeout)
	v.SetDefault("catalog.fixture", cfg.Catalog.Fixture)

	v.SetDefault("source.dblp_url", cfg.Source.DBLPURL)
	v.SetDefault("source.hal_url", cfg.Source.HALURL)
	v.SetDefault("source.hal_rows", cfg.Source.HALRows)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.backend", string(cfg.Cache.Backend))
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.unknown_ttl", cfg.Cache.UnknownTTL)

	v.SetDefault("normalize.fold", cfg.Normalize.Fold)
	v.SetDefault("normalize.strip_colon", cfg.Normalize.StripColon)
	v.SetDefault("normalize.ampersand", cfg.Normalize.Ampersand)

	v.SetDefault("output.yaml", cfg.Output.YAML)
	v.SetDefault("output.table", cfg.Output.Table)
	v.SetDefault("output.metrics_file", cfg.Output.MetricsFile)

	v.SetDefault("patch", cfg.Patch)
}

// loadConfig decodes the merged configuration of v.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default slog logger on stderr.
func setupLogging(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	format, _ := cmd.Flags().GetString("log-format")

	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
