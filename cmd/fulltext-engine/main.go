// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fulltext-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fulltext-engine/internal/secrets"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the fulltext-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "fulltext-engine",
	Short: "Locate and download full-text artifacts for publications",
	Long: `fulltext-engine resolves publication identifiers (DOIs, arXiv IDs, PMIDs)
to full-text candidate URLs across open-access source providers, downloads
and validates the artifacts, and caches derived content.

Each operation is a subcommand: resolve finds candidate URLs, fetch
downloads validated artifacts, and cache manages the content cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fulltext-engine.yaml or ~/.config/fulltext-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fulltext-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fulltext-engine"))
		}
	}

	viper.SetEnvPrefix("FULLTEXT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from defaults, the config
// file, and loaded secrets, then validates it. Credentialed providers are
// enabled automatically when their credential is present, unless the config
// file says otherwise.
func engineConfig() (types.EngineConfig, error) {
	cfg := types.EngineConfig{}

	cfg.Providers.EnableArxiv = boolSetting("providers.enable_arxiv", true)
	cfg.Providers.EnableOpenAlex = boolSetting("providers.enable_openalex", true)
	cfg.Providers.EnableCrossref = boolSetting("providers.enable_crossref", true)
	cfg.Providers.EnableSemanticScholar = boolSetting("providers.enable_semantic_scholar", true)
	cfg.Providers.EnableEuropePMC = boolSetting("providers.enable_europepmc", true)
	cfg.Providers.EnableDOAJ = boolSetting("providers.enable_doaj", true)

	cfg.Providers.UnpaywallEmail = viper.GetString("providers.unpaywall_email")
	cfg.Providers.COREAPIKey = viper.GetString("providers.core_api_key")
	cfg.Providers.SemanticScholarAPIKey = viper.GetString("providers.semantic_scholar_api_key")
	cfg.Providers.MinRequestInterval = viper.GetDuration("providers.min_request_interval")
	cfg.Providers.Timeout = viper.GetDuration("providers.timeout")
	cfg.Providers.UserAgent = "fulltext-engine/" + version

	secrets.Apply(loadedSecrets, &cfg)

	cfg.Providers.EnableUnpaywall = boolSetting("providers.enable_unpaywall", cfg.Providers.UnpaywallEmail != "")
	cfg.Providers.EnableCORE = boolSetting("providers.enable_core", cfg.Providers.COREAPIKey != "")

	cfg.Resolver.MaxConcurrentProviders = viper.GetInt("resolver.max_concurrent_providers")
	cfg.Resolver.PerSourceTimeout = viper.GetDuration("resolver.per_source_timeout")

	cfg.Download.Timeout = viper.GetDuration("download.timeout")
	cfg.Download.UserAgent = cfg.Providers.UserAgent
	cfg.Download.MaxConcurrentDownloads = viper.GetInt("download.max_concurrent_downloads")
	cfg.Download.MaxRetriesPerURL = viper.GetInt("download.max_retries_per_url")
	cfg.Download.RetryDelay = viper.GetDuration("download.retry_delay")
	cfg.Download.MaxRedirects = viper.GetInt("download.max_redirects")
	cfg.Download.MinValidSize = viper.GetInt64("download.min_valid_size")
	cfg.Download.StrictValidation = viper.GetBool("download.strict_validation")
	cfg.Download.OutputDir = viper.GetString("download.output_dir")

	cfg.Cache.Dir = viper.GetString("cache.dir")
	cfg.Cache.TTLDays = viper.GetInt("cache.ttl_days")
	cfg.Cache.Compression = viper.GetBool("cache.compression")
	cfg.Cache.DeleteStaleOnRead = boolSetting("cache.delete_stale_on_read", true)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// boolSetting reads a viper key with an explicit default; viper's own
// GetBool cannot distinguish "unset" from "false".
func boolSetting(key string, def bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return def
}

// parseRefs converts identifier arguments, failing on the first one that
// matches no recognized identifier shape.
func parseRefs(args []string) ([]types.PublicationRef, error) {
	refs := make([]types.PublicationRef, 0, len(args))
	for _, arg := range args {
		ref, err := types.ParseRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
