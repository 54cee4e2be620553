// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the equity-engine CLI.
// Implements: prd007-cli (R1-R5); see docs/ARCHITECTURE § Command Surface.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/equity-engine/internal/secrets"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// engineCfg is the typed config snapshot materialized once per invocation.
// Commands read this, never viper. Per prd007-cli R2.3.
var engineCfg types.EngineConfig

// rootCmd is the base command for the equity-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "equity-engine",
	Short: "Orchestrated equity research over pluggable data providers",
	Long: `equity-engine runs financial research over a single stock symbol. A research
is created with a symbol, an optional question, and a workflow (static data
gathering or agentic LLM planning), then executed to a result whose sections
are rendered for the reader's financial literacy.

Provider calls are cached under content-addressed fingerprints, so repeated
runs over the same symbol reuse quotes, price history, and fundamentals
until they expire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so viper's AutomaticEnv sees its values.
		_ = godotenv.Load()

		engineCfg = resolveConfig()

		s, err := secrets.Load(viper.GetString("secrets.dir"))
		if err != nil {
			return err
		}
		secrets.Apply(s, &engineCfg)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./equity-engine.yaml or ~/.config/equity-engine/config.yaml)")
	rootCmd.PersistentFlags().String("storage-dir", "", "engine workspace directory (default: .equity-engine)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error (default: info)")

	viper.BindPFlag("storage.dir", rootCmd.PersistentFlags().Lookup("storage-dir"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("equity-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "equity-engine"))
		}
	}

	viper.SetEnvPrefix("EQUITY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.dir", ".equity-engine")

	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("cache.default_ttl", time.Hour)
	viper.SetDefault("cache.quote_ttl", 15*time.Minute)
	viper.SetDefault("cache.history_ttl", 6*time.Hour)
	viper.SetDefault("cache.fundamentals_ttl", 24*time.Hour)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_retries", 3)

	viper.SetDefault("workflow.required_stages", []string{"quote"})
	viper.SetDefault("workflow.max_iterations", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("secrets.dir", ".secrets/")
}

// resolveConfig reads every config key into the typed snapshot.
func resolveConfig() types.EngineConfig {
	return types.EngineConfig{
		Storage: types.StorageConfig{
			Type: types.StorageType(viper.GetString("storage.type")),
			Dir:  viper.GetString("storage.dir"),
		},
		Cache: types.CacheConfig{
			Backend:         types.CacheBackendType(viper.GetString("cache.backend")),
			Dir:             viper.GetString("cache.dir"),
			DefaultTTL:      viper.GetDuration("cache.default_ttl"),
			QuoteTTL:        viper.GetDuration("cache.quote_ttl"),
			HistoryTTL:      viper.GetDuration("cache.history_ttl"),
			FundamentalsTTL: viper.GetDuration("cache.fundamentals_ttl"),
		},
		Provider: types.ProviderConfig{
			SnapshotDir: viper.GetString("provider.snapshot_dir"),
		},
		LLM: types.LLMConfig{
			Provider:    viper.GetString("llm.provider"),
			Model:       viper.GetString("llm.model"),
			APIKey:      viper.GetString("llm.api_key"),
			BaseURL:     viper.GetString("llm.base_url"),
			Temperature: float32(viper.GetFloat64("llm.temperature")),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
		},
		Workflow: types.WorkflowConfig{
			RequiredStages: viper.GetStringSlice("workflow.required_stages"),
			MaxIterations:  viper.GetInt("workflow.max_iterations"),
		},
		Logging: types.LoggingConfig{
			Level: viper.GetString("logging.level"),
		},
	}
}

// exitCode maps engine error kinds to process exit codes so scripts can
// branch without parsing messages. Per prd007-cli R5.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.KindValidation, types.KindUnsupportedWorkflow:
		return 2
	case types.KindNotFound:
		return 3
	case types.KindConflict, types.KindInvalidTransition:
		return 4
	case types.KindProvider, types.KindAnalysis:
		return 5
	case types.KindPlanningExhausted:
		return 6
	case types.KindCancelled:
		return 130
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, types.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "The research was interrupted and recorded as failed.")
		}
		os.Exit(exitCode(err))
	}
}
