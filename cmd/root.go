/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"claude-wm-cli/internal/model"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information - will be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Global configuration variables
var (
	cfgFile   string
	verbose   bool
	debugMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "claude-wm-cli",
	Short: "Code-quality hook orchestration CLI",
	Long: `claude-wm-cli runs a fleet of code-quality tools (linters, formatters,
type checkers, security scanners) against a repository and aggregates their
results.

Hooks are grouped into named strategies, ordered by a dependency graph into
execution waves, run with bounded parallelism and per-hook timeouts, and
cached by file content so unchanged inputs never re-run a tool.

CORE FEATURES:
  • Dependency-ordered waves with bounded parallel execution
  • Content-addressed result cache (in-memory LRU or persistent)
  • Per-hook timeouts with guaranteed subprocess cleanup
  • Critical-security short-circuit and publish gating
  • Formatter-aware retry policy

WORKFLOW:
  1. Run the fast hooks:          claude-wm-cli hook-run
  2. Run the full pipeline:       claude-wm-cli hook-run --stage comprehensive
  3. Inspect the result cache:    claude-wm-cli cache stats
  4. Force a cold run:            claude-wm-cli hook-run --no-cache

EXAMPLES:
  claude-wm-cli hook-run                           # Run the fast stage
  claude-wm-cli hook-run --stage comprehensive     # Run every registered hook
  claude-wm-cli hook-run --max-workers 8           # Raise the per-wave cap
  claude-wm-cli --config ./custom.yaml hook-run    # Use custom config
  claude-wm-cli --verbose hook-run                 # Verbose output

CONFIGURATION:
  Default config file: ~/.claude-wm-cli.yaml or ./.claude-wm-cli.yaml
  Environment variables: CLAUDE_WM_* (e.g., CLAUDE_WM_VERBOSE=true)`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.claude-wm-cli.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug output - enables the resource leak detector and extra diagnostics")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	// Validate config file if specified
	if cfgFile != "" {
		if err := model.ValidateConfigFile(cfgFile); err != nil {
			model.HandleValidationError(err, "")
			return
		}
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			cliErr := model.NewInternalError("failed to get user home directory").
				WithCause(err).
				WithSuggestions([]string{"Specify a config file explicitly with --config"})
			model.HandleValidationError(cliErr, "")
			return
		}

		// Search config in home directory with name ".claude-wm-cli" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".claude-wm-cli")
	}

	viper.SetEnvPrefix("CLAUDE_WM")
	viper.AutomaticEnv() // read in environment variables that match

	// The bound flags resolve as flag > CLAUDE_WM_* env > default.
	verbose = viper.GetBool("verbose")
	debugMode = viper.GetBool("debug")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// Only show error if config file was explicitly specified
		if cfgFile != "" {
			cliErr := model.NewFileSystemError("read", cfgFile, err).
				WithSuggestions([]string{"Check that the config file exists and is valid YAML/JSON"})
			model.HandleValidationError(cliErr, "")
			return
		}
		// If no explicit config file, it's okay if default doesn't exist
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
