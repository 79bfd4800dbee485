// =============================================================================
// Budget Builder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (budget)
//   ├── buildCmd (budget build)
//   ├── validateCmd (budget validate)
//   └── versionCmd (budget version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --env-file,
//   --verbose). Commands that need them call loadConfig and newLogger;
//   'version' needs neither.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// envFile is a dotenv file with BUDGET_* overrides. Missing is fine.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// logger is built by newLogger and flushed after every command.
var logger *zap.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget Builder - Publish an alternative state budget from a spreadsheet export",
	Long: `Budget Builder reads the alternative budget spreadsheet (XLSX, or the
ministry open data CSV), organises its rows into chapters, categories and
items, computes the headline figures and writes one XML report.

Rows that cannot be read are skipped and reported. A row whose parent
chapter or category is missing stops the build, unless
report.rollup_missing_parents is set.

Example Usage:
  budget build --input talousarvio.xlsx     # Build the report
  budget build --input data.csv --dry-run   # Run every stage, write nothing
  budget validate --input talousarvio.xlsx  # List problems in the export`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Dotenv file with BUDGET_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the --env-file overrides and the configuration named by
// --config.
func loadConfig() (*config.Config, error) {
	if _, err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the console logger for cfg and stores it for the
// post-run flush.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		File:    cfg.LogFile,
		Console: true,
	})
	if err != nil {
		return nil, err
	}
	logger = l
	return l, nil
}
