// =============================================================================
// POS Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (posledger)
//   ├── processCmd (posledger process)
//   ├── scanCmd    (posledger scan)
//   └── versionCmd (posledger version)
//
// The root command owns the flags every subcommand shares: the config file
// path, verbosity and log format. loadRuntime turns them into a validated
// configuration and a run-scoped logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-ledger/internal/config"
	"github.com/ginjaninja78/pos-ledger/internal/logger"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides log_format from the configuration.
var logFormat string

// workDir overrides working_dir; shared by process and scan.
var workDir string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "posledger",
	Short: "POS Ledger - Merge per-terminal POS exports into one sales ledger",
	Long: `POS Ledger reads the daily exports downloaded from each point-of-sale
terminal, joins every sales line with its item, department, discount,
payment and loyalty references, and appends the result to a single
append-only CSV ledger.

Rows whose business date differs from the export's date are not written to
the ledger; the (pos, branch, date) is recorded in a mismatch log instead.

Example Usage:
  posledger scan                          # Show the groups found in the working directory
  posledger process                       # Append every complete group to the ledger
  posledger process --workdir ./job42 --ledger ./job42/out.csv
  posledger process --dry-run -v          # Assemble everything, write nothing`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
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
		"Path to the main configuration file (a missing file means defaults)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log output format: console or json (overrides log_format)",
	)
}

// =============================================================================
// RUNTIME SETUP
// =============================================================================

// loadRuntime loads the configuration, applies the shared flag overrides
// and initialises the root logger with a fresh run id.
func loadRuntime(cmd *cobra.Command, override func(*config.MainConfig)) (*config.MainConfig, *logger.Logger, string, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load main config: %w", err)
	}

	if cmd.Flags().Changed("workdir") {
		cfg.WorkingDir = workDir
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if override != nil {
		override(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	runID := utils.NewRunID()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "posledger",
		RunID:   runID,
		Writer:  cmd.ErrOrStderr(),
	})
	return cfg, log, runID, nil
}
