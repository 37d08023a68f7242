// =============================================================================
// POS Ledger - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one batch over the
// working directory and appends the assembled rows to the ledger.
//
// COMMAND USAGE:
//   posledger process [flags]
//
// FLAGS:
//   --workdir       : Directory holding the downloaded exports
//   --ledger        : Ledger CSV to append to
//   --mismatch-log  : Mismatch log CSV
//   --header        : Header template (.csv, .txt or .xlsx)
//   --branch        : Process only one branch
//   --dry-run       : Assemble every row, write nothing
//   --archive       : Move processed group files to the archive directory
//
// PROCESSING PIPELINE:
//   1. Load configuration and branch list
//   2. Open the ledger (writing the header when it is new) and mismatch log
//   3. Run the batch driver, one group at a time
//   4. Archive processed groups
//   5. Print and optionally store the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-ledger/internal/batch"
	"github.com/ginjaninja78/pos-ledger/internal/config"
	"github.com/ginjaninja78/pos-ledger/internal/header"
	"github.com/ginjaninja78/pos-ledger/internal/ledger"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	ledgerPath   string
	mismatchPath string
	headerPath   string
	branchFilter string
	dryRun       bool
	archive      bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Append the groups of the working directory to the ledger",
	Long: `The process command groups the exports in the working directory by
(branch, pos, date). Each group that carries a transaction detail file
(rd5000) is joined with its reference files and appended to the ledger.
Groups without a detail file are skipped and left in place.

Problems with single reference lines or detail rows are logged and
skipped; the batch continues. Only a working directory, ledger or
mismatch log that cannot be opened stops the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&workDir, "workdir", "", "Working directory with the exports (overrides working_dir)")
	processCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Ledger CSV to append to (overrides ledger_file)")
	processCmd.Flags().StringVar(&mismatchPath, "mismatch-log", "", "Mismatch log CSV (overrides mismatch_file)")
	processCmd.Flags().StringVar(&headerPath, "header", "", "Header template (overrides header_template)")
	processCmd.Flags().StringVar(&branchFilter, "branch", "", "Process only this branch")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Assemble every row without writing the ledger or mismatch log")
	processCmd.Flags().BoolVar(&archive, "archive", false, "Move processed group files to archive_dir")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, log, runID, err := loadRuntime(cmd, func(c *config.MainConfig) {
		if flags.Changed("ledger") {
			c.LedgerFile = ledgerPath
		}
		if flags.Changed("mismatch-log") {
			c.MismatchFile = mismatchPath
		}
		if flags.Changed("header") {
			c.HeaderTemplate = headerPath
		}
		if archive {
			c.ArchiveOnSuccess = true
		}
	})
	if err != nil {
		return err
	}

	newBranches, err := cfg.NewBranchSet()
	if err != nil {
		return err
	}

	log.Info().
		Str("workdir", cfg.WorkingDir).
		Str("ledger", cfg.LedgerFile).
		Int("new_branches", len(newBranches)).
		Bool("dry_run", dryRun).
		Msg("starting batch")

	fm := utils.NewFileManager(cfg.WorkingDir, cfg.ArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveOnSuccess
	fm.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs

	var (
		rows       batch.RowSink
		mismatches batch.MismatchSink
		writer     *ledger.Writer
	)
	if !dryRun {
		line, err := header.Load(cfg.HeaderTemplate, cfg.Encoding)
		switch {
		case !header.Exists(err):
			log.Warn().Str("template", cfg.HeaderTemplate).Msg("header template missing, ledger gets no header")
		case err != nil:
			return err
		}

		writer, err = ledger.Open(cfg.LedgerFile, line)
		if err != nil {
			return err
		}
		rows = writer
		mismatches = ledger.NewMismatchLog(cfg.MismatchFile)
	}

	driver := batch.NewDriver(fm, rows, mismatches, batch.Options{
		Encoding:        cfg.Encoding,
		NewBranches:     newBranches,
		LoyaltyIDLength: cfg.LoyaltyLength(),
		Branch:          branchFilter,
		DryRun:          dryRun,
		RunID:           runID,
	}, log)

	summary, runErr := driver.Run(ctx)

	if writer != nil {
		if err := writer.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	printSummary(cmd.OutOrStdout(), summary)

	if cfg.SummaryDir != "" {
		path, err := utils.WriteSummaryLog(summary, cfg.SummaryDir)
		if err != nil {
			log.Warn().Err(err).Msg("failed to write run summary")
		} else {
			log.Info().Str("path", path).Msg("run summary written")
		}
	}

	if errors.Is(runErr, context.Canceled) {
		log.Warn().Msg("batch interrupted; remaining groups were not processed")
	}
	return runErr
}

// printSummary writes the operator-facing run summary.
func printSummary(out io.Writer, s batch.Summary) {
	fmt.Fprintln(out, "=== Batch Complete ===")
	if s.DryRun {
		fmt.Fprintln(out, "Mode:             dry run (nothing written)")
	}
	fmt.Fprintf(out, "Groups processed: %d\n", s.GroupsProcessed)
	fmt.Fprintf(out, "Groups skipped:   %d\n", s.GroupsSkipped)
	if s.GroupsFailed > 0 {
		fmt.Fprintf(out, "Groups failed:    %d\n", s.GroupsFailed)
	}
	fmt.Fprintf(out, "Rows written:     %d\n", s.RowsWritten)
	fmt.Fprintf(out, "Date mismatches:  %d\n", s.Mismatches)
	fmt.Fprintf(out, "Row failures:     %d\n", s.RowFailures)
	if s.FilesArchived > 0 {
		fmt.Fprintf(out, "Files archived:   %d\n", s.FilesArchived)
	}
	fmt.Fprintf(out, "Time elapsed:     %s\n", s.Duration())
}
