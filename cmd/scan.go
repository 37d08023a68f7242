package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-ledger/internal/batch"
	"github.com/ginjaninja78/pos-ledger/internal/types"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the groups found in the working directory",
	Long: `The scan command groups the working directory exactly as process would
and prints, for every (branch, pos, date), which export types are present.
Groups without a transaction detail file (rd5000) are marked SKIP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, _, err := loadRuntime(cmd, nil)
		if err != nil {
			return err
		}

		groups, err := batch.Discover(utils.NewFileManager(cfg.WorkingDir, ""))
		if err != nil {
			return err
		}
		log.Debug().Int("groups", len(groups)).Msg("scan complete")

		return printScan(cmd.OutOrStdout(), groups)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&workDir, "workdir", "", "Working directory with the exports (overrides working_dir)")
}

func printScan(out io.Writer, groups []types.Group) error {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No export groups found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tPOS\tDATE\tSTATUS\tMISSING")
	ready := 0
	for _, g := range groups {
		status := "READY"
		if !g.HasDetail() {
			status = "SKIP"
		} else {
			ready++
		}
		missing := make([]string, 0, len(types.AllFileTypes))
		for _, ft := range g.Missing() {
			missing = append(missing, string(ft))
		}
		if len(missing) == 0 {
			missing = append(missing, "-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.Key.Branch, g.Key.Terminal, g.Key.Date, status, strings.Join(missing, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d group(s), %d ready, %d skipped\n", len(groups), ready, len(groups)-ready)
	return nil
}
