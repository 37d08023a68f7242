// =============================================================================
// POS Ledger - Main Entry Point
// =============================================================================
//
// USAGE:
//   posledger process       - Append the working directory's groups to the ledger
//   posledger scan          - List the groups found in the working directory
//   posledger version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Grouping, reference loading, row assembly, ledger output
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pos-ledger/cmd"
)

func main() {
	cmd.Execute()
}
