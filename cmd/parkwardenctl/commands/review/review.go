// Package review implements plate review queue commands for parkwardenctl.
package review

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for the plate review queue.
var Cmd = &cobra.Command{
	Use:   "review",
	Short: "Plate review queue",
	Long: `Work the queue of camera reads flagged as suspicious.

Each pending review holds a movement whose plate could not be trusted as
read. Approving accepts the plate as-is, correcting rewrites it and
resubmits the movement, discarding drops the read.

Examples:
  # List pending reviews
  parkwardenctl review list

  # Accept a plate as read
  parkwardenctl review approve 7f3a... --by operator@example.com

  # Fix a misread plate
  parkwardenctl review correct 7f3a... --vrm AB12CDE --by operator@example.com

  # Drop an unusable read
  parkwardenctl review discard 7f3a... --reason "glare, unreadable" --by operator@example.com

  # Drop every pending read carrying a suspicion tag
  parkwardenctl review bulk-discard --tag NON_UK_FORMAT --reason "foreign plates out of scope" --by operator@example.com`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(correctCmd)
	Cmd.AddCommand(discardCmd)
	Cmd.AddCommand(bulkDiscardCmd)
}
