// Package site implements site commands for parkwardenctl.
package site

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for site operations.
var Cmd = &cobra.Command{
	Use:   "site",
	Short: "Site operations",
	Long: `Inspect and operate enforcement sites on the Parkwarden server.

Examples:
  # List all active sites
  parkwardenctl site list

  # Show one site with its configuration
  parkwardenctl site get GRN01

  # Build the current export snapshot
  parkwardenctl site snapshot GRN01

  # Publish the snapshot to the configured bucket
  parkwardenctl site export GRN01

  # Queue a full re-evaluation of unreviewed decisions
  parkwardenctl site reconcile GRN01`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(snapshotCmd)
	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(reconcileCmd)
	Cmd.AddCommand(schemaCmd)
}
