package site

import (
	"fmt"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/spf13/cobra"
)

var reconcileLimit int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <site-id>",
	Short: "Queue a full re-evaluation of a site",
	Long: `Queue every unreviewed decision of a site for re-evaluation against
current payment, permit, and suspension data.

The work runs asynchronously on the server's reconcile queue.

Examples:
  # Reconcile everything unreviewed
  parkwardenctl site reconcile GRN01

  # Cap the batch
  parkwardenctl site reconcile GRN01 --limit 500`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 0, "Maximum number of decisions to queue (0 = no limit)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	if err := client.ReconcileSite(args[0], reconcileLimit); err != nil {
		return fmt.Errorf("failed to queue reconciliation: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Reconciliation queued for site '%s'", args[0]))
	return nil
}
