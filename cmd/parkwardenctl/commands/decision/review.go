package decision

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var (
	verdictBy    string
	verdictNotes string
)

var approveCmd = &cobra.Command{
	Use:   "approve <decision-id>",
	Short: "Approve an enforcement candidate",
	Long: `Record an operator approval. The decision freezes; later automatic
re-evaluations leave it untouched.

Examples:
  parkwardenctl decision approve 5e2b... --by warden@example.com --notes "clear overstay"`,
	Args: cobra.ExactArgs(1),
	RunE: runVerdict(models.DecisionApproved),
}

var declineCmd = &cobra.Command{
	Use:   "decline <decision-id>",
	Short: "Decline an enforcement candidate",
	Long: `Record an operator decline. The decision freezes; no enforcement
follows from this session.

Examples:
  parkwardenctl decision decline 5e2b... --by warden@example.com --notes "permit shown on appeal"`,
	Args: cobra.ExactArgs(1),
	RunE: runVerdict(models.DecisionDeclined),
}

func init() {
	for _, c := range []*cobra.Command{approveCmd, declineCmd} {
		c.Flags().StringVar(&verdictBy, "by", "", "Reviewer identity (required)")
		c.Flags().StringVar(&verdictNotes, "notes", "", "Verdict notes appended to the rationale")
		_ = c.MarkFlagRequired("by")
	}
}

func runVerdict(status models.DecisionStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client := cmdutil.GetClient()

		decision, err := client.ReviewDecision(args[0], string(status), verdictBy, verdictNotes)
		if err != nil {
			return fmt.Errorf("failed to record verdict: %w", err)
		}

		msg := fmt.Sprintf("Decision '%s' is now %s", decision.ID, decision.Status)
		return cmdutil.PrintResourceWithSuccess(os.Stdout, decision, msg)
	}
}
