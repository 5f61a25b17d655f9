package review

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var (
	resolveBy     string
	correctVRM    string
	discardReason string
)

var approveCmd = &cobra.Command{
	Use:   "approve <review-id>",
	Short: "Accept a suspicious plate as read",
	Long: `Accept the plate exactly as the camera read it. The movement is
resubmitted and flows into session reconstruction.

Examples:
  parkwardenctl review approve 7f3a... --by operator@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var correctCmd = &cobra.Command{
	Use:   "correct <review-id>",
	Short: "Rewrite a misread plate",
	Long: `Replace the camera's read with the corrected registration and
resubmit the movement.

Examples:
  parkwardenctl review correct 7f3a... --vrm AB12CDE --by operator@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

var discardCmd = &cobra.Command{
	Use:   "discard <review-id>",
	Short: "Drop an unusable plate read",
	Long: `Discard the read. The movement never enters session reconstruction.

Examples:
  parkwardenctl review discard 7f3a... --reason "glare, unreadable" --by operator@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscard,
}

func init() {
	for _, c := range []*cobra.Command{approveCmd, correctCmd, discardCmd} {
		c.Flags().StringVar(&resolveBy, "by", "", "Reviewer identity (required)")
		_ = c.MarkFlagRequired("by")
	}

	correctCmd.Flags().StringVar(&correctVRM, "vrm", "", "Corrected registration mark (required)")
	_ = correctCmd.MarkFlagRequired("vrm")

	discardCmd.Flags().StringVar(&discardReason, "reason", "", "Why the read is unusable (prompted when omitted)")
}

func runApprove(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	resolved, err := client.ApproveReview(args[0], resolveBy)
	if err != nil {
		return fmt.Errorf("failed to approve review: %w", err)
	}

	msg := fmt.Sprintf("Review '%s' approved, plate '%s' accepted", resolved.ID, resolved.NormalizedVRM)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, resolved, msg)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	resolved, err := client.CorrectReview(args[0], resolveBy, correctVRM)
	if err != nil {
		return fmt.Errorf("failed to correct review: %w", err)
	}

	corrected := ""
	if resolved.CorrectedVRM != nil {
		corrected = *resolved.CorrectedVRM
	}
	msg := fmt.Sprintf("Review '%s' corrected: '%s' -> '%s'", resolved.ID, resolved.OriginalVRM, corrected)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, resolved, msg)
}

func runDiscard(cmd *cobra.Command, args []string) error {
	if discardReason == "" {
		reason, err := prompt.InputRequired("Discard reason")
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nAborted.")
				return nil
			}
			return err
		}
		discardReason = reason
	}

	client := cmdutil.GetClient()

	resolved, err := client.DiscardReview(args[0], resolveBy, discardReason)
	if err != nil {
		return fmt.Errorf("failed to discard review: %w", err)
	}

	msg := fmt.Sprintf("Review '%s' discarded", resolved.ID)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, resolved, msg)
}
