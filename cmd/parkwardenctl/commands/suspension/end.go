package suspension

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/spf13/cobra"
)

var (
	endBy     string
	endReason string
)

var endCmd = &cobra.Command{
	Use:   "end <suspension-id>",
	Short: "Close an open suspension",
	Long: `Close an open enforcement suspension. Sessions resolving after this
point are evaluated normally again.

Examples:
  parkwardenctl suspension end 9c1d... --reason "works finished" --by ops@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runEnd,
}

func init() {
	endCmd.Flags().StringVar(&endBy, "by", "", "Operator identity (required)")
	endCmd.Flags().StringVar(&endReason, "reason", "", "Why the suspension ends (required)")
	_ = endCmd.MarkFlagRequired("by")
	_ = endCmd.MarkFlagRequired("reason")
}

func runEnd(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	susp, err := client.EndSuspension(args[0], endBy, endReason)
	if err != nil {
		return fmt.Errorf("failed to end suspension: %w", err)
	}

	msg := fmt.Sprintf("Suspension '%s' ended", susp.ID)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, susp, msg)
}
